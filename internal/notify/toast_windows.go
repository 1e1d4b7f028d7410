//go:build windows

package notify

import (
	"log"

	"github.com/go-toast/toast"
)

// ToastSink displays Windows toast notifications via go-toast, the same
// library the teacher's own tray package uses.
type ToastSink struct {
	AppID string
}

// NewSink returns the platform notification sink.
func NewSink() Sink {
	return ToastSink{AppID: "AudioDeviceMonitor"}
}

func (s ToastSink) Emit(title, body string, _ Category) error {
	n := toast.Notification{
		AppID:   s.AppID,
		Title:   title,
		Message: body,
	}
	if err := n.Push(); err != nil {
		log.Printf("notify: toast push failed: %v", err)
		return err
	}
	return nil
}
