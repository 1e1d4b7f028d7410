//go:build !windows

package notify

import "log"

// logSink logs notifications instead of displaying them, matching the
// teacher's own !windows notification fallback.
type logSink struct{}

// NewSink returns the platform notification sink.
func NewSink() Sink {
	return logSink{}
}

func (logSink) Emit(title, body string, _ Category) error {
	log.Printf("notification (not shown on this platform): %s - %s", title, body)
	return nil
}
