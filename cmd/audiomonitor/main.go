// Command audiomonitor observes audio input/output endpoints and keeps
// the system default pinned to the highest-priority device available,
// per user-configured rules.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/pozitronik/audio-device-monitor-go/internal/audio"
	"github.com/pozitronik/audio-device-monitor-go/internal/autostart"
	"github.com/pozitronik/audio-device-monitor-go/internal/config"
	"github.com/pozitronik/audio-device-monitor-go/internal/listener"
	"github.com/pozitronik/audio-device-monitor-go/internal/notify"
	"github.com/pozitronik/audio-device-monitor-go/internal/policy"
	"github.com/pozitronik/audio-device-monitor-go/internal/reconcile"
	"github.com/pozitronik/audio-device-monitor-go/internal/service"
	"github.com/pozitronik/audio-device-monitor-go/internal/trayicon"
)

var logFile *os.File

func main() {
	setupLogging()
	defer closeLogging()

	args := os.Args[1:]
	if len(args) == 0 {
		log.Println("no command specified, running in daemon mode")
		if err := cmdDaemon(nil); err != nil {
			log.Fatalf("daemon: %v", err)
		}
		return
	}

	command, rest := args[0], args[1:]
	var err error
	switch command {
	case "list-devices":
		err = cmdListDevices(rest)
	case "show-default":
		err = cmdShowDefault(rest)
	case "show-current":
		err = cmdShowCurrent(rest)
	case "switch":
		err = cmdSwitch(rest)
	case "check-config":
		err = cmdCheckConfig(rest)
	case "daemon":
		err = cmdDaemon(rest)
	case "status":
		err = cmdStatus(rest)
	case "test-notification":
		err = cmdTestNotification(rest)
	case "install-service":
		err = cmdInstallService(rest)
	case "uninstall-service":
		err = cmdUninstallService(rest)
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Printf("%s: %v", command, err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", command, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `audiomonitor - automatic default audio device switching

Usage:
  audiomonitor <command> [flags]

Commands:
  list-devices         list all visible audio endpoints
  show-default         show the current system default input/output
  show-current         alias for show-default
  switch               switch the default device: --device <name> [--input]
  check-config         validate the configuration file and print a summary
  daemon               run the background monitor (default if no command given)
  status               report whether the live defaults match policy
  test-notification    send a sample notification through the configured sink
  install-service      register the daemon for autostart at login
  uninstall-service     remove the daemon from autostart`)
}

func setupLogging() {
	exePath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to resolve executable path: %v\n", err)
		return
	}

	logPath := filepath.Join(filepath.Dir(exePath), "audiomonitor.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to open log file: %v\n", err)
		return
	}
	logFile = f

	log.SetOutput(io.MultiWriter(logFile, os.Stderr))
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

func closeLogging() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

// resolveConfigPath returns cfgPath, or the default config path when
// cfgPath is empty.
func resolveConfigPath(cfgPath string) (string, error) {
	if cfgPath != "" {
		return cfgPath, nil
	}
	return config.DefaultPath()
}

// loadCore resolves the config path, loads configuration, and acquires
// an AudioSystem. Shared by every one-shot CLI command.
func loadCore(cfgPath string) (*config.Config, audio.System, error) {
	path, err := resolveConfigPath(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve config path: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	sys, err := audio.NewSystem()
	if err != nil {
		return nil, nil, fmt.Errorf("acquire audio system: %w", err)
	}

	return cfg, sys, nil
}

func cmdListDevices(args []string) error {
	fs := flag.NewFlagSet("list-devices", flag.ExitOnError)
	cfgPath := fs.String("config", "", "configuration file path")
	verbose := fs.Bool("verbose", false, "show UID and direction detail")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, sys, err := loadCore(*cfgPath)
	if err != nil {
		return err
	}
	defer sys.Close()

	ctx := context.Background()
	devices, err := sys.Enumerate(ctx)
	if err != nil {
		return fmt.Errorf("enumerate devices: %w", err)
	}

	fmt.Println("Available audio devices:")
	if len(devices) == 0 {
		fmt.Println("  (none found)")
		return nil
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	for i, d := range devices {
		fmt.Printf("  %d. %s (%s)\n", i+1, d.Name, d.Direction)
		if *verbose {
			fmt.Printf("       id=%s uid=%s\n", d.ID, d.UID)
		}
	}

	if out, err := sys.GetDefault(ctx, audio.Output); err == nil && out != nil {
		fmt.Printf("Default output: %s\n", out.Name)
	}
	if in, err := sys.GetDefault(ctx, audio.Input); err == nil && in != nil {
		fmt.Printf("Default input: %s\n", in.Name)
	}
	return nil
}

func cmdShowDefault(args []string) error {
	fs := flag.NewFlagSet("show-default", flag.ExitOnError)
	cfgPath := fs.String("config", "", "configuration file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, sys, err := loadCore(*cfgPath)
	if err != nil {
		return err
	}
	defer sys.Close()

	ctx := context.Background()
	out, _ := sys.GetDefault(ctx, audio.Output)
	in, _ := sys.GetDefault(ctx, audio.Input)

	fmt.Println("Current default devices:")
	printDeviceOrNone("Output", out)
	printDeviceOrNone("Input", in)
	return nil
}

func printDeviceOrNone(label string, d *audio.Device) {
	if d == nil {
		fmt.Printf("  %s: none available\n", label)
		return
	}
	fmt.Printf("  %s: %s\n", label, d.Name)
}

// cmdShowCurrent is an alias for show-default: both report the live
// system defaults, there being no separate "intended" state to surface
// outside a running daemon.
func cmdShowCurrent(args []string) error {
	return cmdShowDefault(args)
}

func cmdSwitch(args []string) error {
	fs := flag.NewFlagSet("switch", flag.ExitOnError)
	cfgPath := fs.String("config", "", "configuration file path")
	deviceName := fs.String("device", "", "device name to switch to (required)")
	input := fs.Bool("input", false, "switch the input default instead of output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *deviceName == "" {
		return fmt.Errorf("--device is required")
	}

	cfg, sys, err := loadCore(*cfgPath)
	if err != nil {
		return err
	}
	defer sys.Close()

	dir := audio.Output
	if *input {
		dir = audio.Input
	}

	resolver := policy.NewResolver(cfg)
	sink := notify.NewSink()
	controller := reconcile.New(sys, resolver, sink, cfg.Notifications.ShowDeviceAvailability, cfg.Notifications.ShowSwitchingActions)

	device := audio.Device{Name: *deviceName, Direction: dir}
	if err := controller.ApplyDefault(context.Background(), device, dir, reconcile.Manual); err != nil {
		return fmt.Errorf("switch %s device to %q: %w", dir, *deviceName, err)
	}

	fmt.Printf("Switched %s default to %q\n", dir, *deviceName)
	return nil
}

func cmdCheckConfig(args []string) error {
	fs := flag.NewFlagSet("check-config", flag.ExitOnError)
	cfgPath := fs.String("config", "", "configuration file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := resolveConfigPath(*cfgPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}

	fmt.Println("Configuration validation:")
	fmt.Printf("  file parsed successfully: %s\n", path)
	fmt.Printf("  check_interval_ms: %d\n", cfg.General.CheckIntervalMs)
	fmt.Printf("  poll_interval_ms: %d\n", cfg.General.PollIntervalMs)
	fmt.Printf("  output rules: %d\n", len(cfg.OutputDevices))
	fmt.Printf("  input rules: %d\n", len(cfg.InputDevices))

	sys, err := audio.NewSystem()
	if err != nil {
		fmt.Printf("  (audio system unavailable, skipping live preview: %v)\n", err)
		return nil
	}
	defer sys.Close()

	devices, err := sys.Enumerate(context.Background())
	if err != nil {
		fmt.Printf("  (enumeration unavailable, skipping live preview: %v)\n", err)
		return nil
	}

	fmt.Println()
	fmt.Print(reconcile.DescribePreferences(devices, cfg.OutputDevices, cfg.InputDevices))
	return nil
}

func cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cfgPath := fs.String("config", "", "configuration file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, sys, err := loadCore(*cfgPath)
	if err != nil {
		return err
	}
	defer sys.Close()

	resolver := policy.NewResolver(cfg)
	controller := reconcile.New(sys, resolver, nil, false, false)

	status, err := controller.CheckPreferences(context.Background())
	if err != nil {
		return fmt.Errorf("check preferences: %w", err)
	}

	fmt.Println("Preference status:")
	printStatusLine("Output", status.CurrentOutput, status.PreferredOutput, status.OutputMatches)
	printStatusLine("Input", status.CurrentInput, status.PreferredInput, status.InputMatches)
	if !status.OutputMatches || !status.InputMatches {
		os.Exit(1)
	}
	return nil
}

func printStatusLine(label string, current, preferred *audio.Device, matches bool) {
	state := "OK"
	if !matches {
		state = "MISMATCH"
	}
	fmt.Printf("  %s [%s]: current=%s preferred=%s\n", label, state, deviceNameOrNone(current), deviceNameOrNone(preferred))
}

func deviceNameOrNone(d *audio.Device) string {
	if d == nil {
		return "(none)"
	}
	return d.Name
}

func cmdTestNotification(args []string) error {
	fs := flag.NewFlagSet("test-notification", flag.ExitOnError)
	cfgPath := fs.String("config", "", "configuration file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := resolveConfigPath(*cfgPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// Quiet mode (both notification categories disabled) suppresses even
	// this test notification, so the command's output matches what a
	// running daemon would actually surface.
	sink := notify.Filtered{
		Sink: notify.NewSink(),
		Enabled: func(notify.Category) bool {
			return cfg.Notifications.ShowDeviceAvailability || cfg.Notifications.ShowSwitchingActions
		},
	}

	if err := sink.Emit("Audio Device Monitor", "Test notification", notify.DeviceChange); err != nil {
		return fmt.Errorf("send test notification: %w", err)
	}
	fmt.Println("Test notification sent")
	return nil
}

func cmdInstallService(args []string) error {
	fs := flag.NewFlagSet("install-service", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := autostart.Enable(); err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	fmt.Println("Audio Device Monitor registered for autostart at login")
	return nil
}

func cmdUninstallService(args []string) error {
	fs := flag.NewFlagSet("uninstall-service", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := autostart.Disable(); err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}
	fmt.Println("Audio Device Monitor removed from autostart")
	return nil
}

func cmdDaemon(args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	cfgPath := fs.String("config", "", "configuration file path")
	headless := fs.Bool("headless", false, "skip the system tray icon (for servers/CI)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := resolveConfigPath(*cfgPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var sys audio.System
	err = service.RetryWithBackoff(5, nil, func(attempt int) error {
		log.Printf("daemon: acquiring audio system (attempt %d)", attempt)
		s, acquireErr := audio.NewSystem()
		if acquireErr != nil {
			return acquireErr
		}
		sys = s
		return nil
	})
	if err != nil {
		startupSink := notify.Filtered{
			Sink: notify.NewSink(),
			Enabled: func(notify.Category) bool {
				return cfg.Notifications.ShowDeviceAvailability || cfg.Notifications.ShowSwitchingActions
			},
		}
		_ = startupSink.Emit("Audio Device Monitor", "Failed to start: could not acquire audio system", notify.Error)
		return fmt.Errorf("acquire audio system after retries: %w", err)
	}
	defer sys.Close()

	resolver := policy.NewResolver(cfg)
	sink := notify.NewSink()
	controller := reconcile.New(sys, resolver, sink, cfg.Notifications.ShowDeviceAvailability, cfg.Notifications.ShowSwitchingActions)
	l := listener.New(sys, resolver, controller)
	loop := service.NewLoop(path, cfg, sys, l, controller, resolver, controller)

	if *headless {
		return loop.Run(context.Background())
	}

	ctx, cancel := context.WithCancel(context.Background())

	tray := trayicon.New(
		func() error {
			_, err := controller.ApplyPreferences(ctx)
			return err
		},
		func() error {
			reloaded, err := config.Load(path)
			if err != nil {
				return err
			}
			resolver.SetRules(reloaded.OutputDevices, reloaded.InputDevices)
			controller.SetNotificationPolicy(reloaded.Notifications.ShowDeviceAvailability, reloaded.Notifications.ShowSwitchingActions)
			log.Println("daemon: configuration reloaded from tray menu")
			return nil
		},
		func() error {
			enabled, toggleErr := autostart.Toggle()
			if toggleErr != nil {
				return toggleErr
			}
			log.Printf("daemon: autostart now %v", enabled)
			return nil
		},
		cancel,
	)

	tray.OnReady(func() {
		go func() {
			if err := loop.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("daemon: service loop exited: %v", err)
			}
			tray.Quit()
		}()
	})

	tray.Run()
	return nil
}
