package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akisma/pioneer-vision/internal/layout"
	"github.com/akisma/pioneer-vision/internal/logger"
	"github.com/akisma/pioneer-vision/internal/tui"
	"github.com/akisma/pioneer-vision/sdk/contracts"
	"github.com/akisma/pioneer-vision/sdk/midi"
	"go.uber.org/multierr"
)

// Overridable with -ldflags "-X main.version=1.2.3".
var version = "dev"

func main() {
	var (
		deviceID    int
		driver      string
		layoutPath  string
		logPath     string
		debug       bool
		listOnly    bool
		showVersion bool
	)
	flag.IntVar(&deviceID, "device", -1, "MIDI input device index (default: layout device or first device)")
	flag.StringVar(&driver, "driver", "", "MIDI driver: "+strings.Join(midi.Drivers(), ", ")+" (default: "+midi.DefaultDriver()+")")
	flag.StringVar(&layoutPath, "layout", "", "control layout YAML file (default: built-in mixer layout)")
	flag.StringVar(&logPath, "log", "pioneer.log", "log file; the terminal is used by the console")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.BoolVar(&listOnly, "list", false, "list MIDI input devices and exit")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println("pioneer", version)
		return
	}

	// The console owns the terminal, so logs go to a file unless only listing.
	var log contracts.Logger = logger.NewZapLogger()
	if !listOnly {
		fileLog, err := logger.NewFileLogger(logPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "pioneer:", err)
			os.Exit(1)
		}
		defer fileLog.Close()
		log = fileLog
	}
	level := contracts.InfoLevel
	if debug {
		level = contracts.DebugLevel
	}
	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithDriver(driver),
	}

	if err := run(opts, deviceID, layoutPath, listOnly); err != nil {
		log.Error("pioneer failed", log.Field().Error("error", err))
		fmt.Fprintln(os.Stderr, "pioneer:", err)
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(opts []contracts.Option, deviceID int, layoutPath string, listOnly bool) error {
	transport, err := midi.NewTransport(opts...)
	if err != nil {
		return err
	}
	devices, err := transport.ListDevices()
	if err != nil {
		return err
	}
	if listOnly {
		for _, d := range devices {
			fmt.Println(d)
		}
		return nil
	}

	l := layout.Default()
	if layoutPath != "" {
		if l, err = layout.Load(layoutPath); err != nil {
			return err
		}
	}
	if deviceID < 0 {
		deviceID = pickDevice(devices, l.Device)
	}

	engine, err := midi.NewEngine(opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := l.Apply(engine); err != nil {
		return fmt.Errorf("apply layout bindings: %w", err)
	}

	p := tea.NewProgram(tui.NewModel(engine, l, engine.Controls()), tea.WithAltScreen())

	unsubControls, err := engine.SubscribeControls(func(s contracts.ControlSnapshot) { p.Send(tui.ControlsMsg(s)) })
	if err != nil {
		return err
	}
	defer unsubControls()
	unsubMessages, err := engine.SubscribeMessages(func(s contracts.QueueSnapshot) { p.Send(tui.MessagesMsg(s)) })
	if err != nil {
		return err
	}
	defer unsubMessages()

	ctx, cancel := context.WithCancel(context.Background())
	listenErr := make(chan error, 1)
	go func() {
		err := engine.Listen(ctx, transport, deviceID)
		listenErr <- err
		if err != nil {
			p.Quit()
		}
	}()

	_, runErr := p.Run()
	cancel()
	return multierr.Combine(runErr, <-listenErr)
}

// pickDevice returns the first device whose name contains want, or 0.
func pickDevice(devices []contracts.DeviceInfo, want string) int {
	if want == "" {
		return 0
	}
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(want)) {
			return d.ID
		}
	}
	return 0
}
