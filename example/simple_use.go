package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/akisma/pioneer-vision/internal/logger"
	"github.com/akisma/pioneer-vision/sdk/contracts"
	"github.com/akisma/pioneer-vision/sdk/midi"
)

func main() {
	log := logger.NewZapLogger()

	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithMessageFilter(contracts.MessageFilter{
			Types: []contracts.MessageType{contracts.ControlChange, contracts.NoteOn},
		}),
	}

	transport, err := midi.NewTransport(opts...)
	if err != nil {
		log.Error("Failed to initialize MIDI transport", log.Field().Error("error", err))
		return
	}

	devices, err := transport.ListDevices()
	if err != nil || len(devices) == 0 {
		log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI devices:", devices)

	engine, err := midi.NewEngine(opts...)
	if err != nil {
		log.Error("Failed to create engine", log.Field().Error("error", err))
		return
	}
	defer engine.Close()

	engine.SubscribeControls(func(s contracts.ControlSnapshot) {
		for id, slider := range s.Sliders {
			fmt.Printf("%-8s %3d%%\n", id, slider.Value)
		}
		if !s.Learning.Active {
			if m, ok := s.Mapping("volume"); ok {
				fmt.Println("volume bound to", m)
			}
		}
	})

	// Bind the next knob or fader that moves.
	if err := engine.StartLearning(contracts.Slider, "volume"); err != nil {
		log.Error("Failed to start learning", log.Field().Error("error", err))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Move a control to bind it... Press Ctrl+C to exit.")
	if err := engine.Listen(ctx, transport, devices[0].ID); err != nil {
		log.Error("Capture failed", log.Field().Error("error", err))
	}
}
