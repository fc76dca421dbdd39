//go:build linux

package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	evdev "github.com/gvalkov/golang-evdev"
)

// EvdevSource reads relative motion from a Linux input device. The device is
// grabbed so its motion does not also reach the desktop.
type EvdevSource struct {
	path   string
	logger *slog.Logger
}

// NewEvdevSource returns a source for path, or for the first pointing device
// found when path is empty.
func NewEvdevSource(path string, logger *slog.Logger) *EvdevSource {
	return &EvdevSource{path: path, logger: logger}
}

func (e *EvdevSource) Name() string { return "evdev" }

func (e *EvdevSource) Run(ctx context.Context, p Processor) error {
	device, err := e.open()
	if err != nil {
		return err
	}
	if err := device.Grab(); err != nil {
		device.File.Close()
		return fmt.Errorf("failed to grab device %s: %w", device.Fn, err)
	}
	e.logger.Info("Pointing device opened", "name", device.Name, "path", device.Fn)

	// Read blocks; closing the file is what unblocks it on shutdown.
	stop := context.AfterFunc(ctx, func() {
		device.Release()
		device.File.Close()
	})
	defer stop()

	var b reportBuilder
	for {
		events, err := device.Read()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read %s: %w", device.Fn, err)
		}
		for _, ev := range events {
			usec := int64(ev.Time.Sec)*1_000_000 + int64(ev.Time.Usec)
			s, ok := b.add(ev.Type, ev.Code, ev.Value, usec)
			if !ok {
				continue
			}
			if err := p.Process(s); err != nil {
				e.logger.Debug("Sample rejected", "dx", s.DX, "dy", s.DY, "error", err)
			}
		}
	}
}

func (e *EvdevSource) open() (*evdev.InputDevice, error) {
	if e.path != "" {
		device, err := evdev.Open(e.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open device %s: %w", e.path, err)
		}
		return device, nil
	}

	devices, err := evdev.ListInputDevices()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}
	var found *evdev.InputDevice
	for _, d := range devices {
		if found == nil && isPointerDevice(d.Name) {
			found = d
			continue
		}
		d.File.Close()
	}
	if found == nil {
		return nil, ErrNoDevice
	}
	return found, nil
}
