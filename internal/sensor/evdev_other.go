//go:build !linux

package sensor

import (
	"context"
	"log/slog"
)

// EvdevSource is only available on Linux.
type EvdevSource struct{}

func NewEvdevSource(path string, logger *slog.Logger) *EvdevSource {
	return &EvdevSource{}
}

func (e *EvdevSource) Name() string { return "evdev" }

func (e *EvdevSource) Run(ctx context.Context, p Processor) error {
	return ErrUnsupportedPlatform
}
