// Package behavior converts raw pointing-sensor samples into cursor motion or
// scroll wheel events.
//
// A Pipeline owns one immutable Config. Each sample is remapped, scaled and,
// in scroll mode, quantized into ticks by a Quantizer before the resulting
// Event is handed to an Emitter. Pipelines process one sample at a time; the
// Router switches between several named pipelines.
package behavior

import (
	"fmt"
	"log/slog"
)

// Sample is one raw relative motion report. DT and Timestamp are carried for
// the caller's benefit and do not affect the transform.
type Sample struct {
	DX        int16
	DY        int16
	DT        int
	Timestamp int64
}

// Pipeline applies one behavior configuration to incoming samples.
type Pipeline struct {
	name   string
	cfg    Config
	scroll Quantizer
	emit   Emitter
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithQuantizer replaces the pipeline's own ScrollState, typically with a
// LockedScrollState shared between pipelines.
func WithQuantizer(q Quantizer) Option {
	return func(p *Pipeline) {
		p.scroll = q
	}
}

// NewPipeline validates cfg and returns a pipeline delivering to emit. Unless
// WithQuantizer is given, a scroll-mode pipeline gets its own ScrollState.
func NewPipeline(name string, cfg Config, emit Emitter, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("behavior %q: %w", name, err)
	}
	p := &Pipeline{
		name: name,
		cfg:  cfg,
		emit: emit,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.scroll == nil && cfg.Mode == ModeScroll {
		p.scroll = NewScrollState()
	}
	if logger != nil {
		logger.Info("Behavior ready", "name", name, "config", cfg.String())
		if cfg.Smoothing {
			logger.Debug("Smoothing is not implemented and has no effect", "name", name)
		}
	}
	return p, nil
}

func (p *Pipeline) Name() string   { return p.name }
func (p *Pipeline) Config() Config { return p.cfg }

// Transform runs the sample through remap, scale and (in scroll mode) the
// quantizer and returns the event to emit. Scroll state is committed before
// the event shape is chosen.
func (p *Pipeline) Transform(s Sample) (Event, error) {
	x, y := Remap(s.DX, s.DY, p.cfg.Flavor)

	x, y, err := Scale(x, y, p.cfg.ScaleMode, p.cfg.ScaleFactor)
	if err != nil {
		return nil, err
	}

	if p.cfg.Mode == ModeScroll && p.scroll != nil {
		x, y = p.scroll.Quantize(x, y)
	}

	switch p.cfg.Mode {
	case ModeMove:
		return PositionDelta{X: x, Y: y}, nil
	case ModeScroll:
		return ScrollDelta{X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMode, int(p.cfg.Mode))
	}
}

// Process transforms the sample and delivers the event. The emitter's error is
// returned as is.
func (p *Pipeline) Process(s Sample) error {
	ev, err := p.Transform(s)
	if err != nil {
		return err
	}
	if p.emit == nil {
		return nil
	}
	return p.emit.Emit(p.name, ev)
}
