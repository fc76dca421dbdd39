// Package sensor produces raw relative motion samples from a pointing device
// and feeds them, one at a time, to a behavior processor.
package sensor

import (
	"context"
	"errors"
	"math"

	"github.com/soar/pdincr/internal/behavior"
)

var (
	ErrUnsupportedPlatform = errors.New("source not supported on this platform")
	ErrNoDevice            = errors.New("no pointing device found")
)

// Processor consumes samples. behavior.Router and behavior.Pipeline both
// satisfy it.
type Processor interface {
	Process(behavior.Sample) error
}

// Source delivers samples to a Processor until ctx is done or input ends.
// Process is never called concurrently by a single Source.
type Source interface {
	Name() string
	Run(ctx context.Context, p Processor) error
}

func clamp16(v int64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
