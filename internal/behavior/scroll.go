package behavior

import (
	"fmt"
	"sync"
)

const (
	DefaultVerticalThreshold   = 40
	DefaultHorizontalThreshold = 40

	// MaxThreshold keeps one threshold step inside the int16 sample range.
	MaxThreshold = 1 << 15
)

// Quantizer turns a continuous scaled delta into discrete scroll ticks.
type Quantizer interface {
	Quantize(x, y int16) (int16, int16)
}

// ScrollState carries the residual displacement of each scroll axis between
// samples. Motion below a threshold is kept rather than dropped, and one tick
// is produced per full threshold crossed.
//
// A ScrollState is not safe for concurrent use; wrap it in a
// LockedScrollState when several pipelines share one.
type ScrollState struct {
	vertical   int32
	horizontal int32
	vThreshold int32
	hThreshold int32
}

// NewScrollState returns a zeroed state using the default thresholds.
func NewScrollState() *ScrollState {
	return &ScrollState{
		vThreshold: DefaultVerticalThreshold,
		hThreshold: DefaultHorizontalThreshold,
	}
}

// NewScrollStateWithThresholds returns a zeroed state with custom thresholds.
func NewScrollStateWithThresholds(vertical, horizontal int) (*ScrollState, error) {
	if vertical <= 0 || horizontal <= 0 || vertical > MaxThreshold || horizontal > MaxThreshold {
		return nil, fmt.Errorf("%w: vertical=%d horizontal=%d", ErrInvalidThreshold, vertical, horizontal)
	}
	return &ScrollState{
		vThreshold: int32(vertical),
		hThreshold: int32(horizontal),
	}, nil
}

// Quantize feeds one sample into the accumulator and returns the scroll steps
// it produced. Vertical scrolling is favoured: the sample counts as vertical
// when |y|*2 > |x|, and only the dominant axis's counter moves.
func (s *ScrollState) Quantize(x, y int16) (int16, int16) {
	var repV, repH int32

	if abs32(int32(y))*2 > abs32(int32(x)) {
		s.vertical += int32(y)
		repV = drain(&s.vertical, s.vThreshold)
	} else {
		s.horizontal += int32(x)
		repH = drain(&s.horizontal, s.hThreshold)
	}

	// vertical output polarity is flipped relative to horizontal
	return saturate16(int64(repH / s.hThreshold)), saturate16(int64(-repV / s.vThreshold))
}

// drain pulls the counter back inside [-t, t] one threshold at a time. The
// returned step total has the opposite sign of the displacement drained.
func drain(counter *int32, t int32) int32 {
	var rep int32
	for abs32(*counter) > t {
		if *counter < 0 {
			*counter += t
			rep += t
		} else {
			*counter -= t
			rep -= t
		}
	}
	return rep
}

// Counters returns the current residuals.
func (s *ScrollState) Counters() (vertical, horizontal int32) {
	return s.vertical, s.horizontal
}

// Thresholds returns the configured per-axis thresholds.
func (s *ScrollState) Thresholds() (vertical, horizontal int32) {
	return s.vThreshold, s.hThreshold
}

// LockedScrollState is a ScrollState shared by several pipelines. Samples
// from different pipelines interleave in one accumulator.
type LockedScrollState struct {
	mu    sync.Mutex
	state *ScrollState
}

func NewLockedScrollState(s *ScrollState) *LockedScrollState {
	return &LockedScrollState{state: s}
}

func (l *LockedScrollState) Quantize(x, y int16) (int16, int16) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Quantize(x, y)
}

func (l *LockedScrollState) Counters() (vertical, horizontal int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Counters()
}
