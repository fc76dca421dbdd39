package sensor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/soar/pdincr/internal/behavior"
)

// ReplaySource feeds recorded samples from JSON lines such as
//
//	{"dx": 3, "dy": -12, "dt": 8, "ts": 1700000000123}
//
// dt and ts are optional. Blank lines and lines starting with # are skipped.
type ReplaySource struct {
	open     func() (io.ReadCloser, error)
	realtime bool
	logger   *slog.Logger
}

// NewReplaySource replays the file at path. With realtime set, it waits dt
// milliseconds before each sample.
func NewReplaySource(path string, realtime bool, logger *slog.Logger) *ReplaySource {
	return &ReplaySource{
		open:     func() (io.ReadCloser, error) { return os.Open(path) },
		realtime: realtime,
		logger:   logger,
	}
}

// NewReplayReader replays samples from r.
func NewReplayReader(r io.Reader, realtime bool, logger *slog.Logger) *ReplaySource {
	return &ReplaySource{
		open:     func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
		realtime: realtime,
		logger:   logger,
	}
}

func (r *ReplaySource) Name() string { return "replay" }

// Run returns nil once every sample was delivered.
func (r *ReplaySource) Run(ctx context.Context, p Processor) error {
	rc, err := r.open()
	if err != nil {
		return fmt.Errorf("open replay: %w", err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	lineNo, count := 0, 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s, err := ParseSample(line)
		if err != nil {
			return fmt.Errorf("replay line %d: %w", lineNo, err)
		}

		if r.realtime && s.DT > 0 {
			timer := time.NewTimer(time.Duration(s.DT) * time.Millisecond)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if err := p.Process(s); err != nil {
			r.logger.Debug("Sample rejected", "line", lineNo, "error", err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read replay: %w", err)
	}
	r.logger.Info("Replay finished", "samples", count)
	return nil
}

// ParseSample decodes one JSON sample record. Deltas outside the int16 range
// saturate.
func ParseSample(line string) (behavior.Sample, error) {
	if !gjson.Valid(line) {
		return behavior.Sample{}, fmt.Errorf("invalid JSON")
	}
	res := gjson.Parse(line)
	if !res.IsObject() {
		return behavior.Sample{}, fmt.Errorf("sample must be an object")
	}
	dx, dy := res.Get("dx"), res.Get("dy")
	if !dx.Exists() || !dy.Exists() {
		return behavior.Sample{}, fmt.Errorf("sample needs dx and dy")
	}
	if dx.Type != gjson.Number || dy.Type != gjson.Number {
		return behavior.Sample{}, fmt.Errorf("dx and dy must be numbers")
	}
	return behavior.Sample{
		DX:        numberToInt16(dx),
		DY:        numberToInt16(dy),
		DT:        int(res.Get("dt").Int()),
		Timestamp: res.Get("ts").Int(),
	}, nil
}

// numberToInt16 saturates on the float value first. gjson's Int conversion of
// a huge non-integer literal such as 1e30 wraps to MinInt64.
func numberToInt16(r gjson.Result) int16 {
	f := r.Float()
	if f >= math.MaxInt16 {
		return math.MaxInt16
	}
	if f <= math.MinInt16 {
		return math.MinInt16
	}
	return int16(r.Int())
}
