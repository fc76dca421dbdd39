package sensor

import (
	"strings"

	"github.com/soar/pdincr/internal/behavior"
)

// Linux input event codes used by the evdev source.
const (
	evSyn     = 0x00
	evRel     = 0x02
	synReport = 0x00
	relX      = 0x00
	relY      = 0x01
)

var pointerKeywords = []string{
	"mouse",
	"trackball",
	"trackpoint",
	"touchpad",
	"expert mouse",
	"slimblade",
}

// isPointerDevice checks if a device name matches known pointing device patterns.
func isPointerDevice(deviceName string) bool {
	name := strings.ToLower(deviceName)
	for _, keyword := range pointerKeywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

// reportBuilder coalesces REL_X/REL_Y events into one sample per SYN_REPORT.
type reportBuilder struct {
	dx, dy   int64
	moved    bool
	lastUsec int64
}

// add consumes one input event. It returns a sample and true when a report
// with motion is complete.
func (b *reportBuilder) add(typ, code uint16, value int32, usec int64) (behavior.Sample, bool) {
	switch typ {
	case evRel:
		switch code {
		case relX:
			b.dx += int64(value)
			b.moved = true
		case relY:
			b.dy += int64(value)
			b.moved = true
		}
	case evSyn:
		if code != synReport || !b.moved {
			return behavior.Sample{}, false
		}
		s := behavior.Sample{
			DX:        clamp16(b.dx),
			DY:        clamp16(b.dy),
			Timestamp: usec / 1000,
		}
		if b.lastUsec != 0 {
			s.DT = int((usec - b.lastUsec) / 1000)
		}
		b.lastUsec = usec
		b.dx, b.dy, b.moved = 0, 0, false
		return s, true
	}
	return behavior.Sample{}, false
}
