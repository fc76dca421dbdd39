package behavior

import (
	"fmt"
	"math"
)

// Remap applies the axis remapping flavor. Unknown flavors are rejected by
// Config.Validate; here they fall through to the identity mapping.
func Remap(dx, dy int16, f Flavor) (x, y int16) {
	switch f {
	case FlavorSwap:
		return dy, dx
	case FlavorXOnly:
		return dx, 0
	case FlavorYOnly:
		return 0, dy
	default:
		return dx, dy
	}
}

// Scale multiplies or divides (x, y) by factor. Results outside the int16
// range saturate. Division truncates toward zero.
func Scale(x, y int16, mode ScaleMode, factor int) (int16, int16, error) {
	f := clampFactor(factor)
	switch mode {
	case ScaleMultiplier:
		return saturate16(int64(x) * f), saturate16(int64(y) * f), nil
	case ScaleDivisor:
		if f == 0 {
			return 0, 0, ErrDivideByZero
		}
		return saturate16(int64(x) / f), saturate16(int64(y) / f), nil
	default:
		return 0, 0, fmt.Errorf("%w: %d", ErrUnsupportedScaleMode, int(mode))
	}
}

// clampFactor limits the factor to the int32 range so the int64 product with
// an int16 cannot overflow. Any factor that large saturates the result anyway.
func clampFactor(factor int) int64 {
	f := int64(factor)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return f
}

func saturate16(v int64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
