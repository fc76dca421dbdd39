package behavior

import (
	"fmt"
	"strings"
)

// Mode selects the output event shape and whether scroll quantization applies.
type Mode int

const (
	ModeMove Mode = iota
	ModeScroll
)

func (m Mode) String() string {
	switch m {
	case ModeMove:
		return "move"
	case ModeScroll:
		return "scroll"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Flavor is the axis remapping policy applied before scaling.
type Flavor int

const (
	FlavorDefault Flavor = iota
	FlavorSwap
	FlavorXOnly
	FlavorYOnly
)

func (f Flavor) String() string {
	switch f {
	case FlavorDefault:
		return "default"
	case FlavorSwap:
		return "swap"
	case FlavorXOnly:
		return "x_only"
	case FlavorYOnly:
		return "y_only"
	default:
		return fmt.Sprintf("flavor(%d)", int(f))
	}
}

// ScaleMode chooses whether ScaleFactor multiplies or divides the remapped delta.
type ScaleMode int

const (
	ScaleMultiplier ScaleMode = iota
	ScaleDivisor
)

func (s ScaleMode) String() string {
	switch s {
	case ScaleMultiplier:
		return "multiplier"
	case ScaleDivisor:
		return "divisor"
	default:
		return fmt.Sprintf("scale_mode(%d)", int(s))
	}
}

// ParseMode converts a configuration string ("move", "scroll") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch normalize(s) {
	case "move":
		return ModeMove, nil
	case "scroll":
		return ModeScroll, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
}

// ParseFlavor converts a configuration string to a Flavor. An empty string is
// the default flavor.
func ParseFlavor(s string) (Flavor, error) {
	switch normalize(s) {
	case "", "default":
		return FlavorDefault, nil
	case "swap":
		return FlavorSwap, nil
	case "x_only":
		return FlavorXOnly, nil
	case "y_only":
		return FlavorYOnly, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFlavor, s)
}

// ParseScaleMode converts a configuration string to a ScaleMode. "divider" is
// accepted as an alias of "divisor".
func ParseScaleMode(s string) (ScaleMode, error) {
	switch normalize(s) {
	case "", "multiplier":
		return ScaleMultiplier, nil
	case "divisor", "divider":
		return ScaleDivisor, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedScaleMode, s)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "-", "_")
}

// Config is the immutable per-instance behavior configuration.
type Config struct {
	Mode        Mode
	Flavor      Flavor
	ScaleMode   ScaleMode
	ScaleFactor int
	// Smoothing is reserved for a future motion filter and currently has no
	// effect on the transform.
	Smoothing bool
}

// Validate reports the first configuration problem that would make every
// sample fail or be remapped silently.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeMove, ModeScroll:
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedMode, int(c.Mode))
	}
	switch c.Flavor {
	case FlavorDefault, FlavorSwap, FlavorXOnly, FlavorYOnly:
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedFlavor, int(c.Flavor))
	}
	switch c.ScaleMode {
	case ScaleMultiplier:
	case ScaleDivisor:
		if c.ScaleFactor == 0 {
			return ErrDivideByZero
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedScaleMode, int(c.ScaleMode))
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("mode=%s flavor=%s %s=%d smoothing=%t",
		c.Mode, c.Flavor, c.ScaleMode, c.ScaleFactor, c.Smoothing)
}
