package behavior

import (
	"errors"
	"math"
	"testing"
)

func TestRemap(t *testing.T) {
	cases := []struct {
		flavor Flavor
		wantX  int16
		wantY  int16
	}{
		{FlavorDefault, 5, -3},
		{FlavorSwap, -3, 5},
		{FlavorXOnly, 5, 0},
		{FlavorYOnly, 0, -3},
		{Flavor(42), 5, -3},
	}
	for _, c := range cases {
		x, y := Remap(5, -3, c.flavor)
		if x != c.wantX || y != c.wantY {
			t.Errorf("%s: got (%d, %d), want (%d, %d)", c.flavor, x, y, c.wantX, c.wantY)
		}
	}
}

func TestScale(t *testing.T) {
	cases := []struct {
		name   string
		x, y   int16
		mode   ScaleMode
		factor int
		wantX  int16
		wantY  int16
	}{
		{"multiply", 2, -4, ScaleMultiplier, 3, 6, -12},
		{"multiply by one", 10, -2, ScaleMultiplier, 1, 10, -2},
		{"divide truncates toward zero", 7, -7, ScaleDivisor, 2, 3, -3},
		{"negative divisor", 9, -9, ScaleDivisor, -4, -2, 2},
		{"multiply saturates", 100, -100, ScaleMultiplier, 1000, math.MaxInt16, math.MinInt16},
		{"huge factor saturates", 1, -1, ScaleMultiplier, math.MaxInt, math.MaxInt16, math.MinInt16},
		{"min over minus one saturates", math.MinInt16, 5, ScaleDivisor, -1, math.MaxInt16, -5},
	}
	for _, c := range cases {
		x, y, err := Scale(c.x, c.y, c.mode, c.factor)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if x != c.wantX || y != c.wantY {
			t.Errorf("%s: got (%d, %d), want (%d, %d)", c.name, x, y, c.wantX, c.wantY)
		}
	}
}

func TestScaleDivideByZero(t *testing.T) {
	_, _, err := Scale(7, -7, ScaleDivisor, 0)
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expect ErrDivideByZero, got %v", err)
	}
}

func TestScaleUnsupportedMode(t *testing.T) {
	_, _, err := Scale(1, 1, ScaleMode(9), 2)
	if !errors.Is(err, ErrUnsupportedScaleMode) {
		t.Fatalf("expect ErrUnsupportedScaleMode, got %v", err)
	}
}

func TestParseEnums(t *testing.T) {
	if m, err := ParseMode(" Scroll "); err != nil || m != ModeScroll {
		t.Fatalf("ParseMode: got %v, %v", m, err)
	}
	if _, err := ParseMode("drag"); !errors.Is(err, ErrUnsupportedMode) {
		t.Fatalf("ParseMode(drag): got %v", err)
	}
	if f, err := ParseFlavor("x-only"); err != nil || f != FlavorXOnly {
		t.Fatalf("ParseFlavor: got %v, %v", f, err)
	}
	if f, err := ParseFlavor(""); err != nil || f != FlavorDefault {
		t.Fatalf("ParseFlavor(empty): got %v, %v", f, err)
	}
	if _, err := ParseFlavor("diagonal"); !errors.Is(err, ErrUnsupportedFlavor) {
		t.Fatalf("ParseFlavor(diagonal): got %v", err)
	}
	if s, err := ParseScaleMode("DIVIDER"); err != nil || s != ScaleDivisor {
		t.Fatalf("ParseScaleMode: got %v, %v", s, err)
	}
	if _, err := ParseScaleMode("log"); !errors.Is(err, ErrUnsupportedScaleMode) {
		t.Fatalf("ParseScaleMode(log): got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"move", Config{Mode: ModeMove, ScaleFactor: 1}, nil},
		{"scroll divisor", Config{Mode: ModeScroll, ScaleMode: ScaleDivisor, ScaleFactor: 3}, nil},
		{"bad mode", Config{Mode: Mode(5), ScaleFactor: 1}, ErrUnsupportedMode},
		{"bad flavor", Config{Flavor: Flavor(5), ScaleFactor: 1}, ErrUnsupportedFlavor},
		{"bad scale mode", Config{ScaleMode: ScaleMode(5), ScaleFactor: 1}, ErrUnsupportedScaleMode},
		{"zero divisor", Config{ScaleMode: ScaleDivisor}, ErrDivideByZero},
	}
	for _, c := range cases {
		err := c.cfg.Validate()
		if c.want == nil && err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
		if c.want != nil && !errors.Is(err, c.want) {
			t.Errorf("%s: expect %v, got %v", c.name, c.want, err)
		}
	}
}
