package sensor

import "math"

// AxisMapping defines which raw joystick axis drives one pointer axis.
type AxisMapping struct {
	Index  int32
	Invert bool
}

// DeviceMapping holds the pointer stick layout for a specific device type.
type DeviceMapping struct {
	Name string
	X    AxisMapping
	Y    AxisMapping
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

// ApplyDeadzone returns 0 if the value is within the deadzone threshold.
func ApplyDeadzone(v float64, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

// StickDelta turns one poll of the pointer stick into relative motion. Full
// deflection moves speed counts per poll.
func StickDelta(rawX, rawY int16, m *DeviceMapping, speed float64) (dx, dy int16) {
	x := ApplyDeadzone(NormalizeAxis(rawX), deadzone)
	y := ApplyDeadzone(NormalizeAxis(rawY), deadzone)
	if m.X.Invert {
		x = -x
	}
	if m.Y.Invert {
		y = -y
	}
	return clamp16(int64(math.Round(x * speed))), clamp16(int64(math.Round(y * speed)))
}

// Built-in mappings for common controllers. The right stick drives the
// pointer; raw Y already grows downward like screen coordinates.

var xboxMapping = &DeviceMapping{
	Name: "xbox",
	X:    AxisMapping{Index: 2},
	Y:    AxisMapping{Index: 3},
}

var playstationMapping = &DeviceMapping{
	Name: "playstation",
	X:    AxisMapping{Index: 2},
	Y:    AxisMapping{Index: 5},
}

var switchProMapping = &DeviceMapping{
	Name: "switch_pro",
	X:    AxisMapping{Index: 2},
	Y:    AxisMapping{Index: 3},
}

var genericMapping = &DeviceMapping{
	Name: "generic",
	X:    AxisMapping{Index: 2},
	Y:    AxisMapping{Index: 3},
}

// Known vendor/product IDs.
type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping, // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping, // DualShock 4 v1
	// Nintendo Switch Pro Controller
	{0x057E, 0x2009}: switchProMapping,
}

// GetMapping returns the appropriate mapping for a device identified by vendor/product ID.
// Falls back to generic mapping if no specific mapping is found.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	key := deviceKey{VendorID: vendorID, ProductID: productID}
	if m, ok := knownDevices[key]; ok {
		return m
	}
	return genericMapping
}
