package behavior

import "errors"

var (
	ErrUnsupportedMode      = errors.New("unsupported work mode")
	ErrUnsupportedScaleMode = errors.New("unsupported scale mode")
	ErrUnsupportedFlavor    = errors.New("unsupported flavor")
	ErrDivideByZero         = errors.New("scale divisor is zero")
	ErrInvalidThreshold     = errors.New("scroll threshold out of range")
	ErrUnknownBinding       = errors.New("unknown binding")
)
