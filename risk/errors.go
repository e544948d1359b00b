package risk

import "errors"

var (
	ErrInvalidLimits = errors.New("limits must be positive")
	ErrInventoryFull = errors.New("inventory limit reached")
	ErrExposureFull  = errors.New("exposure limit reached")
)
