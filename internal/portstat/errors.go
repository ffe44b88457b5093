package portstat

import "errors"

var (
	ErrConfigMismatch      = errors.New("the number of per-cpu values doesn't match the slots of the port sink")
	ErrNoSamples           = errors.New("no samples were observed in this direction")
	ErrUnknownDirection    = errors.New("the traffic direction is not known")
	ErrUnknownCumulantKind = errors.New("the cumulant kind is not known")
	ErrInvalidCPUCount     = errors.New("the cpu count must be positive")
)
