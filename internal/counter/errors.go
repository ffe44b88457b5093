package counter

import "errors"

var (
	ErrReadingCounterTable = errors.New("failed to read the counter table")
	ErrLookingUpCounter    = errors.New("failed to look up the counter of a port")
	ErrCounterTableInvalid = errors.New("a valid per-cpu counter table is required")
)
