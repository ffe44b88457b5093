package cache

import "errors"

var (
	ErrInvalidEntrySize = errors.New("the entry size of a cache must be positive")
)
