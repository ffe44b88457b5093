package summary

import "errors"

var (
	ErrCreatingLogger = errors.New("failed to create a logger")
)
