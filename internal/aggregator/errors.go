package aggregator

import "errors"

var (
	ErrCreatingLogger       = errors.New("failed to create a logger")
	ErrCreatingFlowCache    = errors.New("failed to create the flow cache")
	ErrGettingCPUCount      = errors.New("failed to get the number of possible cpus")
	ErrInvalidInterval      = errors.New("the sample interval must be positive and not longer than the summary interval")
	ErrCounterTableRequired = errors.New("both the ingress and the egress counter tables are required")
	ErrSummarySinkRequired  = errors.New("a summary sink is required")
	ErrLoopAlreadyRunning   = errors.New("the sample loop is already running")
	ErrReadingDirection     = errors.New("failed to read the counters of a direction")
	ErrSubmittingSummary    = errors.New("failed to submit a summary")
)
