package aggregator

type LoopState int32

const (
	LOOP_STATE_IDLE LoopState = iota
	LOOP_STATE_SAMPLING
	LOOP_STATE_SUMMARIZING
	LOOP_STATE_STOPPED
)

func (s LoopState) String() string {
	switch s {
	case LOOP_STATE_IDLE:
		return "idle"
	case LOOP_STATE_SAMPLING:
		return "sampling"
	case LOOP_STATE_SUMMARIZING:
		return "summarizing"
	case LOOP_STATE_STOPPED:
		return "stopped"
	}
	return "unknown"
}

// LoopStats is a point-in-time view of the loop counters. Counters are
// cumulative since the loop was created.
type LoopStats struct {
	State            LoopState
	Ticks            uint64
	Summaries        uint64
	ReadErrors       uint64
	ConfigMismatches uint64
	SubmitErrors     uint64
	CacheSize        int
	CacheEvictions   uint64
}
