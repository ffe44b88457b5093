package structs

import "time"

// Percentiles of the per-sample byte totals observed during an interval
type Percentiles struct {
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	P90  float64 `json:"p90"`
	P100 float64 `json:"p100"`
}

type DirectionSummary struct {
	Total ByteTotal `json:"total"`
	// Samples is the number of sample ticks observed in the interval
	Samples int `json:"samples"`
	Percentiles
}

// Summary of one port over one summary interval.
type Summary struct {
	Port          uint16           `json:"port"`
	IntervalStart time.Time        `json:"interval_start"`
	IntervalEnd   time.Time        `json:"interval_end"`
	Rx            DirectionSummary `json:"rx"`
	Tx            DirectionSummary `json:"tx"`
}
