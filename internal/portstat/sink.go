package portstat

import (
	"time"

	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/common"
	"gonum.org/v1/gonum/stat"
	"k8s.io/utils/clock"
)

type directionStat struct {
	// total bytes since the last reset
	total structs.ByteTotal
	// raw counter values seen on the previous sample, one per cpu
	prev        []uint64
	percentiles *percentileEstimator
}

func newDirectionStat(cpuCount int, kind stat.CumulantKind) directionStat {
	return directionStat{
		prev:        make([]uint64, cpuCount),
		percentiles: newPercentileEstimator(kind),
	}
}

func (d *directionStat) aggregate(values []uint64) error {
	if len(values) != len(d.prev) {
		return ErrConfigMismatch
	}
	var sampleTotal uint64
	for i, v := range values {
		sampleTotal += Delta(d.prev[i], v)
		d.prev[i] = v
	}
	d.total = d.total.Add(sampleTotal)
	d.percentiles.add(float64(sampleTotal))
	return nil
}

func (d *directionStat) summary() structs.DirectionSummary {
	s := structs.DirectionSummary{
		Total:   d.total,
		Samples: d.percentiles.len(),
	}
	// an idle direction is summarized as zeros
	if p, err := d.percentiles.percentiles(); err == nil {
		s.Percentiles = p
	}
	return s
}

// reset keeps prev: the previous-value ledger is independent of summary intervals.
func (d *directionStat) reset() {
	d.total = structs.ByteTotal{}
	d.percentiles.reset()
}

// PortSink holds the running statistics of one (possibly collapsed) port for
// both directions. It is owned by a single goroutine.
type PortSink struct {
	port          uint16
	intervalStart time.Time
	clock         clock.PassiveClock
	rx            directionStat
	tx            directionStat
}

func NewPortSink(port uint16, cpuCount int, kind stat.CumulantKind, clk clock.PassiveClock) *PortSink {
	return &PortSink{
		port:          port,
		intervalStart: clk.Now(),
		clock:         clk,
		rx:            newDirectionStat(cpuCount, kind),
		tx:            newDirectionStat(cpuCount, kind),
	}
}

func (s *PortSink) Port() uint16 {
	return s.port
}

func (s *PortSink) IntervalStart() time.Time {
	return s.intervalStart
}

// Slots is the number of per-cpu values every sample must carry.
func (s *PortSink) Slots() int {
	return len(s.rx.prev)
}

// Aggregate folds one sample of raw per-cpu counters into the direction's
// statistics. It must run at most once per direction per sample tick.
func (s *PortSink) Aggregate(dir common.TrafficDirection, values []uint64) error {
	d, err := s.direction(dir)
	if err != nil {
		return err
	}
	return d.aggregate(values)
}

func (s *PortSink) HasTraffic() bool {
	return !s.rx.total.IsZero() || !s.tx.total.IsZero()
}

// Summary reports the interval so far. With reset, both directions are cleared
// and a new interval starts in the same step.
func (s *PortSink) Summary(reset bool) structs.Summary {
	now := s.clock.Now()
	summary := structs.Summary{
		Port:          s.port,
		IntervalStart: s.intervalStart,
		IntervalEnd:   now,
		Rx:            s.rx.summary(),
		Tx:            s.tx.summary(),
	}
	if reset {
		s.resetAt(now)
	}
	return summary
}

// Reset restarts the interval without producing a summary.
func (s *PortSink) Reset() {
	s.resetAt(s.clock.Now())
}

func (s *PortSink) resetAt(now time.Time) {
	s.intervalStart = now
	s.rx.reset()
	s.tx.reset()
}

func (s *PortSink) direction(dir common.TrafficDirection) (*directionStat, error) {
	switch dir {
	case common.TRAFFIC_DIR_INGRESS:
		return &s.rx, nil
	case common.TRAFFIC_DIR_EGRESS:
		return &s.tx, nil
	}
	return nil, ErrUnknownDirection
}
