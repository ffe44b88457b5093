package aggregator

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cilium/ebpf"
	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
	"github.com/dinoallo/sealos-nm-bytecount/internal/portstat"
	"github.com/dinoallo/sealos-nm-bytecount/modules"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/common"
	errutil "github.com/dinoallo/sealos-nm-bytecount/pkg/errors/util"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/log"
	"k8s.io/utils/clock"
)

type SampleLoopConfig struct {
	SampleInterval  time.Duration
	SummaryInterval time.Duration
	// CPUCount is the number of per-cpu values expected in every counter; 0 asks
	// the kernel. Sinks are sized from the values actually read, a differing
	// count is only reported.
	CPUCount int
	portstat.FlowCacheConfig
	portstat.PortCollapser
}

func NewSampleLoopConfig() SampleLoopConfig {
	return SampleLoopConfig{
		SampleInterval:  20 * time.Millisecond,
		SummaryInterval: time.Second,
		CPUCount:        0,
		FlowCacheConfig: portstat.NewFlowCacheConfig(),
		PortCollapser:   portstat.NewPortCollapser(),
	}
}

type SampleLoopParams struct {
	ParentLogger log.Logger
	SampleLoopConfig
	Ingress modules.CounterTable
	Egress  modules.CounterTable
	modules.SummarySink
	// Clock defaults to the wall clock
	Clock clock.WithTicker
}

// SampleLoop owns the flow cache: it samples both counter tables on every
// tick and, once a summary interval has elapsed, hands the summaries of all
// active ports to the summary sink.
type SampleLoop struct {
	logger      log.Logger
	clock       clock.WithTicker
	cpuCount    int
	flows       *portstat.FlowCache
	lastSummary time.Time
	// set once a counter with an unexpected number of values was reported
	slotsWarned bool
	running     atomic.Bool

	state            atomic.Int32
	ticks            atomic.Uint64
	summaries        atomic.Uint64
	readErrors       atomic.Uint64
	configMismatches atomic.Uint64
	submitErrors     atomic.Uint64
	cacheSize        atomic.Int64
	cacheEvictions   atomic.Uint64

	SampleLoopParams
}

func NewSampleLoop(params SampleLoopParams) (*SampleLoop, error) {
	logger, err := params.ParentLogger.WithCompName("sample_loop")
	if err != nil {
		return nil, errutil.Err(ErrCreatingLogger, err)
	}
	if params.Ingress == nil || params.Egress == nil {
		return nil, ErrCounterTableRequired
	}
	if params.SummarySink == nil {
		return nil, ErrSummarySinkRequired
	}
	if params.SampleInterval <= 0 || params.SummaryInterval < params.SampleInterval {
		return nil, ErrInvalidInterval
	}
	cpuCount := params.CPUCount
	if cpuCount == 0 {
		if cpuCount, err = ebpf.PossibleCPU(); err != nil {
			return nil, errutil.Err(ErrGettingCPUCount, err)
		}
	}
	if cpuCount < 0 {
		return nil, portstat.ErrInvalidCPUCount
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	flows, err := portstat.NewFlowCache(params.FlowCacheConfig, clk)
	if err != nil {
		return nil, errutil.Err(ErrCreatingFlowCache, err)
	}
	return &SampleLoop{
		logger:           logger,
		clock:            clk,
		cpuCount:         cpuCount,
		flows:            flows,
		lastSummary:      clk.Now(),
		SampleLoopParams: params,
	}, nil
}

// Run samples on every tick until ctx is done. A tick in progress is always
// completed; the context is only checked between ticks.
func (l *SampleLoop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopAlreadyRunning
	}
	defer l.running.Store(false)
	ticker := l.clock.NewTicker(l.SampleInterval)
	defer ticker.Stop()
	l.lastSummary = l.clock.Now()
	l.setState(LOOP_STATE_SAMPLING)
	l.logger.Infof("sampling every %v, summarizing every %v over %v cpus", l.SampleInterval, l.SummaryInterval, l.cpuCount)
	for {
		select {
		case <-ctx.Done():
			l.setState(LOOP_STATE_STOPPED)
			l.logger.Info("sample loop stopped")
			return nil
		case <-ticker.C():
			l.tick(ctx)
		}
	}
}

func (l *SampleLoop) Stats() LoopStats {
	return LoopStats{
		State:            LoopState(l.state.Load()),
		Ticks:            l.ticks.Load(),
		Summaries:        l.summaries.Load(),
		ReadErrors:       l.readErrors.Load(),
		ConfigMismatches: l.configMismatches.Load(),
		SubmitErrors:     l.submitErrors.Load(),
		CacheSize:        int(l.cacheSize.Load()),
		CacheEvictions:   l.cacheEvictions.Load(),
	}
}

func (l *SampleLoop) CPUCount() int {
	return l.cpuCount
}

func (l *SampleLoop) tick(ctx context.Context) {
	l.sampleAll()
	if now := l.clock.Now(); now.Sub(l.lastSummary) >= l.SummaryInterval {
		l.setState(LOOP_STATE_SUMMARIZING)
		l.summarize(ctx)
		l.lastSummary = now
		l.setState(LOOP_STATE_SAMPLING)
	}
	l.updateCacheStats()
	l.ticks.Add(1)
}

// sampleAll reads egress before ingress.
func (l *SampleLoop) sampleAll() {
	l.sample(common.TRAFFIC_DIR_EGRESS, l.Egress)
	l.sample(common.TRAFFIC_DIR_INGRESS, l.Ingress)
}

func (l *SampleLoop) sample(dir common.TrafficDirection, table modules.CounterTable) {
	// raw ports collapsing into one bucket are merged so the bucket is
	// aggregated once per tick
	merged := make(map[uint16][]uint64)
	var order []uint16
	// a bucket missing one of its ports this tick is not aggregated: its sum
	// would fall below the previous one and read as a counter reset
	incomplete := make(map[uint16]struct{})
	readCounter := func(c structs.PortCounter, err error) {
		bucket := l.Collapse(c.Port)
		if err != nil {
			l.readErrors.Add(1)
			incomplete[bucket] = struct{}{}
			l.logger.Debugf("skipping the %v counter of port %v: %v", dir, c.Port, err)
			return
		}
		values, ok := merged[bucket]
		if !ok {
			merged[bucket] = append([]uint64(nil), c.Values...)
			order = append(order, bucket)
			return
		}
		if len(values) != len(c.Values) {
			l.configMismatches.Add(1)
			incomplete[bucket] = struct{}{}
			l.logger.Warnf("port %v carries %v per-cpu values while bucket %v carries %v; skipping the bucket", c.Port, len(c.Values), bucket, len(values))
			return
		}
		for i, v := range c.Values {
			values[i] += v
		}
	}
	if err := table.ForEach(readCounter); err != nil {
		l.readErrors.Add(1)
		l.logger.Error(errutil.Err(ErrReadingDirection, err))
		return
	}
	for _, port := range order {
		if _, skip := incomplete[port]; skip {
			continue
		}
		values := merged[port]
		l.checkSlots(len(values))
		sink := l.flows.GetOrCreate(port, len(values))
		err := sink.Aggregate(dir, values)
		if err == nil {
			continue
		}
		if errors.Is(err, portstat.ErrConfigMismatch) {
			// the sink is recreated with the new size on the next observation
			l.configMismatches.Add(1)
			l.flows.Remove(port)
			l.logger.Warnf("port %v: %v (got %v values, expected %v)", port, err, len(values), sink.Slots())
			continue
		}
		l.logger.Errorf("failed to aggregate the %v counter of port %v: %v", dir, port, err)
	}
}

func (l *SampleLoop) checkSlots(slots int) {
	if slots == l.cpuCount || l.slotsWarned {
		return
	}
	l.slotsWarned = true
	l.logger.Warnf("the counters carry %v per-cpu values but %v cpus are configured; following the counters", slots, l.cpuCount)
}

// summarize emits every port with traffic and resets idle ones. A failed
// submission is logged and the pass goes on.
func (l *SampleLoop) summarize(ctx context.Context) {
	l.flows.Range(func(port uint16, sink *portstat.PortSink) {
		if !sink.HasTraffic() {
			sink.Reset()
			return
		}
		summary := sink.Summary(true)
		if err := l.Submit(ctx, summary); err != nil {
			l.submitErrors.Add(1)
			l.logger.Errorf("port %v: %v", port, errutil.Err(ErrSubmittingSummary, err))
			return
		}
		l.summaries.Add(1)
	})
}

func (l *SampleLoop) updateCacheStats() {
	l.cacheSize.Store(int64(l.flows.Len()))
	l.cacheEvictions.Store(l.flows.Evictions())
}

func (l *SampleLoop) setState(s LoopState) {
	l.state.Store(int32(s))
}
