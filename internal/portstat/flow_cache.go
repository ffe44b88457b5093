package portstat

import (
	"github.com/dinoallo/sealos-nm-bytecount/pkg/cache"
	"gonum.org/v1/gonum/stat"
	"k8s.io/utils/clock"
)

type FlowCacheConfig struct {
	cache.CacheConfig
	// CumulantKind is the quantile definition used by every sink
	CumulantKind stat.CumulantKind
}

func NewFlowCacheConfig() FlowCacheConfig {
	return FlowCacheConfig{
		CacheConfig:  cache.NewCacheConfig(),
		CumulantKind: stat.LinInterp,
	}
}

// FlowCache maps ports to their sinks with least-recently-used eviction.
// Evicted sinks are dropped with whatever they accumulated since their last summary.
type FlowCache struct {
	cfg   FlowCacheConfig
	clock clock.PassiveClock
	sinks *cache.Cache[uint16, *PortSink]
}

func NewFlowCache(cfg FlowCacheConfig, clk clock.PassiveClock) (*FlowCache, error) {
	sinks, err := cache.NewCache[uint16, *PortSink](cfg.CacheConfig, nil)
	if err != nil {
		return nil, err
	}
	return &FlowCache{
		cfg:   cfg,
		clock: clk,
		sinks: sinks,
	}, nil
}

// GetOrCreate returns the sink of port, creating one with cpuCount zeroed
// counter slots on first sight.
func (c *FlowCache) GetOrCreate(port uint16, cpuCount int) *PortSink {
	sink, _ := c.sinks.GetOrCreate(port, func() *PortSink {
		return NewPortSink(port, cpuCount, c.cfg.CumulantKind, c.clock)
	})
	return sink
}

// Range visits every resident sink once, least recently used first.
func (c *FlowCache) Range(fn func(port uint16, sink *PortSink)) {
	c.sinks.Range(func(port uint16, sink *PortSink) bool {
		fn(port, sink)
		return true
	})
}

func (c *FlowCache) Remove(port uint16) bool {
	return c.sinks.Remove(port)
}

func (c *FlowCache) Len() int {
	return c.sinks.Len()
}

func (c *FlowCache) Evictions() uint64 {
	return c.sinks.Evictions()
}
