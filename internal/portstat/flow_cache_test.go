package portstat

import (
	"testing"
	"time"

	"github.com/dinoallo/sealos-nm-bytecount/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func newTestingFlowCache(t *testing.T, size int) *FlowCache {
	cfg := NewFlowCacheConfig()
	cfg.EntrySize = size
	fc, err := NewFlowCache(cfg, clocktesting.NewFakeClock(time.Unix(1700000000, 0)))
	require.NoError(t, err)
	return fc
}

func TestFlowCache(t *testing.T) {
	fc := newTestingFlowCache(t, 3)
	t.Run("create and load", func(t *testing.T) {
		sink := fc.GetOrCreate(443, 2)
		assert.Equal(t, uint16(443), sink.Port())
		assert.Equal(t, 2, sink.Slots())
		require.NoError(t, sink.Aggregate(ingress, []uint64{1, 1}))
		again := fc.GetOrCreate(443, 2)
		assert.Same(t, sink, again)
		assert.Equal(t, 1, fc.Len())
	})
	t.Run("least recently used is evicted", func(t *testing.T) {
		fc.GetOrCreate(80, 2)
		fc.GetOrCreate(22, 2)
		// 443 becomes the most recently used
		fc.GetOrCreate(443, 2)
		fc.GetOrCreate(53, 2)
		assert.Equal(t, 3, fc.Len())
		assert.Equal(t, uint64(1), fc.Evictions())
		var ports []uint16
		fc.Range(func(port uint16, _ *PortSink) {
			ports = append(ports, port)
		})
		assert.ElementsMatch(t, []uint16{22, 443, 53}, ports)
	})
	t.Run("an evicted port starts over", func(t *testing.T) {
		sink := fc.GetOrCreate(80, 2)
		assert.False(t, sink.HasTraffic())
		assert.Equal(t, uint64(2), fc.Evictions())
	})
	t.Run("remove", func(t *testing.T) {
		assert.True(t, fc.Remove(80))
		assert.False(t, fc.Remove(80))
		assert.Equal(t, 2, fc.Len())
	})
}

func TestFlowCacheBound(t *testing.T) {
	fc := newTestingFlowCache(t, 1000)
	for port := 1; port <= 5000; port++ {
		fc.GetOrCreate(uint16(port), 1)
		if !assert.LessOrEqual(t, fc.Len(), 1000) {
			t.FailNow()
		}
	}
	assert.Equal(t, uint64(4000), fc.Evictions())
	visited := 0
	fc.Range(func(port uint16, _ *PortSink) {
		assert.Greater(t, port, uint16(4000))
		visited++
	})
	assert.Equal(t, 1000, visited)
}

func TestSharedEphemeralBucket(t *testing.T) {
	fc := newTestingFlowCache(t, 10)
	c := NewPortCollapser()
	a := fc.GetOrCreate(c.Collapse(54321), 1)
	b := fc.GetOrCreate(c.Collapse(49152), 1)
	assert.Same(t, a, b)
	assert.Equal(t, EphemeralBucket, a.Port())
	assert.Equal(t, 1, fc.Len())
}

func TestInvalidFlowCacheSize(t *testing.T) {
	cfg := NewFlowCacheConfig()
	cfg.EntrySize = 0
	_, err := NewFlowCache(cfg, clocktesting.NewFakeClock(time.Now()))
	assert.ErrorIs(t, err, cache.ErrInvalidEntrySize)
}
