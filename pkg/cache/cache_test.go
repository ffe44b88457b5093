package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Key   uint16
	Value uint64
}

func newEntryCache(t *testing.T, size int, evicted *[]uint16) *Cache[uint16, *entry] {
	cfg := NewCacheConfig()
	cfg.EntrySize = size
	onEvict := func(key uint16, _ *entry) {
		*evicted = append(*evicted, key)
	}
	c, err := NewCache[uint16, *entry](cfg, onEvict)
	require.NoError(t, err)
	return c
}

func createFor(key uint16) func() *entry {
	return func() *entry {
		return &entry{Key: key}
	}
}

func TestLoadingOrCreating(t *testing.T) {
	var evicted []uint16
	c := newEntryCache(t, 4, &evicted)
	var created *entry
	t.Run("create an entry", func(t *testing.T) {
		var loaded bool
		created, loaded = c.GetOrCreate(443, createFor(443))
		assert.False(t, loaded)
		assert.Equal(t, uint16(443), created.Key)
	})
	t.Run("load the same entry", func(t *testing.T) {
		created.Value = 42
		e, loaded := c.GetOrCreate(443, createFor(443))
		assert.True(t, loaded)
		assert.Same(t, created, e)
		assert.Equal(t, uint64(42), e.Value)
	})
	t.Run("remove the entry", func(t *testing.T) {
		assert.True(t, c.Remove(443))
		assert.Equal(t, 0, c.Len())
		assert.Empty(t, evicted)
	})
}

func TestBoundedSize(t *testing.T) {
	var evicted []uint16
	size := 3
	c := newEntryCache(t, size, &evicted)
	for port := uint16(1); port <= 10; port++ {
		c.GetOrCreate(port, createFor(port))
		assert.LessOrEqual(t, c.Len(), size)
	}
	assert.Equal(t, size, c.Len())
	assert.Equal(t, []uint16{1, 2, 3, 4, 5, 6, 7}, evicted)
	assert.Equal(t, uint64(7), c.Evictions())
}

func TestLeastRecentlyUsedIsEvicted(t *testing.T) {
	var evicted []uint16
	c := newEntryCache(t, 3, &evicted)
	c.GetOrCreate(22, createFor(22))
	c.GetOrCreate(80, createFor(80))
	c.GetOrCreate(443, createFor(443))
	t.Run("a lookup refreshes recency", func(t *testing.T) {
		_, loaded := c.GetOrCreate(22, createFor(22))
		assert.True(t, loaded)
		c.GetOrCreate(5432, createFor(5432))
		assert.Equal(t, []uint16{80}, evicted)
	})
	t.Run("peek and range leave recency alone", func(t *testing.T) {
		_, ok := c.Peek(443)
		assert.True(t, ok)
		var order []uint16
		c.Range(func(key uint16, _ *entry) bool {
			order = append(order, key)
			return true
		})
		assert.Equal(t, []uint16{443, 22, 5432}, order)
		c.GetOrCreate(3306, createFor(3306))
		assert.Equal(t, []uint16{80, 443}, evicted)
	})
	t.Run("range stops early", func(t *testing.T) {
		visited := 0
		c.Range(func(uint16, *entry) bool {
			visited++
			return false
		})
		assert.Equal(t, 1, visited)
	})
}

func TestInvalidSize(t *testing.T) {
	cfg := NewCacheConfig()
	cfg.EntrySize = 0
	_, err := NewCache[uint16, *entry](cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidEntrySize)
}
