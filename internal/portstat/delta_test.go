package portstat

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelta(t *testing.T) {
	t.Run("counter grew", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			prev := rand.Uint64() >> 1
			cur := prev + rand.Uint64()>>1
			assert.Equal(t, cur-prev, Delta(prev, cur))
		}
	})
	t.Run("counter unchanged", func(t *testing.T) {
		assert.Equal(t, uint64(0), Delta(1000, 1000))
	})
	t.Run("counter reset", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			cur := rand.Uint64() >> 1
			prev := cur + 1 + rand.Uint64()>>2
			assert.Equal(t, cur, Delta(prev, cur))
		}
	})
	t.Run("reset is not read as a wraparound", func(t *testing.T) {
		assert.Equal(t, uint64(10), Delta(1000, 10))
		assert.Equal(t, uint64(0), Delta(math.MaxUint64, 0))
	})
}
