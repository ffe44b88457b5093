package structs

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteTotal(t *testing.T) {
	t.Run("small totals", func(t *testing.T) {
		total := NewByteTotal(150).Add(50)
		assert.Equal(t, uint64(200), total.Uint64())
		assert.Equal(t, "200", total.String())
		assert.False(t, total.IsZero())
		assert.True(t, ByteTotal{}.IsZero())
	})
	t.Run("carry into the high word", func(t *testing.T) {
		total := NewByteTotal(math.MaxUint64).Add(1)
		assert.Equal(t, ByteTotal{Hi: 1, Lo: 0}, total)
		assert.Equal(t, "18446744073709551616", total.String())
		assert.Equal(t, uint64(math.MaxUint64), total.Uint64())
		assert.InDelta(t, 1.8446744073709552e19, total.Float64(), 1e4)
	})
	t.Run("add totals", func(t *testing.T) {
		a := NewByteTotal(math.MaxUint64)
		b := ByteTotal{Hi: 2, Lo: 1}
		assert.Equal(t, ByteTotal{Hi: 3, Lo: 0}, a.AddTotal(b))
		assert.Equal(t, a, a.AddTotal(ByteTotal{}))
	})
	t.Run("json number", func(t *testing.T) {
		data, err := json.Marshal(struct {
			Total ByteTotal `json:"total"`
		}{Total: NewByteTotal(math.MaxUint64).Add(10)})
		assert.NoError(t, err)
		assert.JSONEq(t, `{"total": 18446744073709551625}`, string(data))
	})
}
