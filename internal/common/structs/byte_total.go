package structs

import (
	"math"
	"math/big"
	"math/bits"
)

// ByteTotal is an unsigned 128-bit byte counter. Summed per-sample deltas of
// 64-bit counters cannot overflow it within any realistic interval.
type ByteTotal struct {
	Hi uint64
	Lo uint64
}

func NewByteTotal(v uint64) ByteTotal {
	return ByteTotal{Lo: v}
}

// Add returns t + v.
func (t ByteTotal) Add(v uint64) ByteTotal {
	lo, carry := bits.Add64(t.Lo, v, 0)
	hi, _ := bits.Add64(t.Hi, 0, carry)
	return ByteTotal{Hi: hi, Lo: lo}
}

// AddTotal returns t + o, wrapping at 2^128.
func (t ByteTotal) AddTotal(o ByteTotal) ByteTotal {
	lo, carry := bits.Add64(t.Lo, o.Lo, 0)
	hi, _ := bits.Add64(t.Hi, o.Hi, carry)
	return ByteTotal{Hi: hi, Lo: lo}
}

func (t ByteTotal) IsZero() bool {
	return t.Hi == 0 && t.Lo == 0
}

// Uint64 saturates at math.MaxUint64.
func (t ByteTotal) Uint64() uint64 {
	if t.Hi != 0 {
		return math.MaxUint64
	}
	return t.Lo
}

func (t ByteTotal) Float64() float64 {
	return float64(t.Hi)*(1<<64) + float64(t.Lo)
}

func (t ByteTotal) Big() *big.Int {
	b := new(big.Int).SetUint64(t.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(t.Lo))
}

func (t ByteTotal) String() string {
	if t.Hi == 0 {
		return new(big.Int).SetUint64(t.Lo).String()
	}
	return t.Big().String()
}

// MarshalJSON encodes the total as a plain JSON number of arbitrary width.
func (t ByteTotal) MarshalJSON() ([]byte, error) {
	return []byte(t.String()), nil
}
