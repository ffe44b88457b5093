package host

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKernelVersion(t *testing.T) {
	tests := []struct {
		release string
		want    KernelVersion
		tcx     bool
	}{
		{"6.8.0-45-generic", KernelVersion{Major: 6, Minor: 8, Patch: 0}, true},
		{"6.6", KernelVersion{Major: 6, Minor: 6}, true},
		{"6.1.112-cloud-amd64", KernelVersion{Major: 6, Minor: 1, Patch: 112}, false},
		{"5.15.0-1051-aws", KernelVersion{Major: 5, Minor: 15}, false},
		{"Linux version 4.19.91", KernelVersion{Major: 4, Minor: 19, Patch: 91}, false},
	}
	for _, tt := range tests {
		t.Run(tt.release, func(t *testing.T) {
			kv, err := ParseKernelVersion(tt.release)
			if assert.NoError(t, err) {
				tt.want.Release = tt.release
				assert.Equal(t, tt.want, kv)
				assert.Equal(t, tt.tcx, kv.SupportsTCX())
			}
		})
	}
	t.Run("garbage", func(t *testing.T) {
		_, err := ParseKernelVersion("unknown")
		assert.ErrorIs(t, err, ErrParsingKernelVersion)
	})
}

func TestAtLeast(t *testing.T) {
	kv := KernelVersion{Major: 5, Minor: 10, Patch: 3}
	assert.True(t, kv.AtLeast(5, 10, 3))
	assert.True(t, kv.AtLeast(4, 20, 0))
	assert.False(t, kv.AtLeast(5, 10, 4))
	assert.False(t, kv.AtLeast(6, 0, 0))
}

func TestHostInfo(t *testing.T) {
	name, err := GetName()
	if assert.NoError(t, err) {
		assert.NotEmpty(t, name)
	}
	kv, err := GetKernelVersion()
	if assert.NoError(t, err) {
		assert.Greater(t, kv.Major, 0)
	}
	endian, err := GetEndian()
	if assert.NoError(t, err) {
		assert.Contains(t, []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}, endian)
	}
}
