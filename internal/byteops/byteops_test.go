package byteops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetUint16RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	require.NoError(t, PutUint16(buf, 1, 0xBEEF))
	got, err := GetUint16(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), got)
}

func TestGetUint16OutOfBounds(t *testing.T) {
	buf := make([]byte, 2)
	_, err := GetUint16(buf, 1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestPutUint16OutOfBounds(t *testing.T) {
	buf := make([]byte, 1)
	assert.ErrorIs(t, PutUint16(buf, 0, 1), ErrOutOfBounds)
}

func TestGetUint32RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	require.NoError(t, PutUint32(buf, 2, 0xCAFEBABE))
	got, err := GetUint32(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), got)
}

func TestGetUint32OutOfBounds(t *testing.T) {
	buf := make([]byte, 3)
	_, err := GetUint32(buf, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestFlagRoundTrip(t *testing.T) {
	var b byte
	for bit := uint(0); bit < 8; bit++ {
		b = SetFlag(b, bit, true)
		assert.True(t, GetFlag(b, bit))
		b = SetFlag(b, bit, false)
		assert.False(t, GetFlag(b, bit))
	}
}

func TestFlagIndependence(t *testing.T) {
	var b byte
	b = SetFlag(b, 3, true)
	for bit := uint(0); bit < 8; bit++ {
		if bit == 3 {
			assert.True(t, GetFlag(b, bit))
		} else {
			assert.False(t, GetFlag(b, bit))
		}
	}
}

func TestNegativeOffsetRejected(t *testing.T) {
	buf := make([]byte, 4)
	_, err := GetUint16(buf, -1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
