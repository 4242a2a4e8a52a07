package utils

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsBuffer_WriteRead(t *testing.T) {
	bits := BitsInit(15, nil)
	require.NoError(t, bits.WriteRow8(0xAB))
	require.NoError(t, bits.WriteRow16(0xCDEF))
	require.NoError(t, bits.WriteRow32(0xDEADBEEF))
	require.NoError(t, bits.WriteRow64(0xFFF150801FFC00, 7))
	require.NoError(t, bits.WriteRow64(0x1, 1))
	assert.Equal(t, 15, bits.Offset())
	assert.Equal(t, []byte{
		0xAB,
		0xCD, 0xEF,
		0xDE, 0xAD, 0xBE, 0xEF,
		0xFF, 0xF1, 0x50, 0x80, 0x1F, 0xFC, 0x00,
		0x01,
	}, bits.Bytes())

	r := BitsInit(15, bits.Bytes())
	v8, err := r.ReadRow8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), v8)
	v16, err := r.ReadRow16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xCDEF), v16)
	v32, err := r.ReadRow32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v32)
	v64, err := r.ReadRow64(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFFF150801FFC00), v64)
	v64, err = r.ReadRow64(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v64)
}

func TestBitsBuffer_Short(t *testing.T) {
	bits := BitsInit(3, make([]byte, 8))
	require.NoError(t, bits.WriteRow16(1))
	err := bits.WriteRow32(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortBuffer))
	assert.Equal(t, 2, bits.Offset(), "failed write must not move the cursor")

	_, err = BitsInit(1, []byte{0}).ReadRow16()
	assert.True(t, errors.Is(err, ErrShortBuffer))

	assert.Error(t, BitsInit(16, nil).WriteRow64(0, 9))
}

func TestBitsBuffer_Next(t *testing.T) {
	bits := BitsInit(5, []byte{1, 2, 3, 4, 5})
	b, err := bits.Next(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)
	assert.Equal(t, 3, bits.Len())
	_, err = bits.Next(4)
	assert.True(t, errors.Is(err, ErrShortBuffer))
	_, err = bits.Next(-1)
	assert.Error(t, err)
	b, err = bits.Next(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4, 5}, b)
	assert.Equal(t, 0, bits.Len())
}

func TestBitsInit_ClampsSize(t *testing.T) {
	bits := BitsInit(64, make([]byte, 2))
	require.NoError(t, bits.WriteRow16(0xFFFF))
	assert.Error(t, bits.WriteRow8(0))
}

func TestAssert(t *testing.T) {
	errBoom := errors.New("boom")
	assert.NotPanics(t, func() { Assert(true, 0, errBoom) })

	defer func() {
		r := recover()
		require.NotNil(t, r)
		e, ok := r.(*AssertionError)
		require.True(t, ok, "panic value is %T", r)
		assert.True(t, errors.Is(e, errBoom))
		assert.Contains(t, e.File, "utils_test.go")
		assert.Contains(t, e.Error(), "Assertion failed")
	}()
	Assert(false, 0, errBoom)
}
