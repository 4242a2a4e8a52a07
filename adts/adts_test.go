package adts

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeader_Marshal(t *testing.T) {
	h, err := NewHeader(2, 4, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xF1, 0x50, 0x80, 0x0D, 0x7F, 0xFC}, h.Marshal())
	assert.Equal(t, HeaderLength, h.Size())

	rate, ok := h.SampleRate()
	assert.True(t, ok)
	assert.Equal(t, 44100, rate)
	assert.Equal(t, []byte{0x12, 0x10}, h.AudioSpecificConfig())
}

func TestNewHeader_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		aot           uint8
		samplingIndex uint8
		channelConfig uint8
		payloadLen    int
		want          error
	}{
		{name: "aot zero", aot: 0, samplingIndex: 4, channelConfig: 2, payloadLen: 100, want: ErrInvalidProfile},
		{name: "aot five", aot: 5, samplingIndex: 4, channelConfig: 2, payloadLen: 100, want: ErrInvalidProfile},
		{name: "frame too large", aot: 2, samplingIndex: 4, channelConfig: 2, payloadLen: MaxFrameLength, want: ErrFrameTooLarge},
		{name: "negative payload", aot: 2, samplingIndex: 4, channelConfig: 2, payloadLen: -1, want: ErrFrameTooLarge},
		{name: "reserved sampling index 13", aot: 2, samplingIndex: 13, channelConfig: 2, payloadLen: 100, want: ErrSamplingIndex},
		{name: "reserved sampling index 15", aot: 2, samplingIndex: 15, channelConfig: 2, payloadLen: 100, want: ErrSamplingIndex},
		{name: "sampling index over 4 bits", aot: 2, samplingIndex: 16, channelConfig: 2, payloadLen: 100, want: ErrSamplingIndex},
		{name: "channel config over 3 bits", aot: 2, samplingIndex: 4, channelConfig: 8, payloadLen: 100, want: ErrChannelConfig},
		{name: "sampling index and channel config", aot: 2, samplingIndex: 16, channelConfig: 9, payloadLen: 100, want: ErrSamplingIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHeader(tt.aot, tt.samplingIndex, tt.channelConfig, tt.payloadLen)
			require.Error(t, err)
			assert.Nil(t, h)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNewHeader_Limits(t *testing.T) {
	h, err := NewHeader(4, 12, 7, MaxFrameLength-HeaderLength)
	require.NoError(t, err)
	got, err := Parse(h.Marshal())
	require.NoError(t, err)
	assert.Equal(t, h, got)

	rate, ok := got.SampleRate()
	assert.True(t, ok)
	assert.Equal(t, 7350, rate)
}

func TestParse(t *testing.T) {
	h, err := Parse([]byte{0xFF, 0xF1, 0x50, 0x80, 0x0D, 0x7F, 0xFC, 0x21, 0x00})
	require.NoError(t, err)
	assert.Equal(t, &Header{
		ProtectionAbsent: true,
		Profile:          1,
		SamplingIndex:    4,
		ChannelConfig:    2,
		FrameLength:      107,
		BufferFullness:   0x7FF,
	}, h)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte{0xFF, 0xF1, 0x50})
	assert.True(t, errors.Is(err, ErrShortHeader))

	_, err = Parse([]byte{0xFF, 0xE1, 0x50, 0x80, 0x0D, 0x7F, 0xFC})
	assert.True(t, errors.Is(err, ErrSyncWord))

	// protection_absent = 0 needs two more bytes of CRC
	_, err = Parse([]byte{0xFF, 0xF0, 0x50, 0x80, 0x0D, 0x7F, 0xFC})
	assert.True(t, errors.Is(err, ErrShortHeader))
}

func TestHeader_RoundTrip(t *testing.T) {
	tests := []*Header{
		{ProtectionAbsent: true, Profile: 1, SamplingIndex: 3, ChannelConfig: 1, FrameLength: 371, BufferFullness: 0x7FF},
		{ID: 1, Layer: 3, Profile: 3, SamplingIndex: 15, Private: true, ChannelConfig: 7, Original: true, Home: true,
			CopyrightBit: true, CopyrightStart: true, FrameLength: MaxFrameLength, BufferFullness: 0x123, RawBlocks: 3, CRC: 0xBEEF},
		{ProtectionAbsent: true},
	}
	for _, want := range tests {
		b := want.Marshal()
		require.Len(t, b, want.Size())
		got, err := Parse(b)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestHeader_SampleRateReserved(t *testing.T) {
	for _, idx := range []uint8{13, 14, 15, 16, 0x14} {
		_, ok := (&Header{SamplingIndex: idx}).SampleRate()
		assert.False(t, ok, "index %d", idx)
	}
}
