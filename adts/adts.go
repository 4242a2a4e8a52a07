// Package adts reads and writes AAC ADTS frame headers.
//
// The fixed and variable ADTS headers form one 56 bit row, which is handled
// as a 64 bit container; an optional 16 bit CRC follows when
// ProtectionAbsent is not set.
package adts

import (
	"github.com/MeloQi/pushbits/bits"
	"github.com/MeloQi/pushbits/utils"
	"github.com/pkg/errors"
)

const (
	SyncWord          = 0xFFF
	HeaderLength      = 7
	HeaderLengthCRC   = 9
	MaxFrameLength    = 1<<13 - 1
	VBRBufferFullness = 0x7FF

	rowBits = HeaderLength * 8
)

var (
	ErrShortHeader    = errors.New("adts: short header")
	ErrSyncWord       = errors.New("adts: not find syncword")
	ErrFrameTooLarge  = errors.New("adts: frame too large")
	ErrInvalidProfile = errors.New("adts: invalid profile")
	ErrSamplingIndex  = errors.New("adts: invalid sampling frequency index")
	ErrChannelConfig  = errors.New("adts: invalid channel configuration")
)

var audioSamplingRates = [16]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000, 7350, -1, -1, -1,
}

// Header is an ADTS header. Widths in bits are noted per field.
type Header struct {
	ID               uint8 // 1, 0-MPEG4/1-MPEG2
	Layer            uint8 // 2
	ProtectionAbsent bool  // 1, header length 7 when set, 9 with CRC otherwise
	Profile          uint8 // 2, audio object type minus 1
	SamplingIndex    uint8 // 4
	Private          bool  // 1
	ChannelConfig    uint8 // 3
	Original         bool  // 1
	Home             bool  // 1

	CopyrightBit   bool   // 1
	CopyrightStart bool   // 1
	FrameLength    uint16 // 13, header included
	BufferFullness uint16 // 11
	RawBlocks      uint8  // 2, number of raw data blocks minus 1

	CRC uint16
}

// NewHeader returns an MPEG-4 header without CRC for a payload of
// payloadLen bytes.
func NewHeader(aot, samplingIndex, channelConfig uint8, payloadLen int) (*Header, error) {
	if aot < 1 || aot > 4 {
		return nil, errors.Wrapf(ErrInvalidProfile, "audio object type %d", aot)
	}
	if int(samplingIndex) >= len(audioSamplingRates) || audioSamplingRates[samplingIndex] < 0 {
		return nil, errors.Wrapf(ErrSamplingIndex, "%d", samplingIndex)
	}
	if channelConfig > 7 {
		return nil, errors.Wrapf(ErrChannelConfig, "%d", channelConfig)
	}
	if payloadLen < 0 || payloadLen+HeaderLength > MaxFrameLength {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d bytes of payload", payloadLen)
	}
	return &Header{
		ProtectionAbsent: true,
		Profile:          aot - 1,
		SamplingIndex:    samplingIndex,
		ChannelConfig:    channelConfig,
		FrameLength:      uint16(payloadLen + HeaderLength),
		BufferFullness:   VBRBufferFullness,
	}, nil
}

// Size returns the header length on the wire.
func (h *Header) Size() int {
	if h.ProtectionAbsent {
		return HeaderLength
	}
	return HeaderLengthCRC
}

// SampleRate looks up the sampling frequency index. ok is false for the
// reserved indexes and anything that does not fit in 4 bits.
func (h *Header) SampleRate() (rate int, ok bool) {
	if int(h.SamplingIndex) >= len(audioSamplingRates) {
		return -1, false
	}
	rate = audioSamplingRates[h.SamplingIndex]
	return rate, rate > 0
}

// AudioSpecificConfig returns the two byte MPEG-4 AudioSpecificConfig
// describing the stream: object type(5) frequency index(4) channels(4) and
// three zero flag bits.
func (h *Header) AudioSpecificConfig() []byte {
	row := bits.New16(0)
	row.Push(5, uint16(h.Profile)+1)
	row.Push(4, uint16(h.SamplingIndex))
	row.Push(4, uint16(h.ChannelConfig))
	row.Push(3, 0)
	return []byte{byte(row.Get() >> 8), byte(row.Get())}
}

// Marshal returns the header in wire form, CRC included when present.
func (h *Header) Marshal() []byte {
	row := bits.New64(0)
	row.Push(12, SyncWord)
	row.Push(1, uint64(h.ID))
	row.Push(2, uint64(h.Layer))
	row.PushBool(h.ProtectionAbsent)
	row.Push(2, uint64(h.Profile))
	row.Push(4, uint64(h.SamplingIndex))
	row.PushBool(h.Private)
	row.Push(3, uint64(h.ChannelConfig))
	row.PushBool(h.Original)
	row.PushBool(h.Home)
	//adts_variable_header
	row.PushBool(h.CopyrightBit)
	row.PushBool(h.CopyrightStart)
	row.Push(13, uint64(h.FrameLength))
	row.Push(11, uint64(h.BufferFullness))
	row.Push(2, uint64(h.RawBlocks))

	w := utils.BitsInit(h.Size(), nil)
	w.WriteRow64(row.Get(), HeaderLength)
	if !h.ProtectionAbsent {
		w.WriteRow16(h.CRC)
	}
	return w.Bytes()
}

// Parse decodes the header at the start of data.
func Parse(data []byte) (*Header, error) {
	r := utils.BitsInit(len(data), data)
	raw, err := r.ReadRow64(HeaderLength)
	if err != nil {
		return nil, errors.Wrapf(ErrShortHeader, "%d bytes", len(data))
	}

	row := bits.New64(raw)
	// move the 56 bit row to the top of the container
	row.Push(bits.BitWidth64-rowBits, 0)
	if sync := row.Pop(12); sync != SyncWord {
		return nil, errors.Wrapf(ErrSyncWord, "%#x", sync)
	}

	h := &Header{}
	h.ID = uint8(row.Pop(1))
	h.Layer = uint8(row.Pop(2))
	h.ProtectionAbsent = row.PopBool()
	h.Profile = uint8(row.Pop(2))
	h.SamplingIndex = uint8(row.Pop(4))
	h.Private = row.PopBool()
	h.ChannelConfig = uint8(row.Pop(3))
	h.Original = row.PopBool()
	h.Home = row.PopBool()
	h.CopyrightBit = row.PopBool()
	h.CopyrightStart = row.PopBool()
	h.FrameLength = uint16(row.Pop(13))
	h.BufferFullness = uint16(row.Pop(11))
	h.RawBlocks = uint8(row.Pop(2))

	if !h.ProtectionAbsent {
		if h.CRC, err = r.ReadRow16(); err != nil {
			return nil, errors.Wrap(ErrShortHeader, "crc")
		}
	}
	return h, nil
}
