package rtp

import (
	"bytes"

	"github.com/MeloQi/pushbits/bits"
	"github.com/MeloQi/pushbits/utils"
	"github.com/pkg/errors"
)

const (
	MAX_RTP_LEN    = 1456
	RTP_HEADER_LEN = 12
	RTP_VERSION    = 2
	MAX_CSRC_COUNT = 15
)

var (
	ErrShortPacket  = errors.New("rtp: short packet")
	ErrBadVersion   = errors.New("rtp: unsupported version")
	ErrBadPadding   = errors.New("rtp: invalid padding")
	ErrBadExtension = errors.New("rtp: invalid header extension")
	ErrTooManyCSRC  = errors.New("rtp: too many CSRC identifiers")
)

/*
	0                   1                   2                   3
	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|V=2|P|X|  CC   |M|     PT      |       sequence number         |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                           timestamp                           |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|           synchronization source (SSRC) identifier            |
	+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	|            contributing source (CSRC) identifiers             |
	|                             ....                              |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|      defined by profile       |           length              |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                        header extension                       |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
*/

// Header is an RTP fixed header with its optional CSRC list and extension.
type Header struct {
	Version          uint8 //2bit
	Padding          bool  //1bit
	Extension        bool  //1bit
	Marker           bool  //1bit
	PayloadType      uint8 //7bit
	SequenceNumber   uint16
	Timestamp        uint32
	SSRC             uint32
	CSRC             []uint32 // CC = len(CSRC), 4bit
	ExtensionProfile uint16
	ExtensionPayload []byte // multiple of 4 bytes
}

// Packet is a parsed RTP packet. Payload excludes the padding.
type Packet struct {
	Header
	Payload    []byte
	PaddingLen uint8
}

type RTPPack struct {
	Type   RTPType
	Buffer *bytes.Buffer
}

type RTPType int

const (
	RTP_TYPE_AUDIO RTPType = iota
	RTP_TYPE_VIDEO
	RTP_TYPE_AUDIOCONTROL
	RTP_TYPE_VIDEOCONTROL
)

func (rt RTPType) String() string {
	switch rt {
	case RTP_TYPE_AUDIO:
		return "audio"
	case RTP_TYPE_VIDEO:
		return "video"
	case RTP_TYPE_AUDIOCONTROL:
		return "audio control"
	case RTP_TYPE_VIDEOCONTROL:
		return "video control"
	}
	return "unknow"
}

// MarshalSize returns the number of bytes Marshal produces.
func (h *Header) MarshalSize() int {
	size := RTP_HEADER_LEN + 4*len(h.CSRC)
	if h.Extension {
		size += 4 + len(h.ExtensionPayload)
	}
	return size
}

// MarshalTo writes the header to buf and returns the number of bytes written.
func (h *Header) MarshalTo(buf []byte) (int, error) {
	if h.Version != RTP_VERSION {
		return 0, errors.Wrapf(ErrBadVersion, "%d", h.Version)
	}
	if len(h.CSRC) > MAX_CSRC_COUNT {
		return 0, errors.Wrapf(ErrTooManyCSRC, "%d", len(h.CSRC))
	}
	if h.Extension && len(h.ExtensionPayload)%4 != 0 {
		return 0, errors.Wrapf(ErrBadExtension, "payload of %d bytes is not word aligned", len(h.ExtensionPayload))
	}
	size := h.MarshalSize()
	if len(buf) < size {
		return 0, errors.Wrapf(ErrShortPacket, "need %d bytes, have %d", size, len(buf))
	}

	row := bits.New32(0)
	row.Push(2, uint32(h.Version))
	row.PushBool(h.Padding)
	row.PushBool(h.Extension)
	row.Push(4, uint32(len(h.CSRC)))
	row.PushBool(h.Marker)
	row.Push(7, uint32(h.PayloadType))
	row.Push(16, uint32(h.SequenceNumber))

	w := utils.BitsInit(size, buf)
	w.WriteRow32(row.Get())
	w.WriteRow32(h.Timestamp)
	w.WriteRow32(h.SSRC)
	for _, csrc := range h.CSRC {
		w.WriteRow32(csrc)
	}
	if h.Extension {
		ext := bits.New32(0)
		ext.Push(16, uint32(h.ExtensionProfile))
		ext.Push(16, uint32(len(h.ExtensionPayload)/4))
		w.WriteRow32(ext.Get())
		b, err := w.Next(len(h.ExtensionPayload))
		if err != nil {
			return 0, errors.Wrap(err, "header extension")
		}
		copy(b, h.ExtensionPayload)
	}
	return w.Offset(), nil
}

// Marshal returns the wire form of the header.
func (h *Header) Marshal() ([]byte, error) {
	buf := make([]byte, h.MarshalSize())
	n, err := h.MarshalTo(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// ParseHeader decodes the header at the start of rtpData and returns it with
// the offset of the payload.
func ParseHeader(rtpData []byte) (*Header, int, error) {
	r := utils.BitsInit(len(rtpData), rtpData)
	first, err := r.ReadRow32()
	if err != nil {
		return nil, 0, errors.Wrap(ErrShortPacket, "fixed header")
	}

	h := &Header{}
	row := bits.New32(first)
	h.Version = uint8(row.Pop(2))
	if h.Version != RTP_VERSION {
		return nil, 0, errors.Wrapf(ErrBadVersion, "%d", h.Version)
	}
	h.Padding = row.PopBool()
	h.Extension = row.PopBool()
	cc := int(row.Pop(4))
	h.Marker = row.PopBool()
	h.PayloadType = uint8(row.Pop(7))
	h.SequenceNumber = uint16(row.Pop(16))

	if h.Timestamp, err = r.ReadRow32(); err != nil {
		return nil, 0, errors.Wrap(ErrShortPacket, "fixed header")
	}
	if h.SSRC, err = r.ReadRow32(); err != nil {
		return nil, 0, errors.Wrap(ErrShortPacket, "fixed header")
	}
	if cc > 0 {
		h.CSRC = make([]uint32, cc)
		for i := range h.CSRC {
			if h.CSRC[i], err = r.ReadRow32(); err != nil {
				return nil, 0, errors.Wrapf(ErrShortPacket, "CSRC %d of %d", i, cc)
			}
		}
	}
	if h.Extension {
		extRow, err := r.ReadRow32()
		if err != nil {
			return nil, 0, errors.Wrap(ErrShortPacket, "extension header")
		}
		ext := bits.New32(extRow)
		h.ExtensionProfile = uint16(ext.Pop(16))
		length := int(ext.Pop(16))
		if h.ExtensionPayload, err = r.Next(length * 4); err != nil {
			return nil, 0, errors.Wrapf(ErrShortPacket, "extension of %d words", length)
		}
	}
	return h, r.Offset(), nil
}

// Parse decodes an RTP packet. The returned payload aliases rtpData.
func Parse(rtpData []byte) (*Packet, error) {
	h, payloadStart, err := ParseHeader(rtpData)
	if err != nil {
		return nil, err
	}
	p := &Packet{Header: *h}
	payloadEnd := len(rtpData)
	if h.Padding {
		p.PaddingLen = rtpData[len(rtpData)-1]
		payloadEnd -= int(p.PaddingLen)
		if p.PaddingLen == 0 || payloadStart > payloadEnd {
			return nil, errors.Wrapf(ErrBadPadding, "%d bytes of padding in a %d byte packet", p.PaddingLen, len(rtpData))
		}
	}
	p.Payload = rtpData[payloadStart:payloadEnd]
	return p, nil
}
