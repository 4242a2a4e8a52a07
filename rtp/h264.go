package rtp

import (
	"github.com/MeloQi/pushbits/bits"
	"github.com/MeloQi/pushbits/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	NALU_STAP_A = 24
	NALU_FU_A   = 28
)

// ErrUnsupportedNALU is returned for NAL unit types the depacketizer skips.
var ErrUnsupportedNALU = errors.New("rtp: unsupported H264 nalu type")

type FrameInfo struct {
	NaluType      int
	DataLen       int
	SubFrameInfos []SubFrameInfo
	SSRC          uint32 //rtp
	Timestamp     uint32 //rtp
}

type SubFrameInfo struct {
	NaluType int
	Data     []byte
}

func NewFrameInfo() *FrameInfo {
	return &FrameInfo{}
}

func ResetFrameInfo(frame *FrameInfo, rtpHeader *Header) {
	frame.SSRC = rtpHeader.SSRC
	frame.Timestamp = rtpHeader.Timestamp
	frame.NaluType = 0
	frame.DataLen = 0
	frame.SubFrameInfos = []SubFrameInfo{}
}

// NALHeader is the one byte H264 NAL unit header:
// forbidden_zero_bit(1) nal_ref_idc(2) nal_unit_type(5).
type NALHeader struct {
	Forbidden bool
	NRI       uint8
	Type      uint8
}

func ParseNALHeader(b byte) NALHeader {
	row := bits.New8(b)
	var h NALHeader
	h.Forbidden = row.PopBool()
	h.NRI = row.Pop(2)
	h.Type = row.Pop(5)
	return h
}

func (h NALHeader) Byte() byte {
	row := bits.New8(0)
	row.PushBool(h.Forbidden)
	row.Push(2, h.NRI)
	row.Push(5, h.Type)
	return row.Get()
}

// FUHeader is the FU-A fragment header: S(1) E(1) R(1) Type(5).
type FUHeader struct {
	Start    bool
	End      bool
	Reserved bool
	Type     uint8
}

func ParseFUHeader(b byte) FUHeader {
	row := bits.New8(b)
	var h FUHeader
	h.Start = row.PopBool()
	h.End = row.PopBool()
	h.Reserved = row.PopBool()
	h.Type = row.Pop(5)
	return h
}

func (h FUHeader) Byte() byte {
	row := bits.New8(0)
	row.PushBool(h.Start)
	row.PushBool(h.End)
	row.PushBool(h.Reserved)
	row.Push(5, h.Type)
	return row.Get()
}

// GetH264FrameSlices feeds one RTP packet to the depacketizer. It returns the
// frame once it is complete and nil while a fragmented NAL unit is still
// being collected. The returned frame is reused by the next call.
func (rt *RtpTransfer) GetH264FrameSlices(rtpData []byte) (frameSlices *FrameInfo, err error) {
	pkt, err := Parse(rtpData)
	if err != nil {
		return nil, errors.Wrap(err, "parse rtp packet")
	}
	nalu := pkt.Payload
	if len(nalu) == 0 {
		return nil, errors.Wrap(ErrShortPacket, "empty payload")
	}

	frameSlices = rt.CurFrame
	naluHeader := ParseNALHeader(nalu[0])
	switch t := naluHeader.Type; {
	case t >= 1 && t <= 23:
		ResetFrameInfo(frameSlices, &pkt.Header)
		frameSlices.NaluType = int(t)
		frameSlices.DataLen = len(nalu)
		frameSlices.SubFrameInfos = append(frameSlices.SubFrameInfos, SubFrameInfo{NaluType: int(t), Data: nalu})
		rt.fuStarted = false
		return frameSlices, nil

	case t == NALU_FU_A:
		if len(nalu) < 2 {
			return nil, errors.Wrap(ErrShortPacket, "FU-A without fu header")
		}
		fu := ParseFUHeader(nalu[1])
		if fu.Start {
			ResetFrameInfo(frameSlices, &pkt.Header)
			frameSlices.NaluType = int(fu.Type)
			// rebuild the original NAL header from the FU indicator
			naluHeader.Type = fu.Type
			frameSlices.SubFrameInfos = append(frameSlices.SubFrameInfos, SubFrameInfo{NaluType: frameSlices.NaluType, Data: []byte{naluHeader.Byte()}})
			frameSlices.DataLen += 1
			rt.fuStarted = true
		} else if !rt.fuStarted || frameSlices.Timestamp != pkt.Timestamp {
			log.WithFields(logrus.Fields{
				"seq":       pkt.SequenceNumber,
				"timestamp": pkt.Timestamp,
			}).Debug("Dropping FU-A fragment without start")
			rt.fuStarted = false
			return nil, nil
		}
		frameSlices.SubFrameInfos = append(frameSlices.SubFrameInfos, SubFrameInfo{NaluType: frameSlices.NaluType, Data: nalu[2:]})
		frameSlices.DataLen += len(nalu[2:])
		if fu.End {
			rt.fuStarted = false
			return frameSlices, nil
		}
		return nil, nil

	case t == NALU_STAP_A:
		/*
			0                   1                   2                   3
			0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
			+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
			|                          RTP Header      rtp STAP-A                     |
			+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
			|STAP-A NAL HDR |         NALU 1 Size           | NALU 1 HDR    |
			+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
			|                         NALU 1 Data                           |
			:                                                               :
			+               +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
			|               | NALU 2 Size                   | NALU 2 HDR    |
			+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
			|                         NALU 2 Data                           |
			:                                                               :
			|                               +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
			|                               :...OPTIONAL RTP padding        |
			+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
		*/
		ResetFrameInfo(frameSlices, &pkt.Header)
		frameSlices.NaluType = NALU_STAP_A
		r := utils.BitsInit(len(nalu)-1, nalu[1:])
		for r.Len() >= 2 {
			size, err := r.ReadRow16()
			if err != nil {
				return nil, errors.Wrap(err, "rtp STAP-A: nalu size")
			}
			if size == 0 {
				return nil, errors.New("rtp STAP-A: empty nalu")
			}
			data, err := r.Next(int(size))
			if err != nil {
				//Failed to parse STAP-A
				return nil, errors.Errorf("rtp STAP-A: size(%d) is more than payload's length(%d)", int(size)+2, r.Len()+2)
			}
			frameSlices.SubFrameInfos = append(frameSlices.SubFrameInfos, SubFrameInfo{NaluType: int(ParseNALHeader(data[0]).Type), Data: data})
			frameSlices.DataLen += int(size)
		}
		rt.fuStarted = false
		return frameSlices, nil

	default:
		log.WithField("naluType", t).Debug("Dropping unsupported NAL unit")
		return nil, errors.Wrapf(ErrUnsupportedNALU, "naluType=%d", t)
	}
}
