package rtp

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

// RtpTransfer packs payloads into RTP packets and unpacks H264 frames from
// them. It keeps the sequence counter of one outgoing stream and the frame
// being reassembled from one incoming stream.
type RtpTransfer struct {
	CurFrame  *FrameInfo
	SSRC      uint32
	outRTPbuf []byte
	cseq      uint16
	fuStarted bool
}

// NewRtpTransfer creates a transfer with a random SSRC.
func NewRtpTransfer() *RtpTransfer {
	return &RtpTransfer{
		CurFrame:  NewFrameInfo(),
		SSRC:      randomSSRC(),
		outRTPbuf: make([]byte, MAX_RTP_LEN),
	}
}

func randomSSRC() uint32 {
	u := uuid.NewV4()
	return binary.BigEndian.Uint32(u[:4])
}

// FillRtpHeader writes the next fixed header of the stream to outHeader,
// which must hold at least RTP_HEADER_LEN bytes.
func (rt *RtpTransfer) FillRtpHeader(outHeader []byte, rtpPayloadType uint8, isMarker bool, timestamp uint32) error {
	rt.cseq++
	h := Header{
		Version:        RTP_VERSION,
		Marker:         isMarker,
		PayloadType:    rtpPayloadType,
		SequenceNumber: rt.cseq,
		Timestamp:      timestamp,
		SSRC:           rt.SSRC,
	}
	_, err := h.MarshalTo(outHeader)
	return err
}

// PkgRtpOut sends data as one or more RTP packets through outCallBack. When
// hasRTPHeader is set, data already reserves RTP_HEADER_LEN bytes in front of
// the payload and is sent as a single packet. Otherwise the payload is split
// into MAX_RTP_LEN packets and only the last one carries isMarker.
//
// The packets share an internal buffer, so outCallBack must consume each one
// before returning.
func (rt *RtpTransfer) PkgRtpOut(data []byte, rtpType RTPType, hasRTPHeader bool, rtpPayloadType uint8, isMarker bool, timestamp uint32, outCallBack func(pack *RTPPack)) error {
	if len(data) == 0 || outCallBack == nil {
		return nil
	}

	if hasRTPHeader {
		if err := rt.FillRtpHeader(data, rtpPayloadType, isMarker, timestamp); err != nil {
			return errors.Wrap(err, "could not fill reserved rtp header")
		}
		outCallBack(&RTPPack{Type: rtpType, Buffer: bytes.NewBuffer(data)})
		return nil
	}

	outBuf := rt.outRTPbuf
	for len(data) > MAX_RTP_LEN-RTP_HEADER_LEN {
		if err := rt.FillRtpHeader(outBuf[:RTP_HEADER_LEN], rtpPayloadType, false, timestamp); err != nil {
			return err
		}
		copy(outBuf[RTP_HEADER_LEN:], data[:MAX_RTP_LEN-RTP_HEADER_LEN])
		data = data[MAX_RTP_LEN-RTP_HEADER_LEN:]
		outCallBack(&RTPPack{Type: rtpType, Buffer: bytes.NewBuffer(outBuf[:MAX_RTP_LEN])})
	}
	if err := rt.FillRtpHeader(outBuf[:RTP_HEADER_LEN], rtpPayloadType, isMarker, timestamp); err != nil {
		return err
	}
	copy(outBuf[RTP_HEADER_LEN:], data)
	outCallBack(&RTPPack{Type: rtpType, Buffer: bytes.NewBuffer(outBuf[:len(data)+RTP_HEADER_LEN])})
	return nil
}
