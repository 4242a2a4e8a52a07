package utils

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrShortBuffer is returned when a row does not fit in the remaining bytes.
var ErrShortBuffer = errors.New("short buffer")

// BitsBuffer moves whole fixed-width rows between a byte slice and their
// integer form, in network byte order. Fields inside a row are handled by the
// bits package; BitsBuffer only tracks the byte offset of the next row.
type BitsBuffer struct {
	iSize int
	iData int
	pData []byte
}

// BitsInit wraps buffer, or a new slice of isize bytes when buffer is nil.
func BitsInit(isize int, buffer []byte) *BitsBuffer {

	bits := &BitsBuffer{
		iSize: isize,
		iData: 0,
		pData: buffer,
	}
	if bits.pData == nil {
		bits.pData = make([]byte, isize)
	}
	if bits.iSize > len(bits.pData) {
		bits.iSize = len(bits.pData)
	}
	return bits
}

// Len returns the number of bytes left after the cursor.
func (bits *BitsBuffer) Len() int {
	return bits.iSize - bits.iData
}

// Offset returns the number of bytes written or read so far.
func (bits *BitsBuffer) Offset() int {
	return bits.iData
}

// Bytes returns the written part of the buffer.
func (bits *BitsBuffer) Bytes() []byte {
	return bits.pData[:bits.iData]
}

// Next returns the next numBytes bytes and moves the cursor past them.
func (bits *BitsBuffer) Next(numBytes int) ([]byte, error) {
	if numBytes < 0 || bits.iData+numBytes > bits.iSize {
		return nil, errors.Wrapf(ErrShortBuffer, "need %d bytes at offset %d of %d", numBytes, bits.iData, bits.iSize)
	}
	b := bits.pData[bits.iData : bits.iData+numBytes]
	bits.iData += numBytes
	return b, nil
}

func (bits *BitsBuffer) WriteRow8(row uint8) error {
	b, err := bits.Next(1)
	if err != nil {
		return err
	}
	b[0] = row
	return nil
}

func (bits *BitsBuffer) WriteRow16(row uint16) error {
	b, err := bits.Next(2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b, row)
	return nil
}

func (bits *BitsBuffer) WriteRow32(row uint32) error {
	b, err := bits.Next(4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(b, row)
	return nil
}

// WriteRow64 writes the low numBytes bytes of row, most significant first.
func (bits *BitsBuffer) WriteRow64(row uint64, numBytes int) error {
	if numBytes > 8 {
		return errors.Errorf("row of %d bytes does not fit in 64 bits", numBytes)
	}
	b, err := bits.Next(numBytes)
	if err != nil {
		return err
	}
	for i := numBytes - 1; i >= 0; i-- {
		b[i] = byte(row)
		row >>= 8
	}
	return nil
}

func (bits *BitsBuffer) ReadRow8() (uint8, error) {
	b, err := bits.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (bits *BitsBuffer) ReadRow16() (uint16, error) {
	b, err := bits.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (bits *BitsBuffer) ReadRow32() (uint32, error) {
	b, err := bits.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadRow64 reads numBytes bytes into the low bytes of the returned row.
func (bits *BitsBuffer) ReadRow64(numBytes int) (uint64, error) {
	if numBytes > 8 {
		return 0, errors.Errorf("row of %d bytes does not fit in 64 bits", numBytes)
	}
	b, err := bits.Next(numBytes)
	if err != nil {
		return 0, err
	}
	var row uint64
	for _, c := range b {
		row = row<<8 | uint64(c)
	}
	return row, nil
}
