// Package bits pushes and pops bit-packed fields of a fixed width row.
//
// Protocol headers often pack several fields of odd widths into one 8, 16,
// 32 or 64 bit word, each field starting where the previous one ended.
// Addressing such a field by hand needs both its width and its offset, and the
// offset is only the running sum of the widths before it.
//
// Bits drops the offset. Encoding pushes fields into the low end of the row
// while everything pushed earlier moves left; decoding pops the same widths in
// the same order from the high end. Declaring the fields once, in wire order,
// is enough for both directions:
//
//	b := bits.New32(0)
//	b.Push(2, 2)        // version
//	b.PushBool(marker)  // marker
//	b.Push(7, pt)       // payload type
//	...
//	row := b.Get()
//
//	b = bits.New32(row)
//	version := b.Pop(2)
//	marker := b.PopBool()
//	pt := b.Pop(7)
//
// A field width must be strictly less than the width of the container. Any
// other width is a bug in the caller's header description, so Push and Pop
// panic on it; TryPush and TryPop report it as an error instead.
package bits

import (
	"fmt"
	mathbits "math/bits"

	"github.com/MeloQi/pushbits/utils"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Bit widths of the predefined containers.
const (
	BitWidth8  = 8
	BitWidth16 = 16
	BitWidth32 = 32
	BitWidth64 = 64
)

// ErrInvalidWidth is raised when a field is not narrower than its container.
var ErrInvalidWidth = errors.New("invalid field width")

// Word is the set of fixed size unsigned integers a container can hold.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Bits is a fixed width container where multiple bits can be pushed and
// popped as an integer. The zero value holds the all-zero pattern.
//
// Bits is a plain value: copies are independent and two containers are equal
// when their patterns are. A single container must not be mutated from
// several goroutines without synchronization.
type Bits[T Word] struct {
	bits T
}

type (
	Bits8  = Bits[uint8]
	Bits16 = Bits[uint16]
	Bits32 = Bits[uint32]
	Bits64 = Bits[uint64]
)

// New creates a container holding the given bit pattern.
func New[T Word](bits T) Bits[T] {
	return Bits[T]{bits: bits}
}

func New8(bits uint8) Bits8    { return Bits8{bits: bits} }
func New16(bits uint16) Bits16 { return Bits16{bits: bits} }
func New32(bits uint32) Bits32 { return Bits32{bits: bits} }
func New64(bits uint64) Bits64 { return Bits64{bits: bits} }

func widthOf[T constraints.Unsigned]() uint {
	return uint(mathbits.Len64(uint64(^T(0))))
}

func widthError(numBits, width uint) error {
	return errors.Wrapf(ErrInvalidWidth, "%d bits in a %d bit container", numBits, width)
}

// Width reports the bit width of the container.
func (b Bits[T]) Width() uint {
	return widthOf[T]()
}

// Get copies out the current bit pattern.
func (b Bits[T]) Get() T {
	return b.bits
}

// Push shifts the pattern left by numBits and stores the low numBits bits of
// value in the vacated positions. Bits shifted past the top are discarded, as
// are the bits of value above numBits.
//
// Push panics if numBits is not less than the container width.
func (b *Bits[T]) Push(numBits uint, value T) {
	if w := widthOf[T](); numBits >= w {
		utils.Fail(1, widthError(numBits, w))
	}
	b.push(numBits, value)
}

func (b *Bits[T]) push(numBits uint, value T) {
	b.bits <<= numBits
	b.bits |= value & (T(1)<<numBits - 1)
}

// PushBool pushes a boolean as a single bit.
func (b *Bits[T]) PushBool(value bool) {
	var v T
	if value {
		v = 1
	}
	b.push(1, v)
}

// Pop shifts numBits bits out of the top of the pattern and returns them
// right-justified. The vacated low bits are zero.
//
// Pop panics if numBits is not less than the container width.
func (b *Bits[T]) Pop(numBits uint) T {
	w := widthOf[T]()
	if numBits >= w {
		utils.Fail(1, widthError(numBits, w))
	}
	return b.pop(numBits, w)
}

func (b *Bits[T]) pop(numBits, width uint) T {
	// x >> width is 0 for unsigned x, which makes Pop(0) return 0.
	res := b.bits >> (width - numBits)
	b.bits <<= numBits
	return res
}

// PopBool pops a single bit out as a boolean.
func (b *Bits[T]) PopBool() bool {
	return b.pop(1, widthOf[T]()) != 0
}

// TryPush is Push with the width violation returned as an error wrapping
// ErrInvalidWidth. The pattern is left untouched on error.
func (b *Bits[T]) TryPush(numBits uint, value T) error {
	if w := widthOf[T](); numBits >= w {
		return widthError(numBits, w)
	}
	b.push(numBits, value)
	return nil
}

// TryPop is Pop with the width violation returned as an error wrapping
// ErrInvalidWidth. The pattern is left untouched on error.
func (b *Bits[T]) TryPop(numBits uint) (T, error) {
	w := widthOf[T]()
	if numBits >= w {
		return 0, widthError(numBits, w)
	}
	return b.pop(numBits, w), nil
}

// PushValue pushes an unsigned value of any type no wider than the
// container, widening it first. It panics like Push on an invalid numBits,
// and also when V is wider than T.
func PushValue[T Word, V constraints.Unsigned](b *Bits[T], numBits uint, value V) {
	w := widthOf[T]()
	if numBits >= w {
		utils.Fail(1, widthError(numBits, w))
	}
	if vw := widthOf[V](); vw > w {
		utils.Fail(1, errors.Wrapf(ErrInvalidWidth, "%d bit value pushed into a %d bit container", vw, w))
	}
	b.push(numBits, T(value))
}

// Compare returns -1, 0 or +1 depending on whether the pattern of b is less
// than, equal to or greater than the pattern of other.
func (b Bits[T]) Compare(other Bits[T]) int {
	switch {
	case b.bits < other.bits:
		return -1
	case b.bits > other.bits:
		return 1
	}
	return 0
}

func (b Bits[T]) Less(other Bits[T]) bool {
	return b.bits < other.bits
}

// String formats the pattern as binary, zero padded to the container width.
func (b Bits[T]) String() string {
	return fmt.Sprintf("%0*b", int(widthOf[T]()), uint64(b.bits))
}
