// Package layout describes fixed width header rows as an ordered list of
// named fields, validates the widths once, and encodes or decodes rows with
// the bits package.
//
// Layouts can be declared in code with New or read from an INI document with
// Load, one section per row:
//
//	[rtp]
//	width        = 32
//	version      = 2
//	padding      = 1
//	extension    = 1
//	csrc_count   = 4
//	marker       = 1
//	payload_type = 7
//	sequence     = 16
//
// Key order is field order. The reserved key "width" selects the row width
// (8, 16, 32 or 64, default 32).
package layout

import (
	"fmt"

	"github.com/MeloQi/pushbits/bits"
	"github.com/MeloQi/pushbits/utils"
	"github.com/pkg/errors"
)

// DefaultWidth is the row width of loaded layouts without a width key.
const DefaultWidth = bits.BitWidth32

var (
	ErrInvalidLayout = errors.New("invalid layout")
	ErrUnknownField  = errors.New("unknown field")
	ErrRowOverflow   = errors.New("row has bits set outside the layout")
)

// Field is a named run of bits inside a row.
type Field struct {
	Name  string
	Width uint
}

// Layout is a validated, ordered list of fields packed into a row of Width
// bits. The first field occupies the highest bits of the packed fields.
type Layout struct {
	Name   string
	Width  uint
	Fields []Field

	total uint
	index map[string]int
}

// New validates the fields and returns the layout. Every field must be
// narrower than the row, names must be unique and the widths must add up to
// no more than the row width.
func New(name string, width uint, fields ...Field) (*Layout, error) {
	switch width {
	case bits.BitWidth8, bits.BitWidth16, bits.BitWidth32, bits.BitWidth64:
	default:
		return nil, errors.Wrapf(ErrInvalidLayout, "%s: unsupported row width %d", name, width)
	}
	if len(fields) == 0 {
		return nil, errors.Wrapf(ErrInvalidLayout, "%s: no fields", name)
	}

	l := &Layout{
		Name:   name,
		Width:  width,
		Fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(l.Fields, fields)
	for i, f := range l.Fields {
		if f.Name == "" {
			return nil, errors.Wrapf(ErrInvalidLayout, "%s: field %d has no name", name, i)
		}
		if _, ok := l.index[f.Name]; ok {
			return nil, errors.Wrapf(ErrInvalidLayout, "%s: duplicate field %q", name, f.Name)
		}
		if f.Width == 0 || f.Width >= width {
			return nil, errors.Wrapf(ErrInvalidLayout, "%s: field %q is %d bits, want 1..%d", name, f.Name, f.Width, width-1)
		}
		l.index[f.Name] = i
		l.total += f.Width
	}
	if l.total > width {
		return nil, errors.Wrapf(ErrInvalidLayout, "%s: fields take %d bits of a %d bit row", name, l.total, width)
	}
	return l, nil
}

// MustNew is like New but panics if the layout is invalid.
func MustNew(name string, width uint, fields ...Field) *Layout {
	l, err := New(name, width, fields...)
	utils.Assert(err == nil, 1, err)
	return l
}

// TotalWidth returns the sum of the field widths.
func (l *Layout) TotalWidth() uint {
	return l.total
}

// Field looks a field up by name.
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.Fields[i], true
}

func (l *Layout) String() string {
	return fmt.Sprintf("%s(%d/%d bits, %d fields)", l.Name, l.total, l.Width, len(l.Fields))
}

// Encode packs values into a row. Fields missing from values encode as zero
// and values are truncated to their field width. The packed fields are
// right-justified in the returned row.
func (l *Layout) Encode(values map[string]uint64) (uint64, error) {
	ordered := make([]uint64, len(l.Fields))
	for name, v := range values {
		i, ok := l.index[name]
		if !ok {
			return 0, errors.Wrapf(ErrUnknownField, "%s: %q", l.Name, name)
		}
		ordered[i] = v
	}

	switch l.Width {
	case bits.BitWidth8:
		return uint64(encode[uint8](l, ordered)), nil
	case bits.BitWidth16:
		return uint64(encode[uint16](l, ordered)), nil
	case bits.BitWidth32:
		return uint64(encode[uint32](l, ordered)), nil
	default:
		return encode[uint64](l, ordered), nil
	}
}

// Decode unpacks a row produced by Encode.
func (l *Layout) Decode(row uint64) (map[string]uint64, error) {
	if l.total < bits.BitWidth64 && row>>l.total != 0 {
		return nil, errors.Wrapf(ErrRowOverflow, "%s: %#x exceeds %d bits", l.Name, row, l.total)
	}

	values := make(map[string]uint64, len(l.Fields))
	switch l.Width {
	case bits.BitWidth8:
		decode(l, uint8(row), values)
	case bits.BitWidth16:
		decode(l, uint16(row), values)
	case bits.BitWidth32:
		decode(l, uint32(row), values)
	default:
		decode(l, row, values)
	}
	return values, nil
}

func encode[T bits.Word](l *Layout, values []uint64) T {
	b := bits.New[T](0)
	for i, f := range l.Fields {
		b.Push(f.Width, T(values[i]))
	}
	return b.Get()
}

func decode[T bits.Word](l *Layout, row T, values map[string]uint64) {
	b := bits.New(row)
	// Move the first field up to the top of the row before popping.
	if l.total < l.Width {
		b.Push(l.Width-l.total, 0)
	}
	for _, f := range l.Fields {
		values[f.Name] = uint64(b.Pop(f.Width))
	}
}
