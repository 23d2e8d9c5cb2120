// Package keys builds composite binary keys whose unsigned byte-wise
// ordering matches the intended application ordering.
//
// A key is assembled segment by segment. Every segment is either fixed
// width or stripped of the separator byte and padded to a fixed width, so
// concatenated keys stay unambiguous and any prefix of segments is a valid
// scan prefix. Timestamps are stored inverted, which makes an ascending
// scan return newest entries first.
package keys

import (
	"encoding/binary"

	"github.com/google/uuid"
)

const (
	// Sentinel is the discriminant byte for unknown or unmapped
	// categorical values. It sorts after every known value.
	Sentinel = 0xFF

	// Separator pads and terminates text segments. It never occurs inside
	// a segment because Text strips it from input.
	Separator = 0x00

	// TimeWidth is the fixed width of an inverted timestamp segment.
	TimeWidth = 16

	// IDWidth is the fixed width of an identifier segment.
	IDWidth = 16
)

// Builder assembles a composite key. The zero value is usable; Reserve
// pre-allocates for a known final size.
type Builder struct {
	buf []byte
}

// Reserve returns a builder with capacity pre-allocated.
func Reserve(capacity int) *Builder {
	return &Builder{buf: make([]byte, 0, capacity)}
}

// Flag appends a boolean as a single 0/1 byte.
func (b *Builder) Flag(v bool) *Builder {
	if v {
		return b.Byte(1)
	}
	return b.Byte(0)
}

// Byte appends a raw byte.
func (b *Builder) Byte(v byte) *Builder {
	b.buf = append(b.buf, v)
	return b
}

// Kind appends a discriminant byte. Values at or above Sentinel collapse
// to Sentinel, keeping the encoding total for unmapped categories.
func (b *Builder) Kind(v byte) *Builder {
	if v >= Sentinel {
		v = Sentinel
	}
	return b.Byte(v)
}

// Time appends an inverted timestamp as a fixed 16-byte big-endian value.
// Larger timestamps produce smaller keys, so an ascending scan yields
// newest-first order. The upper 8 bytes are the inverted high word, which
// for 64-bit inputs is always 0xFF..FF; the width is kept at 16 so the
// layout survives wider clocks without reordering.
func (b *Builder) Time(v uint64) *Builder {
	var seg [TimeWidth]byte
	for i := 0; i < 8; i++ {
		seg[i] = 0xFF
	}
	binary.BigEndian.PutUint64(seg[8:], ^v)
	b.buf = append(b.buf, seg[:]...)
	return b
}

// ID appends a 16-byte identifier. Appended last it makes the full key
// unique even when all preceding segments collide.
func (b *Builder) ID(id uuid.UUID) *Builder {
	b.buf = append(b.buf, id[:]...)
	return b
}

// Text appends a free-form string as a fixed-width segment. Separator
// bytes are stripped from the input, the rest is truncated to width and
// padded with Separator. Stripping keeps the encoding total instead of
// rejecting hostile input at write time.
func (b *Builder) Text(s string, width int) *Builder {
	seg := make([]byte, 0, width)
	for i := 0; i < len(s) && len(seg) < width; i++ {
		if s[i] == Separator {
			continue
		}
		seg = append(seg, s[i])
	}
	for len(seg) < width {
		seg = append(seg, Separator)
	}
	b.buf = append(b.buf, seg...)
	return b
}

// Build returns the assembled key. The builder must not be reused after.
func (b *Builder) Build() []byte {
	return b.buf
}

// Successor returns the exclusive upper bound of the range of keys that
// share prefix p: a copy of p with the last non-0xFF byte incremented and
// everything after it dropped. A nil result means the range has no upper
// bound (empty prefix, or all bytes 0xFF).
func Successor(p []byte) []byte {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == 0xFF {
			continue
		}
		out := make([]byte, i+1)
		copy(out, p[:i+1])
		out[i]++
		return out
	}
	return nil
}
