// Package sim provides a four-valued digital logic simulation engine: a
// builder for netlists of wires and components, a compiler that freezes a
// netlist into a flat, indexable representation, and an event-driven
// settling loop that evaluates a circuit to its combinational fixpoint.
package sim

import (
	"math/bits"
	"strings"

	"github.com/circuitkit/logicsim/simerr"
)

// MaxWidth is the largest bit width a wire or LogicState may have.
const MaxWidth = 255

const wordBits = 64
const maxWords = (MaxWidth + wordBits - 1) / wordBits // 4 words covers 256 bits

// BitState is the logic level of a single bit under four-valued logic.
type BitState uint8

// The four logic levels. Bit 0 of each numeric value is the value bit and
// bit 1 is the plane bit: HighZ and Undefined have the plane bit clear,
// Logic0 and Logic1 have it set, matching LogicState's own (value, plane)
// bit encoding.
const (
	HighZ     BitState = iota // (value=0, plane=0)
	Undefined                 // (value=1, plane=0)
	Logic0                    // (value=0, plane=1)
	Logic1                    // (value=1, plane=1)
)

func bitState(value, plane bool) BitState {
	var s BitState
	if value {
		s |= 1
	}
	if plane {
		s |= 2
	}
	return s
}

func (b BitState) valuePlane() (value, plane bool) {
	return b&1 != 0, b&2 != 0
}

// Char returns the single-character representation of b, one of 'Z', 'X',
// '0' or '1'.
func (b BitState) Char() byte {
	switch b {
	case HighZ:
		return 'Z'
	case Undefined:
		return 'X'
	case Logic0:
		return '0'
	case Logic1:
		return '1'
	default:
		return '?'
	}
}

func (b BitState) String() string { return string(b.Char()) }

// LogicState is a four-valued vector of up to MaxWidth bits, stored as two
// parallel bit-planes (the value plane and the validity/impedance plane).
// Bit i of the value plane combined with bit i of the plane plane encodes:
//
//	(0,0) high-impedance Z
//	(1,0) undefined X
//	(0,1) logic-0
//	(1,1) logic-1
//
// This encoding makes driver-merge (see Merge) a handful of word-parallel
// bitwise operations regardless of width. LogicState is a plain value type;
// copying it copies its state.
type LogicState struct {
	width uint8
	value [maxWords]uint64
	plane [maxWords]uint64
}

func wordCount(width uint8) int {
	return (int(width) + wordBits - 1) / wordBits
}

// lastWordMask returns the mask of valid bits in the last word occupied by
// a value of the given width.
func lastWordMask(width uint8) uint64 {
	bitsInLast := int(width) % wordBits
	if bitsInLast == 0 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bitsInLast)) - 1
}

func (s *LogicState) mask() {
	n := wordCount(s.width)
	last := lastWordMask(s.width)
	for i := 0; i < n; i++ {
		m := ^uint64(0)
		if i == n-1 {
			m = last
		}
		s.value[i] &= m
		s.plane[i] &= m
	}
	for i := n; i < maxWords; i++ {
		s.value[i] = 0
		s.plane[i] = 0
	}
}

// Width returns the number of bits in s.
func (s LogicState) Width() uint8 { return s.width }

// HighZState returns an all-high-impedance state of the given width.
func HighZState(width uint8) LogicState {
	return LogicState{width: width}
}

// AllUndefined returns an all-undefined (X) state of the given width.
func AllUndefined(width uint8) LogicState {
	s := LogicState{width: width}
	for i := 0; i < maxWords; i++ {
		s.value[i] = ^uint64(0)
	}
	s.mask()
	return s
}

// AllZero returns an all-logic-0 state of the given width.
func AllZero(width uint8) LogicState {
	s := LogicState{width: width}
	for i := 0; i < maxWords; i++ {
		s.plane[i] = ^uint64(0)
	}
	s.mask()
	return s
}

// AllOne returns an all-logic-1 state of the given width.
func AllOne(width uint8) LogicState {
	s := LogicState{width: width}
	for i := 0; i < maxWords; i++ {
		s.value[i] = ^uint64(0)
		s.plane[i] = ^uint64(0)
	}
	s.mask()
	return s
}

// FromUint64 builds a fully-defined LogicState from an unsigned integer.
// Bits of the result beyond the width of v are logic-0, not high-Z.
func FromUint64(v uint64, width uint8) LogicState {
	s := LogicState{width: width}
	s.value[0] = v
	for i := 0; i < maxWords; i++ {
		s.plane[i] = ^uint64(0)
	}
	s.mask()
	return s
}

// FromWords builds a fully-defined LogicState from a little-endian slice of
// 64-bit words (word 0 holds the low bits). len(words) must be in [1,8];
// words beyond MaxWidth bits are ignored. Bits beyond the value supplied by
// words are logic-0.
func FromWords(words []uint64, width uint8) (LogicState, error) {
	if len(words) < 1 || len(words) > 8 {
		return LogicState{}, simerr.New(simerr.InvalidArgument, "word count must be in [1,8]")
	}
	if width < 1 || width > MaxWidth {
		return LogicState{}, simerr.New(simerr.ArgumentOutOfRange, "width out of range")
	}
	s := LogicState{width: width}
	for i := 0; i < len(words) && i < maxWords; i++ {
		s.value[i] = words[i]
	}
	for i := 0; i < maxWords; i++ {
		s.plane[i] = ^uint64(0)
	}
	s.mask()
	return s, nil
}

// FromString parses a textual representation over the alphabet
// {'z','Z','x','X','0','1'}. The leftmost character is the highest-indexed
// bit. The length of s becomes the width of the returned LogicState.
func FromString(s string) (LogicState, error) {
	if len(s) < 1 || len(s) > MaxWidth {
		return LogicState{}, simerr.New(simerr.InvalidArgument, "string length must be in [1,255]")
	}
	width := uint8(len(s))
	out := LogicState{width: width}
	for i := 0; i < len(s); i++ {
		bitIndex := len(s) - 1 - i
		word, bit := bitIndex/wordBits, uint(bitIndex%wordBits)
		var st BitState
		switch c := s[i]; c {
		case 'z', 'Z':
			st = HighZ
		case 'x', 'X':
			st = Undefined
		case '0':
			st = Logic0
		case '1':
			st = Logic1
		default:
			return LogicState{}, simerr.Newf(simerr.MalformedFormat, "illegal character %q at position %d", c, i)
		}
		v, p := st.valuePlane()
		if v {
			out.value[word] |= 1 << bit
		}
		if p {
			out.plane[word] |= 1 << bit
		}
	}
	return out, nil
}

// Bit returns the logic level of bit i. i must be < Width().
func (s LogicState) Bit(i int) BitState {
	word, bit := i/wordBits, uint(i%wordBits)
	v := s.value[word]&(1<<bit) != 0
	p := s.plane[word]&(1<<bit) != 0
	return bitState(v, p)
}

func (s *LogicState) setBit(i int, st BitState) {
	word, bit := i/wordBits, uint(i%wordBits)
	v, p := st.valuePlane()
	if v {
		s.value[word] |= 1 << bit
	} else {
		s.value[word] &^= 1 << bit
	}
	if p {
		s.plane[word] |= 1 << bit
	} else {
		s.plane[word] &^= 1 << bit
	}
}

// fullyDefined reports whether every bit within the width is Logic0/Logic1.
func (s LogicState) fullyDefined() bool {
	n := wordCount(s.width)
	last := lastWordMask(s.width)
	for i := 0; i < n; i++ {
		m := ^uint64(0)
		if i == n-1 {
			m = last
		}
		if s.plane[i]&m != m {
			return false
		}
	}
	return true
}

// Uint32 returns the value plane of s masked to its width, interpreted as
// an unsigned integer. It fails with simerr.Unsupported if s has more than
// 32 bits or any bit is not fully defined.
func (s LogicState) Uint32() (uint32, error) {
	if s.width > 32 {
		return 0, simerr.New(simerr.Unsupported, "width exceeds 32 bits")
	}
	if !s.fullyDefined() {
		return 0, simerr.New(simerr.Unsupported, "state contains X or Z bits")
	}
	return uint32(s.value[0]) & uint32(lastWordMask(s.width)), nil
}

// BigWords returns the value plane of s as little-endian 64-bit words,
// masked to its width, interpreted as an unsigned integer. It fails with
// simerr.Unsupported if any bit is not fully defined.
func (s LogicState) BigWords() ([]uint64, error) {
	if !s.fullyDefined() {
		return nil, simerr.New(simerr.Unsupported, "state contains X or Z bits")
	}
	n := wordCount(s.width)
	out := make([]uint64, n)
	copy(out, s.value[:n])
	return out, nil
}

// Print writes exactly Width() bytes into buf, highest-indexed bit first,
// with no terminator.
func (s LogicState) Print(buf []byte) error {
	if len(buf) != int(s.width) {
		return simerr.New(simerr.ArgumentOutOfRange, "buffer length must equal width")
	}
	for i := 0; i < int(s.width); i++ {
		bitIndex := int(s.width) - 1 - i
		buf[i] = s.Bit(bitIndex).Char()
	}
	return nil
}

// String renders s the way Print does, highest-indexed bit first.
func (s LogicState) String() string {
	var b strings.Builder
	b.Grow(int(s.width))
	for i := int(s.width) - 1; i >= 0; i-- {
		b.WriteByte(s.Bit(i).Char())
	}
	return b.String()
}

// Equal reports whether a and b have the same width and are bitwise
// identical: Z, X, 0 and 1 are all pairwise distinct.
func (a LogicState) Equal(b LogicState) bool {
	if a.width != b.width {
		return false
	}
	n := wordCount(a.width)
	for i := 0; i < n; i++ {
		if a.value[i] != b.value[i] || a.plane[i] != b.plane[i] {
			return false
		}
	}
	return true
}

// Merge is the driver-resolution operator: if both operands are high-Z the
// result is high-Z; if exactly one is high-Z the result is the other; if
// both are non-Z and equal the result is that value; otherwise the result
// is undefined (a conflict) and conflict reports true. Merge is
// associative, commutative, idempotent, and has high-Z as its identity.
// a and b must have equal width.
func Merge(a, b LogicState) (result LogicState, conflict bool) {
	if a.width != b.width {
		panic("sim: Merge of states with different widths")
	}
	out := LogicState{width: a.width}
	n := wordCount(a.width)
	last := lastWordMask(a.width)
	var conflictBits uint64
	for i := 0; i < n; i++ {
		av, ap := a.value[i], a.plane[i]
		bv, bp := b.value[i], b.plane[i]

		aZ := ^av & ^ap
		bZ := ^bv & ^bp
		notAZ := ^aZ
		notBZ := ^bZ
		bothDefined := notAZ & notBZ
		neq := (av ^ bv) | (ap ^ bp)
		eq := ^neq

		ov := (aZ & bv) | (notAZ & bZ & av) | (bothDefined & (neq | av))
		op := (aZ & bp) | (notAZ & bZ & ap) | (bothDefined & (eq & ap))
		cw := bothDefined & neq

		if i == n-1 {
			ov &= last
			op &= last
			cw &= last
		}
		out.value[i] = ov
		out.plane[i] = op
		conflictBits |= cw
	}
	return out, conflictBits != 0
}

// MergeAll folds Merge over base and every element of drivers, in order.
// Since Merge is associative and commutative the result does not depend on
// the order in which drivers are folded.
func MergeAll(base LogicState, drivers ...LogicState) (result LogicState, conflict bool) {
	result = base
	for _, d := range drivers {
		var c bool
		result, c = Merge(result, d)
		conflict = conflict || c
	}
	return result, conflict
}

// shiftAmountWidth returns the width, in bits, of the smallest shift-amount
// operand able to name every shift distance in [0, width), per spec: ceil
// of log2(width), rounded up to at least one bit.
func shiftAmountWidth(width uint8) uint8 {
	if width <= 1 {
		return 1
	}
	n := bits.Len8(width - 1)
	if n == 0 {
		n = 1
	}
	return uint8(n)
}
