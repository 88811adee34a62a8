package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitkit/logicsim/simerr"
)

func TestFromStringRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "Z", "X", "10XZ", "11111111", "Z0X1Z0X1"} {
		st, err := FromString(s)
		require.NoError(t, err)
		assert.Equal(t, s, st.String())
		assert.Equal(t, uint8(len(s)), st.Width())
	}
}

func TestFromStringRejectsGarbage(t *testing.T) {
	_, err := FromString("012")
	require.Error(t, err)
	code, ok := simerr.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, simerr.MalformedFormat, code)
}

func TestBitAccessors(t *testing.T) {
	st, err := FromString("10XZ")
	require.NoError(t, err)
	assert.Equal(t, Logic1, st.Bit(3))
	assert.Equal(t, Logic0, st.Bit(2))
	assert.Equal(t, Undefined, st.Bit(1))
	assert.Equal(t, HighZ, st.Bit(0))
}

func TestMergeIdentityAndIdempotence(t *testing.T) {
	z := HighZState(8)
	v, err := FromString("00110101")
	require.NoError(t, err)

	m1, conflict := Merge(v, z)
	assert.False(t, conflict)
	assert.True(t, m1.Equal(v))

	m2, conflict := Merge(z, v)
	assert.False(t, conflict)
	assert.True(t, m2.Equal(v))

	m3, conflict := Merge(v, v)
	assert.False(t, conflict)
	assert.True(t, m3.Equal(v))
}

func TestMergeConflict(t *testing.T) {
	a := AllZero(4)
	b := AllOne(4)
	m, conflict := Merge(a, b)
	require.True(t, conflict)
	assert.Equal(t, AllUndefined(4).String(), m.String())
}

func TestMergeCommutativeAndAssociative(t *testing.T) {
	a, _ := FromString("Z01X")
	b, _ := FromString("0Z1X")
	c, _ := FromString("ZZ1X")

	ab, _ := Merge(a, b)
	ba, _ := Merge(b, a)
	assert.True(t, ab.Equal(ba))

	abc1, _ := Merge(ab, c)
	bc, _ := Merge(b, c)
	abc2, _ := Merge(a, bc)
	assert.True(t, abc1.Equal(abc2))
}

func TestMergeAll(t *testing.T) {
	z := HighZState(4)
	one, _ := FromString("0001")
	result, conflict := MergeAll(z, z, z, one, z)
	assert.False(t, conflict)
	assert.True(t, result.Equal(one))
}

func TestUint32RoundTrip(t *testing.T) {
	s := FromUint64(0xDEADBEEF, 32)
	v, err := s.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestUint32RejectsUndefined(t *testing.T) {
	s, _ := FromString("X000")
	_, err := s.Uint32()
	require.Error(t, err)
}

func TestShiftAmountWidth(t *testing.T) {
	assert.Equal(t, uint8(1), shiftAmountWidth(1))
	assert.Equal(t, uint8(3), shiftAmountWidth(8))
	assert.Equal(t, uint8(4), shiftAmountWidth(9))
	assert.Equal(t, uint8(8), shiftAmountWidth(255))
}
