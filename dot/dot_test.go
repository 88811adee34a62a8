package dot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitkit/logicsim"
)

func buildAndGate(t *testing.T) *sim.Builder {
	t.Helper()
	b := sim.NewBuilder()
	a, err := b.AddWire(1)
	require.NoError(t, err)
	c, err := b.AddWire(1)
	require.NoError(t, err)
	out, err := b.AddWire(1)
	require.NoError(t, err)
	require.NoError(t, b.SetWireName(a, "a"))
	require.NoError(t, b.SetWireName(c, "c"))
	require.NoError(t, b.SetWireName(out, "out"))
	id, err := b.AddAnd([]sim.WireID{a, c}, out)
	require.NoError(t, err)
	require.NoError(t, b.SetComponentName(id, "g0"))
	return b
}

func TestWriteWithoutStates(t *testing.T) {
	b := buildAndGate(t)
	var sb strings.Builder
	require.NoError(t, Write(&sb, b, nil))
	out := sb.String()
	assert.True(t, strings.HasPrefix(out, "digraph logicsim {"))
	assert.Contains(t, out, "w0")
	assert.Contains(t, out, "c0")
	assert.Contains(t, out, "g0")
	assert.Contains(t, out, "w0 -> c0")
	assert.Contains(t, out, "c0 -> w2")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "}"))
}

func TestWriteWithStates(t *testing.T) {
	b := buildAndGate(t)
	s, err := b.Build()
	require.NoError(t, err)
	_, err = s.Settle(0)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Write(&sb, b, s))
	out := sb.String()
	assert.Contains(t, out, "Z")
}
