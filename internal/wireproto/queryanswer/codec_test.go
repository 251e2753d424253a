package queryanswer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s[:width]
}

func TestParse_BasicFrame(t *testing.T) {
	strength := pad("0.9", floatFieldWidth)
	importance := pad("0.8", floatFieldWidth)
	handle := pad("h1", handleWidth)

	frame := strength + " " + importance + " " +
		"1 " + handle + " " +
		"0 " +
		"0"

	a, err := Parse(frame)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, a.Strength, 1e-9)
	assert.InDelta(t, 0.8, a.Importance, 1e-9)
	require.Len(t, a.Handles, 1)
	assert.Equal(t, "h1", a.Handles[0])
	assert.Empty(t, a.Assignment)
}

func TestParse_AssignmentAndMettaMapping(t *testing.T) {
	strength := pad("1.0", floatFieldWidth)
	importance := pad("1.0", floatFieldWidth)
	handle := pad("deadbeef", handleWidth)

	frame := strength + " " + importance + " " +
		"0 " +
		"1 X " + handle + " " +
		"1 " + handle + ` (Similarity "cat" "dog")`

	a, err := Parse(frame)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", a.Assignment["X"])
	assert.Equal(t, `(Similarity "cat" "dog")`, a.MettaByHandle["deadbeef"])

	bindings := a.Bindings(true)
	assert.Equal(t, `(Similarity "cat" "dog")`, bindings["X"])

	bindingsRaw := a.Bindings(false)
	assert.Equal(t, "deadbeef", bindingsRaw["X"])
}

func TestParse_TrailingGarbageIsError(t *testing.T) {
	strength := pad("1.0", floatFieldWidth)
	importance := pad("1.0", floatFieldWidth)
	frame := strength + " " + importance + " 0 0 0 extra"

	_, err := Parse(frame)
	require.Error(t, err)
}

func TestParse_BadStrengthDefaultsToZero(t *testing.T) {
	strength := pad("not-a-number", floatFieldWidth)
	importance := pad("1.0", floatFieldWidth)
	frame := strength + " " + importance + " 0 0 0"

	a, err := Parse(frame)
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.Strength)
}
