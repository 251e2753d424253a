package properties

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue_Order(t *testing.T) {
	assert.Equal(t, Bool(true), ParseValue("true"))
	assert.Equal(t, Uint64(42), ParseValue("42"))
	assert.Equal(t, Int64(-42), ParseValue("-42"))
	assert.Equal(t, Float64(3.5), ParseValue("3.5"))
	assert.Equal(t, String("hello"), ParseValue("hello"))
}

func TestSerializeAndParseTriples_RoundTrip(t *testing.T) {
	p := New()
	p.Set("max_answers", Uint64(1000))
	p.Set(Context, String("my-context"))
	p.Set(ElitismRate, Float64(0.08))
	p.Set(UniqueAssignmentFlag, Bool(true))

	wire := p.Serialize()

	parsed, consumed, err := ParseTriples(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), consumed)

	assert.Equal(t, uint64(1000), parsed.Get("max_answers").AsUint64())
	assert.Equal(t, "my-context", parsed.Get(Context).String())
	assert.InDelta(t, 0.08, parsed.Get(ElitismRate).AsFloat64(), 1e-9)
	assert.True(t, parsed.Get(UniqueAssignmentFlag).AsBool())
}

func TestSerialize_LeadingCountIsElementCountNotTripleCount(t *testing.T) {
	p := New()
	p.Set("max_answers", Uint64(1000))
	p.Set(Context, String("my-context"))

	wire := p.Serialize()

	assert.Equal(t, "6", wire[0])
	assert.Len(t, wire, 7)
}

func TestNewDefault_FixedConstants(t *testing.T) {
	p := NewDefault()
	assert.Equal(t, uint64(1000), p.Get(MaxAnswers).AsUint64())
	assert.Equal(t, uint64(50), p.Get(PopulationSize).AsUint64())
	assert.True(t, p.Get(PopulateMettaMapping).AsBool())
	assert.InDelta(t, 0.70, p.Get(InitialSpreadingRateUpperbound).AsFloat64(), 1e-9)
}

func TestParseTriples_TruncatedIsError(t *testing.T) {
	_, _, err := ParseTriples([]string{"3", "only_one_field"})
	require.Error(t, err)
}
