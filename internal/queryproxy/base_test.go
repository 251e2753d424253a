package queryproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singnet/dasbus/internal/wireproto/properties"
)

func TestBase_PushPopOrdering(t *testing.T) {
	b := New("test_cmd", properties.NewDefault(), "req:1")

	require.NoError(t, b.Push("a"))
	require.NoError(t, b.Push("b"))

	v, ok := b.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = b.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = b.Pop()
	assert.False(t, ok)
}

func TestBase_Finished_RequiresEmptyQueueAfterFlowEnds(t *testing.T) {
	b := New("test_cmd", properties.NewDefault(), "req:1")

	assert.False(t, b.Finished())

	require.NoError(t, b.Push("a"))
	b.SetFinished()
	// flow finished but queue non-empty: not finished yet.
	assert.False(t, b.Finished())

	_, _ = b.Pop()
	// flow finished and queue now empty: finished.
	assert.True(t, b.Finished())
}

func TestBase_Abort_SuppressesFurtherPops(t *testing.T) {
	b := New("test_cmd", properties.NewDefault(), "req:1")
	require.NoError(t, b.Push("a"))

	b.Abort()
	assert.True(t, b.Finished())

	_, ok := b.Pop()
	assert.False(t, ok, "abort must suppress delivery of already-queued answers")
}

func TestBase_Push_CountsEvenAfterFinishedOrAbort(t *testing.T) {
	b := New("test_cmd", properties.NewDefault(), "req:1")
	require.NoError(t, b.Push("a"))
	b.SetFinished()
	require.NoError(t, b.Push("late"))
	assert.Equal(t, uint64(2), b.GetCount(), "a late push after finished must still be counted")

	b2 := New("test_cmd", properties.NewDefault(), "req:1")
	require.NoError(t, b2.Push("a"))
	b2.Abort()
	require.NoError(t, b2.Push("late"))
	assert.Equal(t, uint64(2), b2.GetCount(), "a late push after abort must still be counted")
}

func TestBase_GetCount_Monotonic(t *testing.T) {
	b := New("test_cmd", properties.NewDefault(), "req:1")
	require.NoError(t, b.Push("a"))
	require.NoError(t, b.Push("b"))
	assert.Equal(t, uint64(2), b.GetCount())

	_, _ = b.Pop()
	_, _ = b.Pop()
	assert.Equal(t, uint64(2), b.GetCount(), "popping must never decrease the running count")
}

func TestBase_CountFlag_NeverPops(t *testing.T) {
	props := properties.NewDefault()
	props.Set(properties.CountFlag, properties.Bool(true))
	b := New("test_cmd", props, "req:1")

	require.NoError(t, b.Push("a"))
	_, ok := b.Pop()
	assert.False(t, ok)
}

func TestBase_SetOwnership_ServiceList(t *testing.T) {
	b := New("discovery", properties.NewDefault(), "req:1")
	b.SetOwnership("peer-a:1234", "pattern_matching_query")

	list := b.ServiceList()
	assert.Equal(t, "peer-a:1234", list["pattern_matching_query"])
}
