package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddAndOwnership(t *testing.T) {
	r := New([]string{"pattern_matching_query"})
	require.True(t, r.Contains("pattern_matching_query"))

	owner, err := r.GetOwnership("pattern_matching_query")
	require.NoError(t, err)
	assert.Equal(t, "", owner)

	require.NoError(t, r.SetOwnership("pattern_matching_query", "peer-a:1234"))
	owner, err = r.GetOwnership("pattern_matching_query")
	require.NoError(t, err)
	assert.Equal(t, "peer-a:1234", owner)
}

func TestRegistry_SetOwnership_SameOwnerIsNoop(t *testing.T) {
	r := New([]string{"cmd"})
	require.NoError(t, r.SetOwnership("cmd", "peer-a:1234"))
	require.NoError(t, r.SetOwnership("cmd", "peer-a:1234"))
}

func TestRegistry_SetOwnership_ConflictReturnsError(t *testing.T) {
	r := New([]string{"cmd"})
	require.NoError(t, r.SetOwnership("cmd", "peer-a:1234"))

	err := r.SetOwnership("cmd", "peer-b:5678")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOwnershipConflict)
}

func TestRegistry_UnknownCommand(t *testing.T) {
	r := New(nil)
	_, err := r.GetOwnership("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	err = r.SetOwnership("missing", "peer-a:1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestRegistry_AddAlreadyOwnedIsConflict(t *testing.T) {
	r := New([]string{"cmd"})
	require.NoError(t, r.SetOwnership("cmd", "peer-a:1234"))
	err := r.Add("cmd")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOwnershipConflict)
}
