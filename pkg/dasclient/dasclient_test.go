package dasclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostPort_SinglePort(t *testing.T) {
	host, lo, hi, err := HostPort("0.0.0.0:42000")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", host)
	assert.Equal(t, uint16(42000), lo)
	assert.Equal(t, uint16(42000), hi)
}

func TestHostPort_Range(t *testing.T) {
	host, lo, hi, err := HostPort("localhost:42000-42999")
	require.NoError(t, err)
	assert.Equal(t, "localhost", host)
	assert.Equal(t, uint16(42000), lo)
	assert.Equal(t, uint16(42999), hi)
}

func TestHostPort_StripsSurroundingParens(t *testing.T) {
	host, lo, hi, err := HostPort("(0.0.0.0:42000-42010)")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", host)
	assert.Equal(t, uint16(42000), lo)
	assert.Equal(t, uint16(42010), hi)
}

func TestHostPort_MissingColonIsError(t *testing.T) {
	_, _, _, err := HostPort("no-colon-here")
	require.Error(t, err)
}

func TestHostPort_BadPortIsError(t *testing.T) {
	_, _, _, err := HostPort("host:notaport")
	require.Error(t, err)
}
