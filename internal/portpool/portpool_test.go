package portpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_AcquireRelease_HeadReuse(t *testing.T) {
	p, err := newPool(40000, 40002)
	require.NoError(t, err)

	a, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, uint16(40000), a)

	b, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, uint16(40001), b)

	p.Release(a)
	// released port goes to the head of the free list, so the next
	// acquire must hand it back out before any port never yet leased.
	c, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestPool_Exhausted(t *testing.T) {
	p, err := newPool(50000, 50000)
	require.NoError(t, err)

	_, err = p.Acquire()
	require.NoError(t, err)

	_, err = p.Acquire()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestPool_InvalidRange(t *testing.T) {
	_, err := newPool(100, 50)
	require.Error(t, err)
}
