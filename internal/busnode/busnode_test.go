package busnode_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singnet/dasbus/internal/busnode"
	"github.com/singnet/dasbus/test/stubserver"
)

func TestSendBusCommand_UnknownOwnerIsError(t *testing.T) {
	n := busnode.New("localhost:1", "localhost:2", []string{"pattern_matching_query"})

	err := n.SendBusCommand(context.Background(), "pattern_matching_query", []string{"a"})
	require.Error(t, err)
}

func TestSendBusCommand_DispatchesToOwner(t *testing.T) {
	stub, err := stubserver.Start("127.0.0.1:0")
	require.NoError(t, err)
	defer stub.Close()

	n := busnode.New("localhost:1", "localhost:2", []string{"pattern_matching_query"})
	require.NoError(t, n.Bus.SetOwnership("pattern_matching_query", stub.Addr()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, n.SendBusCommand(ctx, "pattern_matching_query", []string{"tok1", "tok2"}))

	received := stub.Received()
	require.Len(t, received, 1)
	assert.Equal(t, "pattern_matching_query", received[0].Command)
	assert.Equal(t, []string{"tok1", "tok2"}, received[0].Args)
}
