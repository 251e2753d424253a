package starnode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singnet/dasbus/proto"
)

type fakeSink struct {
	pushed       []string
	owner        map[string]string
	evalFitness  [][]string
	aborted      bool
	finished     bool
	remotePeer   string
}

func newFakeSink() *fakeSink {
	return &fakeSink{owner: map[string]string{}}
}

func (f *fakeSink) toSink() Sink {
	return Sink{
		Push: func(token string) error {
			f.pushed = append(f.pushed, token)
			return nil
		},
		SetOwnership: func(owner, command string) {
			f.owner[command] = owner
		},
		QueueEvalFitness: func(args []string) {
			f.evalFitness = append(f.evalFitness, args)
		},
		SetAbort:      func() { f.aborted = true },
		SetFinished:   func() { f.finished = true },
		SetRemotePeer: func(peerID string) { f.remotePeer = peerID },
	}
}

func TestDispatcher_SetCommandOwnership(t *testing.T) {
	sink := newFakeSink()
	d := NewDispatcher(sink.toSink())

	_, err := d.ExecuteMessage(&proto.MessageData{
		Command: "set_command_ownership",
		Args:    []string{"peer-a:1234", "pattern_matching_query"},
	})
	require.NoError(t, err)
	assert.Equal(t, "peer-a:1234", sink.owner["pattern_matching_query"])
}

func TestDispatcher_TokenStream_PushesUntilFinished(t *testing.T) {
	sink := newFakeSink()
	d := NewDispatcher(sink.toSink())

	_, err := d.ExecuteMessage(&proto.MessageData{
		Command: "bus_command_proxy",
		Args:    []string{"answer1", "answer_bundle", "answer2", "finished"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"answer1", "answer2"}, sink.pushed)
	assert.True(t, sink.finished)
	assert.False(t, sink.aborted)
}

func TestDispatcher_PeerError_Aborts(t *testing.T) {
	sink := newFakeSink()
	d := NewDispatcher(sink.toSink())

	_, err := d.ExecuteMessage(&proto.MessageData{
		Command: "bus_command_proxy",
		Args:    []string{"answer1", "peer_error"},
	})
	require.NoError(t, err)
	assert.True(t, sink.aborted)
	assert.Empty(t, sink.pushed, "peer_error must drop all remaining args, pushing nothing")
}

func TestDispatcher_EvalFitness_QueuesAndRecordsSender(t *testing.T) {
	sink := newFakeSink()
	d := NewDispatcher(sink.toSink())

	_, err := d.ExecuteMessage(&proto.MessageData{
		Command: "bus_command_proxy",
		Args:    []string{"answer1", "eval_fitness"},
		Sender:  "peer-b:5678",
	})
	require.NoError(t, err)
	assert.Equal(t, "peer-b:5678", sink.remotePeer)
	require.Len(t, sink.evalFitness, 1)
	assert.Equal(t, []string{"answer1", "eval_fitness"}, sink.evalFitness[0])
}

func TestDispatcher_IgnoredCommands_Ack(t *testing.T) {
	sink := newFakeSink()
	d := NewDispatcher(sink.toSink())

	ack, err := d.ExecuteMessage(&proto.MessageData{Command: "node_joined_network", Args: []string{"x"}})
	require.NoError(t, err)
	assert.True(t, ack.Ok)
	assert.Empty(t, sink.pushed)
}
