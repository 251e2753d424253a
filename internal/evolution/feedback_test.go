package evolution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singnet/dasbus/internal/evolution"
	"github.com/singnet/dasbus/internal/queryproxy"
	"github.com/singnet/dasbus/internal/wireproto/properties"
)

func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s[:width]
}

func basicAnswerFrame(handleForX string) string {
	strength := pad("1.0", 13)
	importance := pad("1.0", 13)
	handle := pad(handleForX, 32)
	return strength + " " + importance + " 0 1 X " + handle + " 0"
}

func newEvolutionProxy(t *testing.T, runner queryproxy.FitnessRunner) *queryproxy.Evolution {
	t.Helper()
	props := properties.NewDefault()
	proxy, err := queryproxy.NewEvolution("ctx", "ctxkey", props, queryproxy.EvolutionParams{
		QueryToken:      "(q)",
		FitnessFunction: "(+ $X 1)",
	}, runner)
	require.NoError(t, err)
	// ToRemotePeer needs a proxy node wired up, even though this test never
	// expects the fire-and-forget send to actually land anywhere.
	require.NoError(t, proxy.SetupProxyNode("", "127.0.0.1:0", ""))
	t.Cleanup(proxy.Close)
	return proxy
}

func TestEvalFitness_NoQueueIsNoop(t *testing.T) {
	proxy := newEvolutionProxy(t, func(string) ([][]string, error) { return nil, nil })
	require.NoError(t, evolution.EvalFitness(proxy))
}

func TestEvalFitness_SkipsMalformedAndRunsFitnessFunction(t *testing.T) {
	var gotExpression string
	runner := func(expr string) ([][]string, error) {
		gotExpression = expr
		return [][]string{{"2", "3"}}, nil
	}
	proxy := newEvolutionProxy(t, runner)

	proxy.QueueEvalFitness([]string{queryproxy.EvalFitness, "not-a-valid-answer-frame", basicAnswerFrame("10")})

	require.NoError(t, evolution.EvalFitness(proxy))
	assert.Contains(t, gotExpression, "!(+ ")
	assert.Empty(t, proxy.DrainEvalFitness(), "queue must be fully drained")
}
