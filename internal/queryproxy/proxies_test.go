package queryproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singnet/dasbus/internal/wireproto/properties"
)

func TestPatternMatching_ArgLayout(t *testing.T) {
	props := properties.New()
	proxy := NewPatternMatching("ctx", "ctxkey", props, []string{"(Similarity $X cat)"})

	args := proxy.Args
	// properties.Serialize() on an empty bag is just ["0"].
	require.Equal(t, []string{"0", "ctxkey", "1", "(Similarity $X cat)"}, args)
}

func TestInference_ArgLayout_PreservesLiteralZeroAndDuplicateKey(t *testing.T) {
	props := properties.New()
	proxy := NewInference("ctx", "ctxkey", props, InferenceParams{
		RequestType:    ProofOfImplication,
		Handle1:        "h1",
		Handle2:        "h2",
		MaxProofLength: "10",
	})

	expected := []string{"0", "ctxkey", "0", ProofOfImplication, "h1", "h2", "10", "ctxkey"}
	assert.Equal(t, expected, proxy.Args)
}

func TestLinkCreation_ArgLayout(t *testing.T) {
	props := properties.New()
	proxy := NewLinkCreation("ctx", "ctxkey", "peer:1234", 7, props, LinkCreationParams{
		Query:     "(query)",
		Templates: []string{"(template1)", "(template2)"},
	})

	expected := []string{"0", "(query)", "(template1)", "(template2)"}
	assert.Equal(t, expected, proxy.Args)
	assert.Len(t, proxy.ID, 32, "md5 hex digest is 32 characters")
}

func TestContextBroker_DuplicatesContextTail(t *testing.T) {
	props := properties.New()
	proxy := NewContextBroker("my-context", props, ContextBrokerParams{
		QueryToken: "(token)",
	})

	key := HashContext("my-context")
	// tail must repeat contextKey and contextName even though context was
	// already folded into the property list.
	args := proxy.Args
	require.True(t, len(args) >= 2)
	assert.Equal(t, key, args[len(args)-2])
	assert.Equal(t, "my-context", args[len(args)-1])
}

func TestEvolution_RequiresRunner(t *testing.T) {
	props := properties.New()
	_, err := NewEvolution("ctx", "ctxkey", props, EvolutionParams{QueryToken: "(q)"}, nil)
	require.ErrorIs(t, err, ErrRunnerRequired)
}

func TestEvolution_ArgLayout(t *testing.T) {
	props := properties.New()
	proxy, err := NewEvolution("ctx", "ctxkey", props, EvolutionParams{
		QueryToken:      "(q)",
		FitnessFunction: "(+ $X 1)",
		CorrelationQueries: [][]string{
			{"(a)", "(b)"},
		},
	}, func(string) ([][]string, error) { return nil, nil })
	require.NoError(t, err)

	expected := []string{
		"0", "ctxkey", "1", "(q)", RemoteFunction,
		"1", "2", "(a)", "(b)",
		"0",
		"0",
	}
	assert.Equal(t, expected, proxy.Args)
}
