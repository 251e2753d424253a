package queryproxy

import (
	"errors"
	"strconv"

	"github.com/singnet/dasbus/internal/wireproto/properties"
)

// ErrRunnerRequired is returned by NewEvolution when no FitnessRunner was
// supplied.
var ErrRunnerRequired = errors.New("queryproxy: a fitness runner is required for evolution queries")

// EvolutionCommand is the bus command this proxy issues.
const EvolutionCommand = "query_evolution"

// Markers exchanged on the evolution feedback channel.
const (
	RemoteFunction       = "remote_fitness_function"
	EvalFitness          = "eval_fitness"
	EvalFitnessResponse  = "eval_fitness_response"
)

// CorrelationReplacement is one (variable, binding) substitution entry.
type CorrelationReplacement struct {
	Key   string
	Value QueryElement
}

// EvolutionParams carries an evolutionary query's token, fitness function,
// and correlation schema.
type EvolutionParams struct {
	QueryToken           string
	FitnessFunction      string
	CorrelationQueries   [][]string
	CorrelationReplace   [][]CorrelationReplacement
	CorrelationMappings  [][2]QueryElement
}

// FitnessRunner is the injected capability that evaluates a fitness-
// function expression against the host symbolic runtime.
type FitnessRunner func(expression string) ([][]string, error)

// Evolution wraps Base with the evolutionary-query proxy's positional arg
// layout and the fitness-evaluation feedback loop.
type Evolution struct {
	*Base
	PopulationSize uint64
	FitnessFunction string
	Runner         FitnessRunner
}

// NewEvolution builds an evolution proxy. runner must be non-nil: an
// evolutionary query with no way to score candidates cannot make progress.
func NewEvolution(contextName, contextKey string, props *properties.Properties, params EvolutionParams, runner FitnessRunner) (*Evolution, error) {
	if runner == nil {
		return nil, ErrRunnerRequired
	}

	base := New(EvolutionCommand, props, "")
	base.ContextName = contextName
	base.ContextKey = contextKey

	args := append([]string{}, props.Serialize()...)
	args = append(args, contextKey, "1", params.QueryToken, RemoteFunction)

	args = append(args, strconv.Itoa(len(params.CorrelationQueries)))
	for _, tokens := range params.CorrelationQueries {
		args = append(args, strconv.Itoa(len(tokens)))
		args = append(args, tokens...)
	}

	args = append(args, strconv.Itoa(len(params.CorrelationReplace)))
	for _, replacements := range params.CorrelationReplace {
		args = append(args, strconv.Itoa(len(replacements)))
		for _, r := range replacements {
			args = append(args, r.Key, r.Value.String())
		}
	}

	args = append(args, strconv.Itoa(len(params.CorrelationMappings)))
	for _, pair := range params.CorrelationMappings {
		args = append(args, pair[0].String(), pair[1].String())
	}

	base.Args = args

	return &Evolution{
		Base:            base,
		PopulationSize:  props.Get(properties.PopulationSize).AsUint64(),
		FitnessFunction: params.FitnessFunction,
		Runner:          runner,
	}, nil
}
