package queryproxy

import (
	"github.com/singnet/dasbus/internal/wireproto/properties"
)

// InferenceCommand is the bus command this proxy issues.
const InferenceCommand = "inference"

// Inference request-type constants, the fixed vocabulary the remote
// inference engine accepts.
const (
	ProofOfImplicationOrEquivalence = "PROOF_OF_IMPLICATION_OR_EQUIVALENCE"
	ProofOfImplication              = "PROOF_OF_IMPLICATION"
	ProofOfEquivalence              = "PROOF_OF_EQUIVALENCE"
)

// InferenceParams carries an inference proxy's request type, the two
// handles it relates, and the proof-length bound.
type InferenceParams struct {
	RequestType    string
	Handle1        string
	Handle2        string
	MaxProofLength string
}

// Inference wraps Base with the inference proxy's positional arg layout.
type Inference struct {
	*Base
}

// NewInference builds an inference proxy. The literal "0" pushed before
// RequestType and the ContextKey duplicated at the tail are both unresolved
// TODOs in this wire layout ("shouldn't this be the query length?" /
// "duplicated context key?") left as-is: any fix here would break wire
// compatibility with an existing inference engine expecting this exact
// layout.
func NewInference(contextName, contextKey string, props *properties.Properties, params InferenceParams) *Inference {
	base := New(InferenceCommand, props, "")
	base.ContextName = contextName
	base.ContextKey = contextKey

	args := append([]string{}, props.Serialize()...)
	args = append(args,
		contextKey,
		"0", // TODO: shouldn't this be the query length?
		params.RequestType,
		params.Handle1,
		params.Handle2,
		params.MaxProofLength,
		contextKey, // TODO: duplicated context key, unresolved in the upstream client too
	)
	base.Args = args

	return &Inference{Base: base}
}
