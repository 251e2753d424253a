package queryproxy

import (
	"strconv"

	"github.com/singnet/dasbus/internal/logging"
	"github.com/singnet/dasbus/internal/wireproto/properties"
)

// PatternMatchingCommand is the bus command this proxy issues.
const PatternMatchingCommand = "pattern_matching_query"

// PatternMatching wraps Base with a pattern-matching query's positional
// arg layout: [properties..., contextKey, nTokens, tokens...].
type PatternMatching struct {
	*Base
}

// NewPatternMatching builds a pattern-matching proxy for the given query
// tokens, already tokenized by the caller (internal/space decides whether
// the whole query text is one token or several).
func NewPatternMatching(contextName, contextKey string, props *properties.Properties, tokens []string) *PatternMatching {
	base := New(PatternMatchingCommand, props, "")
	base.ContextName = contextName
	base.ContextKey = contextKey

	args := append([]string{}, props.Serialize()...)
	args = append(args, contextKey, strconv.Itoa(len(tokens)))
	args = append(args, tokens...)
	base.Args = args

	log := logging.Scope("proxy")
	log.Debugw("pattern matching query built", "tokens", tokens, "context", contextName)

	return &PatternMatching{Base: base}
}
