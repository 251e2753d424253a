// Package space implements the atom-space façade: the single
// public surface a host symbolic runtime calls into. Only Query and Subst
// are implemented; Add, Remove and Replace return ErrNotImplemented, since
// the remote peer owns all mutation of the shared atom space in this
// protocol version.
package space

import (
	"context"
	"fmt"
	"strings"

	"github.com/singnet/dasbus/internal/drain"
	"github.com/singnet/dasbus/internal/queryproxy"
	"github.com/singnet/dasbus/internal/servicebus"
	"github.com/singnet/dasbus/internal/wireproto/properties"
)

// DistributedAtomSpace is the façade over one service bus.
type DistributedAtomSpace struct {
	bus         *servicebus.ServiceBus
	name        string
	contextName string
}

// New wraps bus as a named atom space for contextName (an empty context
// name addresses the remote peer's default context).
func New(bus *servicebus.ServiceBus, name, contextName string) *DistributedAtomSpace {
	return &DistributedAtomSpace{bus: bus, name: name, contextName: contextName}
}

// ErrNotImplemented is returned by every mutating façade operation.
var ErrNotImplemented = fmt.Errorf("space: not implemented (query/subst only)")

// Add would insert an atom into the shared space; not supported here.
func (s *DistributedAtomSpace) Add(string) error { return ErrNotImplemented }

// Remove would delete an atom from the shared space; not supported here.
func (s *DistributedAtomSpace) Remove(string) error { return ErrNotImplemented }

// Replace would swap one atom for another in the shared space; not
// supported here.
func (s *DistributedAtomSpace) Replace(string, string) error { return ErrNotImplemented }

// Query runs a pattern-matching query and returns the collected bindings,
// narrowed to the free variables named in queryText.
func (s *DistributedAtomSpace) Query(ctx context.Context, queryText string) ([]map[string]string, error) {
	props := properties.NewDefault()
	props.Set(properties.Context, properties.String(s.contextName))

	tokens, useMettaAsQueryTokens := drain.SplitTokens(queryText)
	props.Set(properties.UseMettaAsQueryTokens, properties.Bool(useMettaAsQueryTokens))

	contextKey := queryproxy.HashContext(s.contextName)
	proxy := queryproxy.NewPatternMatching(s.contextName, contextKey, props, tokens)

	if err := s.bus.IssueBusCommand(ctx, proxy.Base); err != nil {
		return nil, fmt.Errorf("space: issuing pattern matching query: %w", err)
	}

	variables := extractVariables(queryText)
	populateMetta := props.Get(properties.PopulateMettaMapping).AsBool()
	maxAnswers := props.Get(properties.MaxAnswers).AsUint64()

	return drain.PatternMatching(proxy, variables, populateMetta, maxAnswers)
}

// Subst runs Query and applies each result's bindings to template, textually
// replacing every "$name" occurrence - the façade's substitution primitive,
// not a full template-expansion language.
func (s *DistributedAtomSpace) Subst(ctx context.Context, queryText, template string) ([]string, error) {
	bindingsSet, err := s.Query(ctx, queryText)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(bindingsSet))
	for _, bindings := range bindingsSet {
		instance := template
		for name, value := range bindings {
			instance = strings.ReplaceAll(instance, "$"+name, value)
		}
		out = append(out, instance)
	}
	return out, nil
}

// extractVariables finds every "$name" token in queryText, matching the
// original's map_variables helper for plain-string queries (the Atom-typed
// path, which instead filters an already-parsed expression tree for
// VariableAtom nodes, has no analogue here since this façade never
// receives a parsed atom - only its source text).
func extractVariables(queryText string) map[string]struct{} {
	vars := map[string]struct{}{}
	for _, field := range strings.Fields(queryText) {
		field = strings.Trim(field, "()")
		if strings.HasPrefix(field, "$") && len(field) > 1 {
			vars[strings.TrimPrefix(field, "$")] = struct{}{}
		}
	}
	return vars
}
