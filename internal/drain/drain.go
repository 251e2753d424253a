// Package drain implements the shared poll-and-pop shape every query
// variant uses to turn an asynchronous answer stream into a synchronous
// slice of bindings.
package drain

import (
	"strings"
	"time"

	"github.com/singnet/dasbus/internal/evolution"
	"github.com/singnet/dasbus/internal/logging"
	"github.com/singnet/dasbus/internal/queryproxy"
	"github.com/singnet/dasbus/internal/wireproto/queryanswer"
)

var log = logging.Scope("proxy")

const idlePoll = 100 * time.Millisecond

// narrow reduces a full binding set to the variables the caller actually
// asked for, matching Bindings::narrow_vars - answers may carry internal
// bookkeeping variables the caller never named.
func narrow(bindings map[string]string, variables map[string]struct{}) map[string]string {
	if len(variables) == 0 {
		return bindings
	}
	out := make(map[string]string, len(variables))
	for name := range variables {
		if v, ok := bindings[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Finisher is satisfied by every specialized proxy via its embedded Base.
type Finisher interface {
	Finished() bool
	Pop() (string, bool)
	Close()
}

// PatternMatching drains proxy until its answer flow finishes or
// maxAnswers bindings have been collected (0 means unbounded), then closes
// it.
func PatternMatching(proxy *queryproxy.PatternMatching, variables map[string]struct{}, populateMetta bool, maxAnswers uint64) ([]map[string]string, error) {
	defer proxy.Close()
	return drainLoop(proxy.Base, variables, populateMetta, maxAnswers, nil)
}

// Evolution drains proxy the same way PatternMatching does, additionally
// running the fitness feedback step every iteration.
func Evolution(proxy *queryproxy.Evolution, variables map[string]struct{}, populateMetta bool, maxAnswers uint64) ([]map[string]string, error) {
	defer proxy.Close()
	return drainLoop(proxy.Base, variables, populateMetta, maxAnswers, func() error {
		return evolution.EvalFitness(proxy)
	})
}

func drainLoop(base *queryproxy.Base, variables map[string]struct{}, populateMetta bool, maxAnswers uint64, step func() error) ([]map[string]string, error) {
	var results []map[string]string
	for !base.Finished() {
		if step != nil {
			if err := step(); err != nil {
				return results, err
			}
		}
		token, ok := base.Pop()
		if !ok {
			time.Sleep(idlePoll)
			continue
		}
		answer, err := queryanswer.Parse(token)
		if err != nil {
			// A protocol violation ends the query: abort the proxy, which
			// makes Finished report true and ends this loop.
			log.Warnw("malformed answer, aborting query", "error", err)
			base.Abort()
			continue
		}
		results = append(results, narrow(answer.Bindings(populateMetta), variables))
		if maxAnswers > 0 && uint64(len(results)) >= maxAnswers {
			break
		}
	}
	return results, nil
}

// Context polls proxy until the remote peer signals the context is ready.
func Context(proxy *queryproxy.ContextBroker) (name, key string) {
	for !proxy.IsContextCreated() {
		time.Sleep(idlePoll)
	}
	return proxy.ContextName, proxy.ContextKey
}

// SplitTokens decides whether a query's text is one opaque
// metta-expression token or a pre-split sequence: the LINK_TEMPLATE prefix
// (and, as an enrichment covering S-expression-preserving forms, a leading
// "(") both trigger a quote-aware multi-token split; everything else is
// wrapped as a single token.
func SplitTokens(queryText string) (tokens []string, useMettaAsQueryTokens bool) {
	trimmed := strings.TrimSpace(queryText)
	if strings.HasPrefix(trimmed, "LINK_TEMPLATE") || strings.HasPrefix(trimmed, "(") {
		return splitIgnoreQuoted(queryText), false
	}
	return []string{queryText}, true
}

// splitIgnoreQuoted tokenizes on whitespace but treats single- or double-
// quoted spans as atomic.
func splitIgnoreQuoted(s string) []string {
	var tokens []string
	var cur strings.Builder
	var quote byte
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}
