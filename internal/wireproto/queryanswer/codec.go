// Package queryanswer implements the positional, fixed-width wire codec for
// a single query answer frame, exactly as emitted by a remote peer: a
// strength, an importance, a handle set, a variable assignment, and
// (optionally) a metta-expression mapping from handle to source text.
package queryanswer

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	floatFieldWidth = 13
	handleWidth     = 32
	maxLabelWidth   = 100
	maxCountWidth   = 4
	maxCount        = 100
)

// Answer is a single parsed query-answer frame.
type Answer struct {
	Strength   float64
	Importance float64
	Handles    []string
	// Assignment maps a variable label to its raw handle. Bindings is what
	// substitutes the metta expression's source text for the handle.
	Assignment map[string]string
	MettaByHandle map[string]string
}

type reader struct {
	s   string
	pos int
}

func newReader(s string) *reader { return &reader{s: s} }

func (r *reader) eof() bool { return r.pos >= len(r.s) }

func (r *reader) skipSpaces() {
	for !r.eof() && r.s[r.pos] == ' ' {
		r.pos++
	}
}

// readToken scans up to maxWidth non-space, non-NUL characters, stopping at
// the next space. Exceeding maxWidth or hitting a NUL byte is a hard parse
// error, returned to the caller rather than panicking.
func (r *reader) readToken(maxWidth int) (string, error) {
	r.skipSpaces()
	start := r.pos
	for !r.eof() && r.s[r.pos] != ' ' {
		if r.s[r.pos] == 0 {
			return "", fmt.Errorf("queryanswer: NUL byte in token at offset %d", r.pos)
		}
		r.pos++
		if r.pos-start > maxWidth {
			return "", fmt.Errorf("queryanswer: token exceeds max width %d at offset %d", maxWidth, start)
		}
	}
	return r.s[start:r.pos], nil
}

// readMettaExpression scans one metta-expression token: a parenthesized
// group matched to its closing paren, a quoted string matched to its
// closing quote, or (failing both) a plain run of non-space characters.
// A backslash escapes the next character so it never closes the scan, and
// same-delimiter nesting depth is tracked with a counter (this is a depth
// counter on one delimiter, not a general bracket matcher: '"' does not
// nest, only '(' ')' do).
func (r *reader) readMettaExpression() (string, error) {
	r.skipSpaces()
	if r.eof() {
		return "", fmt.Errorf("queryanswer: expected metta expression, got EOF")
	}
	switch r.s[r.pos] {
	case '(':
		return r.scanBalanced('(', ')')
	case '"':
		return r.scanQuoted('"')
	default:
		return r.readToken(1 << 20)
	}
}

func (r *reader) scanBalanced(open, close byte) (string, error) {
	start := r.pos
	depth := 0
	escaped := false
	for !r.eof() {
		c := r.s[r.pos]
		r.pos++
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return r.s[start:r.pos], nil
			}
		}
	}
	return "", fmt.Errorf("queryanswer: unterminated expression starting at offset %d", start)
}

func (r *reader) scanQuoted(quote byte) (string, error) {
	start := r.pos
	r.pos++ // opening quote
	escaped := false
	for !r.eof() {
		c := r.s[r.pos]
		r.pos++
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == quote {
			return r.s[start:r.pos], nil
		}
	}
	return "", fmt.Errorf("queryanswer: unterminated quoted expression starting at offset %d", start)
}

func (r *reader) readCount() (int, error) {
	tok, err := r.readToken(maxCountWidth)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("queryanswer: bad count %q: %w", tok, err)
	}
	if n > maxCount {
		return 0, fmt.Errorf("queryanswer: count %d exceeds max %d", n, maxCount)
	}
	return n, nil
}

// Parse decodes one query-answer frame from its wire text.
func Parse(s string) (*Answer, error) {
	r := newReader(s)

	strengthTok, err := r.readToken(floatFieldWidth)
	if err != nil {
		return nil, err
	}
	strength, err := strconv.ParseFloat(strings.TrimSpace(strengthTok), 64)
	if err != nil {
		strength = 0.0
	}

	importanceTok, err := r.readToken(floatFieldWidth)
	if err != nil {
		return nil, err
	}
	importance, err := strconv.ParseFloat(strings.TrimSpace(importanceTok), 64)
	if err != nil {
		importance = 0.0
	}

	handleCount, err := r.readCount()
	if err != nil {
		return nil, err
	}
	handles := make([]string, 0, handleCount)
	for i := 0; i < handleCount; i++ {
		h, err := r.readToken(handleWidth)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}

	assignmentCount, err := r.readCount()
	if err != nil {
		return nil, err
	}
	assignment := make(map[string]string, assignmentCount)
	for i := 0; i < assignmentCount; i++ {
		label, err := r.readToken(maxLabelWidth)
		if err != nil {
			return nil, err
		}
		handle, err := r.readToken(handleWidth)
		if err != nil {
			return nil, err
		}
		assignment[label] = handle
	}

	mettaCount, err := r.readCount()
	if err != nil {
		return nil, err
	}
	mettaByHandle := make(map[string]string, mettaCount)
	for i := 0; i < mettaCount; i++ {
		handle, err := r.readToken(handleWidth)
		if err != nil {
			return nil, err
		}
		expr, err := r.readMettaExpression()
		if err != nil {
			return nil, err
		}
		mettaByHandle[handle] = expr
	}

	r.skipSpaces()
	if !r.eof() {
		return nil, fmt.Errorf("queryanswer: trailing data at offset %d", r.pos)
	}

	return &Answer{
		Strength:      strength,
		Importance:    importance,
		Handles:       handles,
		Assignment:    assignment,
		MettaByHandle: mettaByHandle,
	}, nil
}

// Bindings returns variable-name -> value-text, substituting the bound
// metta expression's source text for the raw handle when populateMetta is
// true and a mapping entry exists for that handle.
func (a *Answer) Bindings(populateMetta bool) map[string]string {
	out := make(map[string]string, len(a.Assignment))
	for label, handle := range a.Assignment {
		if populateMetta {
			if expr, ok := a.MettaByHandle[handle]; ok {
				out[label] = expr
				continue
			}
		}
		out[label] = handle
	}
	return out
}
