package queryproxy

import "fmt"

// QueryElement is either a resolved handle or a free variable, as carried
// in link-creation, context-broker and evolution correlation arguments.
// Its wire form distinguishes the two with a leading sigil: "_handle" for a
// handle, "$name" for a variable.
type QueryElement struct {
	isVariable bool
	value      string
}

// Handle wraps a resolved atom handle.
func Handle(h string) QueryElement { return QueryElement{value: h} }

// Variable wraps a free variable name (without its leading "$").
func Variable(name string) QueryElement { return QueryElement{isVariable: true, value: name} }

func (e QueryElement) String() string {
	if e.isVariable {
		return fmt.Sprintf("$%s", e.value)
	}
	return fmt.Sprintf("_%s", e.value)
}
