package queryproxy

import (
	"crypto/md5" //nolint:gosec // wire-compatibility requirement, not a security hash
	"encoding/hex"
	"strconv"

	"github.com/singnet/dasbus/internal/wireproto/properties"
)

// ContextCommand is the bus command this proxy issues.
const ContextCommand = "context"

// HashContext renders the context name into the wire key every peer
// derives it to, so a context created once can be addressed by name
// thereafter.
func HashContext(name string) string {
	sum := md5.Sum([]byte(name))
	return hex.EncodeToString(sum[:])
}

// ContextBrokerParams carries a context-broker proxy's query token and its
// determiner/stimulus schema.
type ContextBrokerParams struct {
	QueryToken       string
	DeterminerSchema [][2]QueryElement
	StimulusSchema   []QueryElement
}

// ContextBroker wraps Base with the context-broker proxy's positional arg
// layout. The context name/key pair is pushed twice - the name folded into
// the property list under properties.Context and the key right after the
// properties, then both again explicitly at the tail - which
// is required for wire compatibility (see DESIGN.md's Open Question
// decisions), not a distillation artifact.
type ContextBroker struct {
	*Base
}

// NewContextBroker builds a context-broker proxy.
func NewContextBroker(contextName string, props *properties.Properties, params ContextBrokerParams) *ContextBroker {
	contextKey := HashContext(contextName)
	props = props.Clone()
	props.Set(properties.Context, properties.String(contextName))

	base := New(ContextCommand, props, "")
	base.ContextName = contextName
	base.ContextKey = contextKey

	args := append([]string{}, props.Serialize()...)
	args = append(args, contextKey, "1", params.QueryToken)

	args = append(args, strconv.Itoa(len(params.StimulusSchema)))
	for _, s := range params.StimulusSchema {
		args = append(args, s.String())
	}

	args = append(args, strconv.Itoa(len(params.DeterminerSchema)))
	for _, pair := range params.DeterminerSchema {
		args = append(args, pair[0].String(), pair[1].String())
	}

	args = append(args, contextKey, contextName)
	base.Args = args

	return &ContextBroker{Base: base}
}

// IsContextCreated reports whether the remote peer has signalled the
// context is ready.
func (c *ContextBroker) IsContextCreated() bool { return c.ContextCreated() }
