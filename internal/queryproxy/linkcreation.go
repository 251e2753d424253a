package queryproxy

import (
	"crypto/md5" //nolint:gosec // wire-compatibility requirement, not a security hash
	"encoding/hex"
	"fmt"

	"github.com/singnet/dasbus/internal/wireproto/properties"
)

// LinkCreationCommand is the bus command this proxy issues.
const LinkCreationCommand = "link_creation"

// LinkCreationParams carries one query atom and the set of link templates
// to instantiate with its bindings.
type LinkCreationParams struct {
	Query     string
	Templates []string
}

// LinkCreation wraps Base with the link-creation proxy's positional arg
// layout: [properties..., query, templates...].
type LinkCreation struct {
	*Base
	ID string
}

// NewLinkCreation builds a link-creation proxy. ID is a hash of the peer id
// and serial number, used only as a debug correlation id (the remote peer
// does not require it to match anything).
func NewLinkCreation(contextName, contextKey, peerID string, serial uint64, props *properties.Properties, params LinkCreationParams) *LinkCreation {
	base := New(LinkCreationCommand, props, "")
	base.ContextName = contextName
	base.ContextKey = contextKey
	base.Serial = serial

	args := append([]string{}, props.Serialize()...)
	args = append(args, params.Query)
	args = append(args, params.Templates...)
	base.Args = args

	sum := md5.Sum([]byte(fmt.Sprintf("%s%d", peerID, serial)))
	id := hex.EncodeToString(sum[:])

	return &LinkCreation{Base: base, ID: id}
}
