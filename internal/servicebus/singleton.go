package servicebus

import (
	"context"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/singnet/dasbus/internal/logging"
	"github.com/singnet/dasbus/internal/proxynode"
	"github.com/singnet/dasbus/internal/queryproxy"
	"github.com/singnet/dasbus/internal/wireproto/properties"
)

var slog = logging.Scope("servicebus")

// singleton holds the process-wide ServiceBus pointer. Init/Provide both
// overwrite it unconditionally - last writer wins - so a second init
// replaces the previous instance rather than panicking.
var singleton unsafe.Pointer // *ServiceBus

// Init brings up a fresh ServiceBus for [portLower, portUpper] bound to
// host, joins the network through knownPeer, and installs it as the
// process singleton. A second call to Init replaces the previous instance
// entirely (idempotent, last-wins - not additive).
func Init(ctx context.Context, host, knownPeer string, portLower, portUpper uint16) error {
	sb, err := New(host, portLower, portUpper, knownPeer)
	if err != nil {
		return err
	}

	// The discovery proxy is bound directly to this node's own host id
	// (the processor-side SetupProxyNode path) rather than issued as a bus
	// command: it is the passive listener peers' set_command_ownership
	// announcements land on, not a request awaiting an answer stream.
	discovery := queryproxy.New(
		"discovery",
		properties.NewDefault(),
		sb.BusNode.HostID,
	)
	discoveryHost, _, err := proxynode.ParseHostPort(sb.BusNode.HostID)
	if err != nil {
		return err
	}
	if err := discovery.SetupProxyNode(discoveryHost, sb.BusNode.HostID, ""); err != nil {
		slog.Warnw("discovery proxy setup failed", "error", err)
	}

	go func() {
		if err := sb.JoinNetworkThread(ctx, discovery); err != nil {
			slog.Infow("join network thread stopped", "error", err)
		}
	}()

	Provide(sb)
	return nil
}

// Provide installs sb as the process singleton directly, for tests that
// want to construct a ServiceBus themselves.
func Provide(sb *ServiceBus) {
	atomic.StorePointer(&singleton, unsafe.Pointer(sb))
}

// Get returns the current singleton, or an error if Init/Provide was never
// called.
func Get() (*ServiceBus, error) {
	p := atomic.LoadPointer(&singleton)
	if p == nil {
		return nil, fmt.Errorf("servicebus: singleton not initialized")
	}
	return (*ServiceBus)(p), nil
}
