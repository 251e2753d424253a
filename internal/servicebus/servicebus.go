// Package servicebus implements the service bus and its process
// singleton: the entry point every query proxy goes through to get
// an ephemeral endpoint, a serial number, and a dispatched bus command.
package servicebus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/singnet/dasbus/internal/busnode"
	"github.com/singnet/dasbus/internal/logging"
	"github.com/singnet/dasbus/internal/portpool"
	"github.com/singnet/dasbus/internal/proxynode"
	"github.com/singnet/dasbus/internal/queryproxy"
)

var log = logging.Scope("servicebus")

// FixedCommands is the bus command set every service bus registers at
// construction.
var FixedCommands = []string{
	queryproxy.PatternMatchingCommand,
	queryproxy.EvolutionCommand,
	queryproxy.LinkCreationCommand,
	queryproxy.InferenceCommand,
	queryproxy.ContextCommand,
}

// ServiceBus issues bus commands on behalf of query proxies, allocating
// each its own ephemeral port and serial number.
type ServiceBus struct {
	mu                sync.Mutex
	BusNode           *busnode.Node
	nextRequestSerial atomic.Uint64

	cancel context.CancelFunc
}

// New brings up the port pool for [portLower, portUpper], leases the first
// port to become this node's own host id, and constructs the bus node.
func New(host string, portLower, portUpper uint16, knownPeer string) (*ServiceBus, error) {
	if err := portpool.Initialize(portLower, portUpper); err != nil {
		return nil, fmt.Errorf("servicebus: initializing port pool: %w", err)
	}
	pool, err := portpool.Instance()
	if err != nil {
		return nil, err
	}
	port, err := pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("servicebus: leasing host port: %w", err)
	}
	hostID := fmt.Sprintf("%s:%d", host, port)

	node := busnode.New(hostID, knownPeer, FixedCommands)

	return &ServiceBus{BusNode: node}, nil
}

// IssueBusCommand allocates a proxy port, opens the proxy's inbound
// endpoint, and dispatches its command to the currently-known owner. A
// dispatch failure marks the proxy's answer flow finished rather than
// propagating - the caller learns about the failure by observing
// Finished() return true with zero answers.
func (sb *ServiceBus) IssueBusCommand(ctx context.Context, proxy *queryproxy.Base) error {
	proxy.RequestorID = sb.BusNode.HostID
	serial := sb.nextRequestSerial.Inc()
	proxy.Serial = serial

	if err := proxy.AcquirePort(); err != nil {
		proxy.SetFinished()
		return fmt.Errorf("servicebus: acquiring proxy port: %w", err)
	}

	host, _, err := proxynode.ParseHostPort(sb.BusNode.HostID)
	if err != nil {
		proxy.SetFinished()
		return err
	}
	if err := proxy.SetupProxyNode(host, "", ""); err != nil {
		proxy.SetFinished()
		return fmt.Errorf("servicebus: setting up proxy node: %w", err)
	}

	args := append([]string{proxy.RequestorID, fmt.Sprintf("%d", serial), proxy.ProxyNodeID()}, proxy.Args...)

	if err := sb.BusNode.SendBusCommand(ctx, proxy.Command, args); err != nil {
		log.Warnw("bus command dispatch failed, ending answer flow", "command", proxy.Command, "error", err)
		proxy.SetFinished()
		return nil
	}
	return nil
}

// JoinNetworkThread runs the join handshake once, then periodically merges
// the discovery proxy's observed service list into the bus registry until
// ctx is cancelled. It is meant to run for the lifetime of the process,
// spawned as a goroutine from the singleton's Init.
func (sb *ServiceBus) JoinNetworkThread(ctx context.Context, discovery *queryproxy.Base) error {
	if err := sb.BusNode.JoinNetwork(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sb.BusNode.MergeDiscovered(discovery.ServiceList())
		}
	}
}
