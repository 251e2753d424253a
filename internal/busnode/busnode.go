// Package busnode implements the bus node: the join-network
// handshake, the periodic discovery-merge loop, and dispatch of bus
// commands to whichever peer currently owns them.
package busnode

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/atomic"
	"google.golang.org/grpc"

	"github.com/singnet/dasbus/internal/bus"
	"github.com/singnet/dasbus/internal/logging"
	"github.com/singnet/dasbus/proto"
)

var log = logging.Scope("busnode")

// joinPollInterval and maxJoinPolls bound the join-network handshake at
// 200 * 100ms = 20s. The counter increments toward that ceiling (a
// corrected redesign of a decrementing counter in an earlier revision -
// see DESIGN.md's Open Question decisions).
const (
	joinPollInterval = 100 * time.Millisecond
	maxJoinPolls     = 200
)

// Node is one bus node: its own id, the peer it joined through, and the
// command registry it owns.
type Node struct {
	HostID  string
	PeerID  string
	Bus     *bus.Registry
}

// New constructs a Node with commands pre-declared and unowned.
func New(hostID, peerID string, commands []string) *Node {
	return &Node{HostID: hostID, PeerID: peerID, Bus: bus.New(commands)}
}

// SendBusCommand resolves command's current owner and dispatches one
// execute_message RPC carrying args to it. An unowned or unknown command
// is surfaced to the caller as an error rather than silently dropped.
func (n *Node) SendBusCommand(ctx context.Context, command string, args []string) error {
	owner, err := n.Bus.GetOwnership(command)
	if err != nil {
		return fmt.Errorf("busnode: resolving owner for %q: %w", command, err)
	}
	if owner == "" {
		return fmt.Errorf("busnode: command %q has no known owner yet", command)
	}
	return n.send(ctx, owner, command, args)
}

func (n *Node) send(ctx context.Context, peerID, command string, args []string) error {
	conn, err := grpc.DialContext(ctx, peerID, grpc.WithInsecure(), grpc.WithCodec(proto.Codec), grpc.WithBlock()) //nolint:staticcheck
	if err != nil {
		return fmt.Errorf("busnode: dialing %q: %w", peerID, err)
	}
	defer conn.Close()

	client := proto.NewAtomSpaceNodeClient(conn)
	_, err = client.ExecuteMessage(ctx, &proto.MessageData{
		Command: command,
		Args:    args,
		Sender:  n.HostID,
	})
	if err != nil {
		return fmt.Errorf("busnode: execute_message to %q: %w", peerID, err)
	}
	return nil
}

// JoinNetwork broadcasts node_joined_network to the known peer and waits,
// polling with a bounded backoff, for the peer to acknowledge. It gives up
// after maxJoinPolls attempts (a 20s ceiling at joinPollInterval each).
func (n *Node) JoinNetwork(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, maxJoinPolls*joinPollInterval)
	defer cancel()
	// maxJoinPolls-1 retries after the first attempt: maxJoinPolls attempts in all.
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(joinPollInterval), maxJoinPolls-1), ctx)

	attempts := atomic.NewUint64(0)
	op := func() error {
		attempts.Inc()
		err := n.send(ctx, n.PeerID, "node_joined_network", []string{n.HostID})
		if err != nil {
			log.Debugw("join_network attempt failed", "attempt", attempts.Load(), "error", err)
		}
		return err
	}

	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("busnode: join_network did not complete within %d attempts: %w", maxJoinPolls, err)
	}
	log.Infow("joined network", "peer", n.PeerID, "attempts", attempts.Load())
	return nil
}

// MergeDiscovered copies a discovery proxy's observed service list into the
// bus registry, the periodic half of join_network_thread. Ownership
// conflicts are logged, not fatal: a peer may legitimately re-announce an
// already-known command.
func (n *Node) MergeDiscovered(serviceList map[string]string) {
	for command, owner := range serviceList {
		if !n.Bus.Contains(command) {
			if err := n.Bus.Add(command); err != nil {
				log.Warnw("could not register discovered command", "command", command, "error", err)
				continue
			}
		}
		if err := n.Bus.SetOwnership(command, owner); err != nil {
			log.Debugw("ownership merge conflict", "command", command, "owner", owner, "error", err)
		}
	}
}
