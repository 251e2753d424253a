// Package proxynode implements the outbound half of the star topology: a
// fire-and-forget sender that owns one inbound gRPC endpoint (via
// internal/starnode) for its proxy's whole lifetime and releases its port
// back to internal/portpool on Close.
package proxynode

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"google.golang.org/grpc"

	"github.com/singnet/dasbus/internal/logging"
	"github.com/singnet/dasbus/internal/portpool"
	"github.com/singnet/dasbus/internal/starnode"
	"github.com/singnet/dasbus/proto"
)

var log = logging.Scope("proxy")

// Node is one ephemeral endpoint identified by "host:port". It serves
// inbound RPCs for its own peer id and sends outbound bus_command_proxy
// frames to a peer, both over the same node id scheme used across the bus.
type Node struct {
	localID string
	peerID  string
	port    uint16

	server *starnode.Server

	mu   sync.Mutex
	conn *grpc.ClientConn
}

// New starts the inbound server on host:port (port leased from the process
// pool by the caller) and returns a Node a query proxy can send through.
// peerID is the remote node this proxy talks to; it may be empty when the
// node is purely listening (the processor side, constructed from an
// incoming client_id/server_id pair rather than a fresh lease).
func New(host string, port uint16, peerID string, dispatcher *starnode.Dispatcher) (*Node, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	srv, err := starnode.Serve(addr, dispatcher, nil)
	if err != nil {
		return nil, fmt.Errorf("proxynode: starting inbound server on %s: %w", addr, err)
	}
	return &Node{localID: addr, peerID: peerID, port: port, server: srv}, nil
}

// LocalID returns this node's own "host:port" id, the id a remote peer will
// address replies to.
func (n *Node) LocalID() string { return n.localID }

// PeerID returns the remote peer this node sends to.
func (n *Node) PeerID() string { return n.peerID }

// SetPeerID updates the remote peer (used when an eval_fitness frame
// arrives bearing a different sender than the one this proxy was opened
// against).
func (n *Node) SetPeerID(peerID string) { n.peerID = peerID }

func (n *Node) dial() (*grpc.ClientConn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil {
		return n.conn, nil
	}
	conn, err := grpc.Dial(n.peerID, grpc.WithInsecure(), grpc.WithCodec(proto.Codec)) //nolint:staticcheck
	if err != nil {
		return nil, err
	}
	n.conn = conn
	return conn, nil
}

// ToRemotePeer appends command to args and fire-and-forgets a
// bus_command_proxy frame to n.peerID. Errors are logged, never returned to
// the caller: after an RPC failure the frame is simply never delivered.
func (n *Node) ToRemotePeer(command string, args []string) {
	newArgs := append(append([]string{}, args...), command)
	go func() {
		conn, err := n.dial()
		if err != nil {
			log.Warnw("dial failed, dropping outbound frame", "peer", n.peerID, "error", err)
			return
		}
		client := proto.NewAtomSpaceNodeClient(conn)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err = client.ExecuteMessage(ctx, &proto.MessageData{
			Command:     "bus_command_proxy",
			Args:        newArgs,
			Sender:      n.localID,
			IsBroadcast: false,
		})
		if err != nil {
			log.Warnw("execute_message failed, dropping outbound frame", "peer", n.peerID, "error", err)
		}
	}()
}

// Close stops the inbound server, closes the outbound connection, and
// returns this node's port to the pool, aggregating any teardown errors.
func (n *Node) Close() error {
	var result *multierror.Error

	n.server.Close()

	n.mu.Lock()
	conn := n.conn
	n.conn = nil
	n.mu.Unlock()
	if conn != nil {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	pool, err := portpool.Instance()
	if err != nil {
		result = multierror.Append(result, err)
	} else {
		pool.Release(n.port)
	}

	return result.ErrorOrNil()
}

// ParseHostPort splits a "host:port" node id, as proxy-node setup, the
// service bus and the discovery proxy's setup need to.
func ParseHostPort(id string) (string, uint16, error) {
	idx := strings.LastIndex(id, ":")
	if idx < 0 {
		return "", 0, fmt.Errorf("proxynode: malformed node id %q", id)
	}
	host, portStr := id[:idx], id[idx+1:]
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("proxynode: malformed port in node id %q: %w", id, err)
	}
	return host, uint16(port), nil
}
