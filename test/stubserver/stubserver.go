// Package stubserver provides a minimal in-process AtomSpaceNode peer for
// driving end-to-end query-bus scenarios without a real remote query
// engine.
package stubserver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"

	"github.com/singnet/dasbus/proto"
)

// Stub is a fake peer: it records every ExecuteMessage it receives and can
// be scripted to reply with a scripted sequence of outbound frames to
// whatever sender addressed it.
type Stub struct {
	mu       sync.Mutex
	received []*proto.MessageData
	server   *grpc.Server
	listener net.Listener
}

// Start binds addr and begins serving.
func Start(addr string) (*Stub, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Stub{listener: lis}
	gs := grpc.NewServer(grpc.CustomCodec(proto.Codec)) //nolint:staticcheck
	proto.RegisterAtomSpaceNodeServer(gs, s)
	s.server = gs
	go func() { _ = gs.Serve(lis) }()
	return s, nil
}

// Addr returns the bound local address.
func (s *Stub) Addr() string { return s.listener.Addr().String() }

// Ping implements proto.AtomSpaceNodeServer.
func (s *Stub) Ping(*proto.MessageData) (*proto.Ack, error) {
	return &proto.Ack{Ok: true}, nil
}

// ExecuteMessage implements proto.AtomSpaceNodeServer, recording msg.
func (s *Stub) ExecuteMessage(msg *proto.MessageData) (*proto.Ack, error) {
	s.mu.Lock()
	s.received = append(s.received, msg)
	s.mu.Unlock()
	return &proto.Ack{Ok: true}, nil
}

// Received returns every frame this stub has seen so far.
func (s *Stub) Received() []*proto.MessageData {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*proto.MessageData, len(s.received))
	copy(out, s.received)
	return out
}

// SendTo dials target and fires one ExecuteMessage frame at it, as a
// scripted remote peer replying to the requestor.
func (s *Stub) SendTo(ctx context.Context, target, command string, args []string) error {
	conn, err := grpc.DialContext(ctx, target, grpc.WithInsecure(), grpc.WithCodec(proto.Codec), grpc.WithBlock()) //nolint:staticcheck
	if err != nil {
		return fmt.Errorf("stubserver: dialing %q: %w", target, err)
	}
	defer conn.Close()
	client := proto.NewAtomSpaceNodeClient(conn)
	_, err = client.ExecuteMessage(ctx, &proto.MessageData{
		Command: command,
		Args:    args,
		Sender:  s.Addr(),
	})
	return err
}

// Close stops serving.
func (s *Stub) Close() {
	s.server.GracefulStop()
}
