// Package starnode implements the inbound side of the star topology: a
// gRPC server bound to exactly one query proxy for its lifetime, dispatching
// every incoming MessageData frame according to its Command and, for
// answer-bearing frames, the marker carried in its last argument.
package starnode

import (
	"context"
	"net"
	"net/http"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"

	"github.com/singnet/dasbus/internal/logging"
	"github.com/singnet/dasbus/proto"
)

var log = logging.Scope("starnode")

// Control commands that are part of the network's bookkeeping chatter but
// carry nothing a proxy needs to act on.
var ignoredCommands = map[string]struct{}{
	"node_joined_network":      {},
	"query_answer_flow":        {},
	"pattern_matching_query":   {},
	"query_answers_finished":   {},
}

// Frames whose args are a raw answer-token stream rather than a structured
// command payload.
var tokenStreamCommands = map[string]struct{}{
	"query_answer_tokens_flow": {},
	"bus_command_proxy":        {},
}

const (
	markerPeerError    = "peer_error"
	markerEvalFitness  = "eval_fitness"
	markerFinished     = "finished"
	markerAbort        = "abort"
	markerAnswerBundle = "answer_bundle"
	markerCount        = "count"
)

// Sink is the mutable surface a Dispatcher drives. internal/queryproxy.Base
// implements it; the interface lives here (rather than the caller
// importing starnode types) purely to keep starnode decoupled from the
// query-proxy package that constructs it.
type Sink struct {
	// Push appends one answer token to the proxy's answer queue.
	Push func(token string) error
	// SetOwnership records a set_command_ownership announcement.
	SetOwnership func(owner, command string)
	// QueueEvalFitness extends the eval_fitness queue with the given args
	// (the eval_fitness marker itself included).
	QueueEvalFitness func(args []string)
	// SetAbort marks the proxy aborted (a peer_error frame arrived).
	SetAbort func()
	// SetFinished marks the answer flow finished (a finished/abort token
	// terminated the stream).
	SetFinished func()
	// SetRemotePeer records the sender of an eval_fitness frame as the
	// peer any eval_fitness_response should be sent back to.
	SetRemotePeer func(peerID string)
}

// Dispatcher implements proto.AtomSpaceNodeServer over a single Sink.
type Dispatcher struct {
	sink Sink
}

// NewDispatcher returns a Dispatcher bound to sink for its whole lifetime.
func NewDispatcher(sink Sink) *Dispatcher {
	return &Dispatcher{sink: sink}
}

// Ping acknowledges liveness; the star topology has no use for a richer
// reply here.
func (d *Dispatcher) Ping(*proto.MessageData) (*proto.Ack, error) {
	return &proto.Ack{Ok: true}, nil
}

// ExecuteMessage is the single entry point for everything a peer sends this
// node: ownership announcements, answer-token streams, and the
// eval_fitness/peer_error markers riding inside them.
func (d *Dispatcher) ExecuteMessage(msg *proto.MessageData) (*proto.Ack, error) {
	if _, ok := ignoredCommands[msg.Command]; ok {
		return &proto.Ack{Ok: true}, nil
	}

	if msg.Command == "set_command_ownership" {
		// args = [owner, command]
		if len(msg.Args) >= 2 {
			d.sink.SetOwnership(msg.Args[0], msg.Args[1])
		}
		return &proto.Ack{Ok: true}, nil
	}

	if _, ok := tokenStreamCommands[msg.Command]; ok {
		d.processAnswerTokens(msg)
		return &proto.Ack{Ok: true}, nil
	}

	log.Debugw("ignoring unrecognized command", "command", msg.Command)
	return &proto.Ack{Ok: true}, nil
}

func (d *Dispatcher) processAnswerTokens(msg *proto.MessageData) {
	if len(msg.Args) == 0 {
		return
	}
	last := msg.Args[len(msg.Args)-1]
	switch last {
	case markerPeerError:
		d.sink.SetAbort()
		return
	case markerEvalFitness:
		d.sink.SetRemotePeer(msg.Sender)
		d.sink.QueueEvalFitness(msg.Args)
		return
	}

	for _, arg := range msg.Args {
		switch arg {
		case markerFinished, markerAbort:
			if arg == markerAbort {
				d.sink.SetAbort()
			}
			d.sink.SetFinished()
			return
		case markerAnswerBundle, markerCount, markerEvalFitness:
			continue
		default:
			if err := d.sink.Push(arg); err != nil {
				log.Warnw("dropping answer token", "error", err)
			}
		}
	}
}

// Server is one proxy's ephemeral gRPC endpoint, cmux-muxed with a small
// HTTP debug handler the way bootstrap/server.go muxes grpcServer and
// httpServer on one listener.
type Server struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	mux        cmux.CMux
	listener   net.Listener
}

// Serve binds addr, registers dispatcher, and starts serving in background
// goroutines. Callers stop it via Close.
func Serve(addr string, dispatcher *Dispatcher, debugHandler http.Handler) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	m := cmux.New(lis)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.HTTP1Fast())

	gs := grpc.NewServer(
		grpc.CustomCodec(proto.Codec),
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			grpc_prometheus.UnaryServerInterceptor,
		)),
	)
	proto.RegisterAtomSpaceNodeServer(gs, dispatcher)
	grpc_prometheus.Register(gs)

	if debugHandler == nil {
		debugHandler = http.NewServeMux()
	}
	hs := &http.Server{Handler: debugHandler}

	s := &Server{grpcServer: gs, httpServer: hs, mux: m, listener: lis}

	go func() {
		if err := gs.Serve(grpcL); err != nil {
			log.Debugw("grpc serve stopped", "error", err)
		}
	}()
	go func() {
		if err := hs.Serve(httpL); err != nil {
			log.Debugw("http serve stopped", "error", err)
		}
	}()
	go func() {
		if err := m.Serve(); err != nil {
			log.Debugw("cmux serve stopped", "error", err)
		}
	}()

	return s, nil
}

// Addr returns the bound local address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close tears down the gRPC server, HTTP server, and listener.
func (s *Server) Close() {
	s.grpcServer.GracefulStop()
	_ = s.httpServer.Shutdown(context.Background())
}
