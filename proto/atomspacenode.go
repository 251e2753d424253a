// Package proto defines the wire messages and service descriptor for the
// AtomSpaceNode RPC surface (ping, execute_message).
//
// protoc is not available in this build environment, so the two messages
// here are hand-written plain structs carried over gRPC with a gob codec
// (registered in codec.go) instead of a protoc-generated protobuf.Message.
// The transport is still real google.golang.org/grpc - only the wire
// encoding of the message bodies is swapped from generated protobuf to
// gob, which is the smallest change that keeps every other layer
// (interceptors, cmux, prometheus wrapping) unaffected.
package proto

// MessageData is the single envelope every AtomSpaceNode RPC exchanges.
// Command dispatch (internal/starnode) and every outbound send
// (internal/proxynode) operate purely on this struct.
type MessageData struct {
	Command           string
	Args              []string
	Sender            string
	IsBroadcast       bool
	VisitedRecipients []string
}

// Ack is returned by both Ping and ExecuteMessage; the protocol carries no
// payload back on the synchronous call, only a boolean acknowledgement
// (answers flow back asynchronously as new outbound ExecuteMessage calls on
// the reverse connection, per the star topology's "no single stream"
// design).
type Ack struct {
	Ok bool
}

// ServiceName is the gRPC fully-qualified service name.
const ServiceName = "dasbus.AtomSpaceNode"

// AtomSpaceNodeServer is implemented by internal/starnode.Dispatcher.
type AtomSpaceNodeServer interface {
	Ping(sender *MessageData) (*Ack, error)
	ExecuteMessage(msg *MessageData) (*Ack, error)
}
