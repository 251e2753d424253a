package proto

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceDesc is the hand-written analogue of what protoc-gen-go-grpc would
// emit from an atomspacenode.proto; see atomspacenode.go.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AtomSpaceNodeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: pingHandler},
		{MethodName: "ExecuteMessage", Handler: executeMessageHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dasbus/atomspacenode.proto",
}

func pingHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(MessageData)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AtomSpaceNodeServer).Ping(in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/Ping"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AtomSpaceNodeServer).Ping(req.(*MessageData))
	}
	return interceptor(ctx, in, info, handler)
}

func executeMessageHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(MessageData)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AtomSpaceNodeServer).ExecuteMessage(in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/ExecuteMessage"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AtomSpaceNodeServer).ExecuteMessage(req.(*MessageData))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterAtomSpaceNodeServer registers impl against s.
func RegisterAtomSpaceNodeServer(s *grpc.Server, impl AtomSpaceNodeServer) {
	s.RegisterService(&ServiceDesc, impl)
}

// AtomSpaceNodeClient is the client-side stub used by internal/proxynode
// and internal/busnode.
type AtomSpaceNodeClient struct {
	cc *grpc.ClientConn
}

// NewAtomSpaceNodeClient wraps an established connection.
func NewAtomSpaceNodeClient(cc *grpc.ClientConn) *AtomSpaceNodeClient {
	return &AtomSpaceNodeClient{cc: cc}
}

func (c *AtomSpaceNodeClient) Ping(ctx context.Context, in *MessageData) (*Ack, error) {
	out := new(Ack)
	err := c.cc.Invoke(ctx, "/"+ServiceName+"/Ping", in, out)
	return out, err
}

func (c *AtomSpaceNodeClient) ExecuteMessage(ctx context.Context, in *MessageData) (*Ack, error) {
	out := new(Ack)
	err := c.cc.Invoke(ctx, "/"+ServiceName+"/ExecuteMessage", in, out)
	return out, err
}
