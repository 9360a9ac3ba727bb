// Package rpc exposes the cipher engine as the cryptolab.v1.CipherService gRPC
// service. Requests and replies are google.protobuf.Struct documents, so no
// generated stubs are needed on either side.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cryptolab.v1.CipherService"

// Method names.
const (
	MethodEncode         = "Encode"
	MethodDecode         = "Decode"
	MethodBreak          = "Break"
	MethodGeneratePad    = "GeneratePad"
	MethodListOperations = "ListOperations"
)

// CipherServer is the server API for the CipherService.
type CipherServer interface {
	Encode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Decode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Break(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GeneratePad(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOperations(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(CipherServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CipherServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CipherServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the CipherService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CipherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodEncode, Handler: unaryHandler(MethodEncode, CipherServer.Encode)},
		{MethodName: MethodDecode, Handler: unaryHandler(MethodDecode, CipherServer.Decode)},
		{MethodName: MethodBreak, Handler: unaryHandler(MethodBreak, CipherServer.Break)},
		{MethodName: MethodGeneratePad, Handler: unaryHandler(MethodGeneratePad, CipherServer.GeneratePad)},
		{MethodName: MethodListOperations, Handler: unaryHandler(MethodListOperations, CipherServer.ListOperations)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cryptolab/v1/cipher.proto",
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv CipherServer) {
	s.RegisterService(&ServiceDesc, srv)
}
