package packages_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "packagetracker.v1.PackagesService"

// PackagesServiceServer is the server side of packagetracker.v1.PackagesService.
// Messages are well-known types; records travel as JSON-shaped Structs.
type PackagesServiceServer interface {
	Detect(ctx context.Context, number *wrapperspb.StringValue) (*structpb.Struct, error)
	ListPackages(ctx context.Context, view *wrapperspb.StringValue) (*structpb.Struct, error)
	AddPackage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ArchivePackage(ctx context.Context, id *wrapperspb.StringValue) (*emptypb.Empty, error)
	RestorePackage(ctx context.Context, id *wrapperspb.StringValue) (*emptypb.Empty, error)
	DeletePackage(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
}

var PackagesServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PackagesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Detect",
			Handler: unaryHandler("Detect", func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) },
				func(s PackagesServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
					return s.Detect(ctx, in)
				}),
		},
		{
			MethodName: "ListPackages",
			Handler: unaryHandler("ListPackages", func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) },
				func(s PackagesServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
					return s.ListPackages(ctx, in)
				}),
		},
		{
			MethodName: "AddPackage",
			Handler: unaryHandler("AddPackage", func() *structpb.Struct { return new(structpb.Struct) },
				func(s PackagesServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
					return s.AddPackage(ctx, in)
				}),
		},
		{
			MethodName: "ArchivePackage",
			Handler: unaryHandler("ArchivePackage", func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) },
				func(s PackagesServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
					return s.ArchivePackage(ctx, in)
				}),
		},
		{
			MethodName: "RestorePackage",
			Handler: unaryHandler("RestorePackage", func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) },
				func(s PackagesServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
					return s.RestorePackage(ctx, in)
				}),
		},
		{
			MethodName: "DeletePackage",
			Handler: unaryHandler("DeletePackage", func() *structpb.Struct { return new(structpb.Struct) },
				func(s PackagesServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
					return s.DeletePackage(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "packagetracker/v1/packages.proto",
}

func RegisterPackagesServiceServer(s grpc.ServiceRegistrar, srv PackagesServiceServer) {
	s.RegisterService(&PackagesServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler[Req proto.Message](
	method string,
	newReq func() Req,
	call func(PackagesServiceServer, context.Context, Req) (proto.Message, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(PackagesServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(Req))
		})
	}
}
