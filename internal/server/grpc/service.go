package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. Requests and
// responses are google.protobuf.Struct messages.
const ServiceName = "trustkeeper.v1.AuthService"

const (
	MethodRegister                = "Register"
	MethodLogin                   = "Login"
	MethodRefresh                 = "Refresh"
	MethodRevoke                  = "Revoke"
	MethodConfirmVerification     = "ConfirmVerification"
	MethodRequestVerificationCode = "RequestVerificationCode"
	MethodRequestPasswordReset    = "RequestPasswordReset"
	MethodResetPassword           = "ResetPassword"
	MethodTrustIP                 = "TrustIP"
	MethodGetProfile              = "GetProfile"
	MethodUpdateProfile           = "UpdateProfile"
	MethodChangePassword          = "ChangePassword"
	MethodDeleteAccount           = "DeleteAccount"
	MethodPing                    = "Ping"
)

func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// AuthServiceServer is the server API for trustkeeper.v1.AuthService.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Revoke(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmVerification(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestVerificationCode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestPasswordReset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TrustIP(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodHandler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodHandler(MethodRegister, AuthServiceServer.Register),
		methodHandler(MethodLogin, AuthServiceServer.Login),
		methodHandler(MethodRefresh, AuthServiceServer.Refresh),
		methodHandler(MethodRevoke, AuthServiceServer.Revoke),
		methodHandler(MethodConfirmVerification, AuthServiceServer.ConfirmVerification),
		methodHandler(MethodRequestVerificationCode, AuthServiceServer.RequestVerificationCode),
		methodHandler(MethodRequestPasswordReset, AuthServiceServer.RequestPasswordReset),
		methodHandler(MethodResetPassword, AuthServiceServer.ResetPassword),
		methodHandler(MethodTrustIP, AuthServiceServer.TrustIP),
		methodHandler(MethodGetProfile, AuthServiceServer.GetProfile),
		methodHandler(MethodUpdateProfile, AuthServiceServer.UpdateProfile),
		methodHandler(MethodChangePassword, AuthServiceServer.ChangePassword),
		methodHandler(MethodDeleteAccount, AuthServiceServer.DeleteAccount),
		methodHandler(MethodPing, AuthServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "trustkeeper/v1/auth.proto",
}

// Client calls trustkeeper.v1.AuthService methods by name.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
