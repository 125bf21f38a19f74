package govgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/quadgov/types"
)

const serviceName = "quadgov.v1.GovernanceService"

// GovernanceServiceServer is the server-side interface of the
// governance gRPC service.
type GovernanceServiceServer interface {
	Handshake(context.Context, *types.HandshakeRequest) (*types.HandshakeResponse, error)
	CheckTx(context.Context, *CheckTxRequest) (*types.GateVerdict, error)
	ExecuteBlock(context.Context, *types.FinalizedBlock) (*types.BlockOutcome, error)
	Commit(context.Context, *CommitRequest) (*types.CommitResult, error)
	Query(context.Context, *types.StateQuery) (*types.StateQueryResult, error)
	Simulate(context.Context, *SimulateRequest) (*types.TxOutcome, error)
}

// RegisterGovernanceServiceServer registers srv on a gRPC server.
func RegisterGovernanceServiceServer(s grpc.ServiceRegistrar, srv GovernanceServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unary builds a method handler that decodes a *Req and dispatches to
// call, honoring any configured interceptor.
func unary[Req, Resp any](method string, call func(GovernanceServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GovernanceServiceServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(GovernanceServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// serviceDesc is the manual gRPC service descriptor.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*GovernanceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Handshake", GovernanceServiceServer.Handshake),
		unary("CheckTx", GovernanceServiceServer.CheckTx),
		unary("ExecuteBlock", GovernanceServiceServer.ExecuteBlock),
		unary("Commit", GovernanceServiceServer.Commit),
		unary("Query", GovernanceServiceServer.Query),
		unary("Simulate", GovernanceServiceServer.Simulate),
	},
	Metadata: "quadgov/v1/service.cram",
}
