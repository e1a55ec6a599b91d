package server

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/alfredjeanlab/datedvalues/internal/authz"
)

// healthPrefix covers Check and Watch, which health checkers call without a token.
const healthPrefix = "/grpc.health.v1.Health/"

func logRPC(ctx context.Context, method string, start time.Time, err error) {
	attrs := []any{
		"method", method,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(strings.ToLower(RequestIDHeader)); len(ids) > 0 {
			attrs = append(attrs, "request_id", ids[0])
		}
	}
	if err != nil {
		slog.Error("rpc completed", append(attrs, "err", err)...)
		return
	}
	// Probes hit the health service constantly.
	slog.Debug("rpc completed", attrs...)
}

func recoverRPC(method string, err *error) {
	if r := recover(); r != nil {
		slog.Error("panic recovered in gRPC handler",
			"method", method,
			"panic", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)
		*err = status.Errorf(codes.Internal, "internal server error")
	}
}

// authorize checks the bearer token in the incoming metadata and returns a
// context carrying the API user. An empty token disables the check.
func authorize(ctx context.Context, method, token string) (context.Context, error) {
	if token == "" || strings.HasPrefix(method, healthPrefix) {
		return ctx, nil
	}
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing authorization header")
	}
	if err := checkBearer(vals[0], token); err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
	return authz.WithUser(ctx, authz.User{Name: APIUser, Staff: true}), nil
}

// LoggingInterceptor logs the method, status code and duration of every
// unary RPC.
func LoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logRPC(ctx, info.FullMethod, start, err)
	return resp, err
}

// RecoveryInterceptor turns a panic in a unary handler into codes.Internal.
func RecoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer recoverRPC(info.FullMethod, &err)
	return handler(ctx, req)
}

// AuthInterceptor requires "authorization: Bearer <token>" on every unary
// RPC except health checks.
func AuthInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := authorize(ctx, info.FullMethod, token)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func StreamLoggingInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	logRPC(ss.Context(), info.FullMethod, start, err)
	return err
}

func StreamRecoveryInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
	defer recoverRPC(info.FullMethod, &err)
	return handler(srv, ss)
}

// StreamAuthInterceptor is AuthInterceptor for streaming RPCs such as
// reflection and health Watch.
func StreamAuthInterceptor(token string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authorize(ss.Context(), info.FullMethod, token)
		if err != nil {
			return err
		}
		return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
	}
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context { return s.ctx }
