package rpc

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/RowanDark/cryptolab/internal/logging"
	"github.com/RowanDark/cryptolab/internal/observability/metrics"
)

// UnaryServerInterceptor records request metrics and an rpc_call audit event
// for every unary call.
func UnaryServerInterceptor(logger *slog.Logger, audit *logging.AuditLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)
		code := status.Code(err)

		metrics.RecordRequest("grpc", info.FullMethod, code.String(), elapsed)
		if logger != nil {
			logger.Debug("rpc call",
				slog.String("method", info.FullMethod),
				slog.String("code", code.String()),
				slog.Duration("elapsed", elapsed),
			)
		}
		if audit != nil {
			outcome := logging.OutcomeSuccess
			reason := ""
			if err != nil {
				outcome, reason = logging.OutcomeFailure, status.Convert(err).Message()
			}
			_ = audit.Emit(logging.AuditEvent{
				EventType: logging.EventRPCCall,
				Outcome:   outcome,
				Reason:    reason,
				Metadata: map[string]any{
					"method": info.FullMethod,
					"code":   code.String(),
				},
			})
		}
		return resp, err
	}
}

// TokenInterceptor rejects calls whose "authorization" metadata does not
// carry the bearer token. An empty token disables the check.
func TokenInterceptor(token string, audit *logging.AuditLogger) grpc.UnaryServerInterceptor {
	want := strings.TrimSpace(token)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if want == "" {
			return handler(ctx, req)
		}
		got := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			for _, v := range md.Get("authorization") {
				if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
					got = strings.TrimSpace(v[7:])
					break
				}
			}
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			if audit != nil {
				remote := ""
				if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
					remote = p.Addr.String()
				}
				_ = audit.Emit(logging.AuditEvent{
					EventType: logging.EventAuthDenied,
					Outcome:   logging.OutcomeDenied,
					Reason:    "invalid or missing bearer token",
					Metadata:  map[string]any{"method": info.FullMethod, "remote": remote},
				})
			}
			return nil, status.Error(codes.Unauthenticated, "unauthenticated")
		}
		return handler(ctx, req)
	}
}

// NewGRPCServer returns a grpc.Server with the token check and
// instrumentation chained, and the CipherService registered.
func NewGRPCServer(srv CipherServer, token string, logger *slog.Logger, audit *logging.AuditLogger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		UnaryServerInterceptor(logger, audit),
		TokenInterceptor(token, audit),
	))
	s := grpc.NewServer(opts...)
	Register(s, srv)
	return s
}
