// Package security carries the transport hardening for replica nodes:
// request correlation, per-caller rate limiting and TLS configuration.
package security

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// CorrelationIDHeader is the metadata key callers may set to trace a
// request across replicas.
const CorrelationIDHeader = "x-correlation-id"

type correlationIDKey struct{}

// UnaryCorrelationID propagates the caller's correlation id into the
// handler context, generating one when absent, and echoes it back in the
// response headers.
func UnaryCorrelationID() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		var cid string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(CorrelationIDHeader); len(vals) > 0 {
				cid = vals[0]
			}
		}
		if cid == "" {
			cid = uuid.NewString()
		}

		ctx = context.WithValue(ctx, correlationIDKey{}, cid)
		grpc.SetHeader(ctx, metadata.Pairs(CorrelationIDHeader, cid))
		return handler(ctx, req)
	}
}

// CorrelationIDFromContext returns the request's correlation id, or ""
// when the interceptor is not installed.
func CorrelationIDFromContext(ctx context.Context) string {
	if v := ctx.Value(correlationIDKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
