// Package grpc carries the languages of incoming gRPC calls into the handler
// context for the localization package.
package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/pitabwire/resources/localization"
)

// LanguageUnaryInterceptor stores the languages of the accept-language
// metadata in the context of unary handlers.
func LanguageUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any,
		_ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if l := localization.ExtractLanguageFromGrpcRequest(ctx); len(l) > 0 {
			ctx = localization.ToContext(ctx, l)
		}

		return handler(ctx, req)
	}
}

// LanguageStreamInterceptor is LanguageUnaryInterceptor for streams.
func LanguageStreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		l := localization.ExtractLanguageFromGrpcRequest(ctx)
		if len(l) == 0 {
			return handler(srv, ss)
		}

		return handler(srv, &serverStreamWrapper{ctx: localization.ToContext(ctx, l), ServerStream: ss})
	}
}

type serverStreamWrapper struct {
	ctx context.Context
	grpc.ServerStream
}

func (s *serverStreamWrapper) Context() context.Context {
	return s.ctx
}
