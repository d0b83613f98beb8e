package grpc

import (
	"context"
	"strings"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	apperrors "github.com/roomdesk/roomdesk/internal/platform/errors"
)

const localeMetadataKey = "accept-language"

// UnaryErrorInterceptor turns domain errors returned by handlers into gRPC
// statuses with error details localized for the caller.
func UnaryErrorInterceptor() gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return resp, apperrors.ToGRPCStatus(err, incomingLocale(ctx))
		}
		return resp, nil
	}
}

// StreamErrorInterceptor is the streaming counterpart of UnaryErrorInterceptor.
func StreamErrorInterceptor() gogrpc.StreamServerInterceptor {
	return func(srv any, stream gogrpc.ServerStream, _ *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) error {
		if err := handler(srv, stream); err != nil {
			return apperrors.ToGRPCStatus(err, incomingLocale(stream.Context()))
		}
		return nil
	}
}

func incomingLocale(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(localeMetadataKey)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
