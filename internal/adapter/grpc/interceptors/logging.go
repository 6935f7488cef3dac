package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryLoggingInterceptor logs every unary call with its duration and status code.
// Successful calls go to debug since probes poll them constantly.
func UnaryLoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("status_code", code.String()),
		}

		switch {
		case err == nil:
			log.Debug("gRPC request completed", fields...)
		case code == codes.NotFound || code == codes.InvalidArgument:
			log.Warn("gRPC request rejected", append(fields, zap.Error(err))...)
		default:
			log.Error("gRPC request failed", append(fields, zap.Error(err))...)
		}

		return resp, err
	}
}
