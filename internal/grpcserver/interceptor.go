package grpcserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpcstatus "google.golang.org/grpc/status"
)

// UnaryLogger logs one line per unary call with its outcome code.
func UnaryLogger(log *zap.SugaredLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Infow("grpc request",
			"method", info.FullMethod,
			"code", grpcstatus.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
