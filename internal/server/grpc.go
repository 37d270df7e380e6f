package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-production-service/internal/auth"
	"github.com/fekuna/omnipos-production-service/internal/logger"
)

// NewGRPCServer returns a server exposing grpc.health.v1 and reflection.
// The health server starts in SERVING; flip it to NOT_SERVING on shutdown.
func NewGRPCServer(log logger.ZapLogger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(LoggingInterceptor(log)),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)
	return srv, healthServer
}

// LoggingInterceptor logs every unary call with the caller taken from the
// x-user-id metadata key when present.
func LoggingInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		if userID := auth.GetUserID(ctx); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if err != nil {
			log.Warn("rpc failed", append(fields, zap.Error(err))...)
		} else {
			log.Info("rpc completed", fields...)
		}
		return resp, err
	}
}
