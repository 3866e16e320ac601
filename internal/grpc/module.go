// Package grpc exposes the standard gRPC health service so platform
// probes and service meshes can check liveness over gRPC.
package grpc

import (
	"context"
	"net"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var Module = fx.Options(
	fx.Provide(
		NewHealth,
		NewServer,
		NewListener,
	),
	fx.Invoke(lifecycleHook),
)

func lifecycleHook(lc fx.Lifecycle, log *zap.Logger, srv *grpc.Server, h *health.Server, lis net.Listener) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("grpc health server starting", zap.String("addr", lis.Addr().String()))
			go func() {
				if err := srv.Serve(lis); err != nil {
					log.Error("grpc server error", zap.Error(err))
				}
			}()
			h.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			h.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
			log.Info("grpc health server stopping")
			srv.GracefulStop()
			return nil
		},
	})
}
