package server

import (
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// GameService is the health-check service name of the game host.
const GameService = "aether.v1.Game"

// NewGRPCServer creates the gRPC server with the health service registered.
// Both the overall and the GameService status start as SERVING.
func NewGRPCServer(logger *zap.Logger) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(ChainUnaryInterceptors(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(GameService, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	return grpcServer, healthServer
}
