// Package router builds the gRPC server that exposes the standard health service.
package router

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/recipebox-server/internal/api/grpc/middleware"
	"github.com/dtroode/recipebox-server/internal/logger"
)

// ServiceName is the health service name the probe reports under, next to the overall "" entry.
const ServiceName = "recipebox.Accounts"

// HealthChecker reports whether the aggregate store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Router wires the health service and interceptors into a gRPC server.
type Router struct {
	checker HealthChecker
	health  *health.Server
	logger  *logger.Logger
}

// New creates a new gRPC Router.
func New(checker HealthChecker, logger *logger.Logger) *Router {
	return &Router{
		checker: checker,
		health:  health.NewServer(),
		logger:  logger,
	}
}

// Register returns a gRPC server with health and reflection services registered.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(logging.UnaryInterceptors()...),
		grpc.ChainStreamInterceptor(logging.StreamInterceptors()...),
	)
	grpc_health_v1.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}

// Refresh pings the store and publishes the result as the serving status.
func (r *Router) Refresh(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := r.checker.Ping(ctx); err != nil {
		r.logger.Warn("gRPC health: store unreachable", "error", err)
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	r.health.SetServingStatus("", status)
	r.health.SetServingStatus(ServiceName, status)
	return status
}

// Watch refreshes the serving status every interval until ctx is done,
// then marks every service as NOT_SERVING.
func (r *Router) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		r.Refresh(pingCtx)
		cancel()

		select {
		case <-ctx.Done():
			r.health.Shutdown()
			return
		case <-ticker.C:
		}
	}
}
