package middleware

import (
	"context"
	"log/slog"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/recipebox-server/internal/logger"
)

// Logging adapts the application logger to the gRPC logging and recovery interceptors.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Log implements logging.Logger. Interceptor levels share slog's numeric scale.
func (l *Logging) Log(ctx context.Context, level logging.Level, msg string, fields ...any) {
	l.logger.Log(ctx, slog.Level(level), "gRPC "+msg, fields...)
}

// Recover turns a handler panic into an Internal status.
func (l *Logging) Recover(ctx context.Context, p any) error {
	l.logger.ErrorContext(ctx, "gRPC handler panicked", "panic", p)
	return status.Error(codes.Internal, "internal error")
}

// UnaryInterceptors returns the logging and recovery chain for unary calls.
func (l *Logging) UnaryInterceptors() []grpc.UnaryServerInterceptor {
	return []grpc.UnaryServerInterceptor{
		logging.UnaryServerInterceptor(l, logging.WithLogOnEvents(logging.FinishCall)),
		recovery.UnaryServerInterceptor(recovery.WithRecoveryHandlerContext(l.Recover)),
	}
}

// StreamInterceptors returns the logging and recovery chain for streaming calls.
func (l *Logging) StreamInterceptors() []grpc.StreamServerInterceptor {
	return []grpc.StreamServerInterceptor{
		logging.StreamServerInterceptor(l, logging.WithLogOnEvents(logging.FinishCall)),
		recovery.StreamServerInterceptor(recovery.WithRecoveryHandlerContext(l.Recover)),
	}
}
