// Package server exposes match status over gRPC.
package server

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"time"

	"github.com/finspan/finspan-server-go/internal/config"
	"github.com/finspan/finspan-server-go/internal/game"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
)

// MatchService returns the health service name of a match.
func MatchService(gameID string) string {
	return "finspan.match." + gameID
}

// Server is the gRPC endpoint. The standard health service reports SERVING
// for the server itself ("") and for every running match, and NOT_SERVING
// once a match ended or was removed.
type Server struct {
	logger *zap.Logger
	grpc   *grpc.Server
	health *health.Server
}

// New builds the gRPC server with recovery and logging interceptors.
func New(cfg config.GRPCConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		),
		grpc.ChainStreamInterceptor(
			StreamRecoveryInterceptor(logger),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	}
	if cfg.MaxConcurrentStreams > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(uint32(cfg.MaxConcurrentStreams)))
	}

	s := &Server{
		logger: logger,
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return s
}

// HandleNotification tracks match lifecycle. It has the signature of
// game.NotificationHandler.
func (s *Server) HandleNotification(n game.GameNotification) {
	service := MatchService(n.GameID)
	switch n.Type {
	case game.NotificationGameCreated:
		s.health.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)
	case game.NotificationGameEnded, game.NotificationGameRemoved:
		s.health.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	default:
		return
	}
	s.logger.Debug("match status changed",
		zap.String("game_id", n.GameID),
		zap.String("notification", n.Type),
	)
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("starting gRPC server", zap.String("address", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Stop marks everything NOT_SERVING and drains connections.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// RecoveryInterceptor turns handler panics into Internal errors.
func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, info.FullMethod, r)
				err = status.Errorf(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor is RecoveryInterceptor for streams.
func StreamRecoveryInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, info.FullMethod, r)
				err = status.Errorf(codes.Internal, "internal error")
			}
		}()
		return handler(srv, ss)
	}
}

func logPanic(logger *zap.Logger, method string, r interface{}) {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	logger.Error("panic in gRPC handler",
		zap.String("method", method),
		zap.String("panic", fmt.Sprint(r)),
		zap.ByteString("stack", buf[:n]),
	)
}

// LoggingInterceptor logs every unary call with its duration and code.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("gRPC request",
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		)
		return resp, err
	}
}
