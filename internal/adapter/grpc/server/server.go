package server

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/seu-repo/voice-order-assistant/internal/adapter/grpc/interceptors"
	"github.com/seu-repo/voice-order-assistant/internal/service/health"
)

// ServiceName is the name probes pass to grpc.health.v1 Check.
const ServiceName = "voiceorder.OrderBackend"

const defaultWatchInterval = 10 * time.Second

// ReadinessSource reports whether the backend's dependencies are ready.
type ReadinessSource interface {
	Ready(ctx context.Context) *health.ReadyResponse
}

// GRPCServer publishes backend readiness over the grpc.health.v1 protocol.
type GRPCServer struct {
	server   *grpc.Server
	health   *grpchealth.Server
	source   ReadinessSource
	interval time.Duration
	log      *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

func NewGRPCServer(source ReadinessSource, interval time.Duration, log *zap.Logger) *GRPCServer {
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptors.UnaryLoggingInterceptor(log),
		interceptors.UnaryMetricsInterceptor(),
	))

	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	// Enable reflection for debugging (e.g. grpcurl)
	reflection.Register(s)

	return &GRPCServer{
		server:   s,
		health:   hs,
		source:   source,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Refresh runs the readiness checks once and publishes the result for both
// the overall server ("") and ServiceName.
func (s *GRPCServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if ready := s.source.Ready(ctx); !ready.Ready {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	s.Refresh(context.Background())
	go s.watch()

	s.log.Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
	return s.server.Serve(lis)
}

func (s *GRPCServer) watch() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			status := s.Refresh(ctx)
			cancel()

			if status != last {
				s.log.Info("Serving status changed", zap.String("status", status.String()))
				last = status
			}
		}
	}
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *GRPCServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.health.Shutdown()
		s.server.GracefulStop()
	})
}
