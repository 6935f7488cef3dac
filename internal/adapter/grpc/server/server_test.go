package server

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/seu-repo/voice-order-assistant/internal/service/health"
)

type fakeSource struct {
	ready atomic.Bool
}

func (f *fakeSource) Ready(ctx context.Context) *health.ReadyResponse {
	return &health.ReadyResponse{Ready: f.ready.Load()}
}

func startServer(t *testing.T, source ReadinessSource) (*GRPCServer, healthpb.HealthClient) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(source, time.Hour, zap.NewNop())
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return srv, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service}, grpc.WaitForReady(true))
	if err != nil {
		t.Fatalf("Check(%q): %v", service, err)
	}
	return resp.Status
}

func TestGRPCServer_ServingWhenReady(t *testing.T) {
	// Arrange
	source := &fakeSource{}
	source.ready.Store(true)
	_, client := startServer(t, source)

	// Act & Assert
	if got := check(t, client, ServiceName); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %s", got)
	}
	if got := check(t, client, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected overall SERVING, got %s", got)
	}
}

func TestGRPCServer_RefreshFlipsStatus(t *testing.T) {
	// Arrange
	source := &fakeSource{}
	source.ready.Store(true)
	srv, client := startServer(t, source)
	check(t, client, ServiceName)

	// Act
	source.ready.Store(false)
	got := srv.Refresh(context.Background())

	// Assert
	if got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected Refresh to report NOT_SERVING, got %s", got)
	}
	if got := check(t, client, ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING, got %s", got)
	}
}

func TestGRPCServer_UnknownService(t *testing.T) {
	source := &fakeSource{}
	source.ready.Store(true)
	_, client := startServer(t, source)
	check(t, client, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "kitchen.Printer"})
	if status.Code(err) != codes.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}
