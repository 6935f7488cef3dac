package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/infrastructure/circuitbreaker"
)

func newTestClient(url string, submitTimeout time.Duration) *Client {
	log := zap.NewNop()
	httpClient := circuitbreaker.NewHTTPClient(&http.Client{}, circuitbreaker.New(circuitbreaker.DefaultSettings("test-backend"), log), log)
	return NewClient(url, httpClient, submitTimeout, time.Second, log)
}

func TestClientSubmit_Success(t *testing.T) {
	// Arrange
	var got submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/submit-order" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.OrderResult{
			Success:    true,
			OrderID:    "ORD-ABCDEF12-0001",
			ETAMinutes: 21,
			Message:    "تم تأكيد طلبك بنجاح!",
		})
	}))
	defer server.Close()
	client := newTestClient(server.URL, time.Second)

	// Act
	result, err := client.Submit(context.Background(), "Sami", []string{"burger", "fries"})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.OrderID != "ORD-ABCDEF12-0001" || result.ETAMinutes != 21 {
		t.Errorf("unexpected result %+v", result)
	}
	if got.Name != "Sami" || len(got.Items) != 2 {
		t.Errorf("unexpected request body %+v", got)
	}
}

func TestClientSubmit_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "bad request is a validation error",
			status: http.StatusBadRequest,
			body:   `{"error":"Name and items are required"}`,
			check: func(t *testing.T, err error) {
				var v *domain.ValidationError
				if !errors.As(err, &v) || v.Message != "Name and items are required" {
					t.Errorf("expected validation error with server message, got %v", err)
				}
			},
		},
		{
			name:   "server error is transport other",
			status: http.StatusInternalServerError,
			body:   `{"error":"Server error: boom"}`,
			check: func(t *testing.T, err error) {
				var te *domain.TransportError
				if !errors.As(err, &te) || te.Kind != domain.TransportOther {
					t.Fatalf("expected TransportOther, got %v", err)
				}
				if te.UserMessage() != "Backend error: Server error: boom" {
					t.Errorf("unexpected user message %q", te.UserMessage())
				}
			},
		},
		{
			name:   "unparseable error body",
			status: http.StatusTeapot,
			body:   `nope`,
			check: func(t *testing.T, err error) {
				if domain.UserMessage(err) != "Backend error: Unknown error" {
					t.Errorf("unexpected message %q", domain.UserMessage(err))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, time.Second).Submit(context.Background(), "Sami", []string{"x"})
			tt.check(t, err)
		})
	}
}

func TestClientSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestClient(server.URL, 50*time.Millisecond).Submit(context.Background(), "Sami", []string{"x"})

	var te *domain.TransportError
	if !errors.As(err, &te) || te.Kind != domain.TransportTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if te.UserMessage() != "انتهت مهلة الاتصال" {
		t.Errorf("unexpected message %q", te.UserMessage())
	}
}

func TestClientSubmit_Unreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	_, err = newTestClient("http://"+addr, time.Second).Submit(context.Background(), "Sami", []string{"x"})

	var te *domain.TransportError
	if !errors.As(err, &te) || te.Kind != domain.TransportUnreachable {
		t.Fatalf("expected unreachable, got %v", err)
	}
	if te.UserMessage() != "لا يمكن الاتصال بالخادم" {
		t.Errorf("unexpected message %q", te.UserMessage())
	}
}

func TestClientGetAllAndGetByID(t *testing.T) {
	orders := map[string]domain.Order{
		"ORD-1": {ID: "ORD-1", Name: "Hala", Items: []string{"kebab"}, ETAMinutes: 18, Status: domain.OrderStatusConfirmed},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(orders)
	})
	mux.HandleFunc("/orders/ORD-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(orders["ORD-1"])
	})
	mux.HandleFunc("/orders/ORD-404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Order not found"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(server.URL, time.Second)
	ctx := context.Background()

	all, err := client.GetAll(ctx)
	if err != nil || len(all) != 1 || all["ORD-1"].Name != "Hala" {
		t.Errorf("unexpected listing %v (%v)", all, err)
	}

	order, err := client.GetByID(ctx, "ORD-1")
	if err != nil || order.ETAMinutes != 18 {
		t.Errorf("unexpected order %+v (%v)", order, err)
	}

	_, err = client.GetByID(ctx, "ORD-404")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.ID != "ORD-404" {
		t.Errorf("expected not found for ORD-404, got %v", err)
	}
}
