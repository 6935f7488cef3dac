package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
)

const (
	DefaultSubmitTimeout = 10 * time.Second
	DefaultListTimeout   = 5 * time.Second
)

// Client talks to the order backend over its HTTP API.
type Client struct {
	baseURL       string
	http          *circuitbreaker.HTTPClient
	submitTimeout time.Duration
	listTimeout   time.Duration
	log           *zap.Logger
}

type submitRequest struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewClient(baseURL string, httpClient *circuitbreaker.HTTPClient, submitTimeout, listTimeout time.Duration, log *zap.Logger) *Client {
	if submitTimeout <= 0 {
		submitTimeout = DefaultSubmitTimeout
	}
	if listTimeout <= 0 {
		listTimeout = DefaultListTimeout
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          httpClient,
		submitTimeout: submitTimeout,
		listTimeout:   listTimeout,
		log:           log,
	}
}

func (c *Client) Submit(ctx context.Context, name string, items []string) (*domain.OrderResult, error) {
	ctx, span := otel.Tracer("order-backend-client").Start(ctx, "BackendClient.Submit")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	body, err := json.Marshal(submitRequest{Name: name, Items: items})
	if err != nil {
		return nil, &domain.TransportError{Kind: domain.TransportOther, Err: err}
	}

	resp, err := c.http.Post(ctx, c.baseURL+"/submit-order", "application/json", body)
	if err != nil {
		terr := classify(err)
		c.record("submit", terr)
		span.RecordError(terr)
		c.log.Warn("Order submission failed",
			zap.String("kind", terr.Kind.String()),
			zap.Error(err),
		)
		return nil, terr
	}
	defer resp.Body.Close()

	var result domain.OrderResult
	if err := c.decode(resp, &result); err != nil {
		c.record("submit", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", result.OrderID))
	c.record("submit", nil)
	return &result, nil
}

func (c *Client) GetAll(ctx context.Context) (map[string]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	resp, err := c.http.Get(ctx, c.baseURL+"/orders")
	if err != nil {
		terr := classify(err)
		c.record("list", terr)
		return nil, terr
	}
	defer resp.Body.Close()

	orders := make(map[string]domain.Order)
	if err := c.decode(resp, &orders); err != nil {
		c.record("list", err)
		return nil, err
	}

	c.record("list", nil)
	return orders, nil
}

func (c *Client) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	resp, err := c.http.Get(ctx, c.baseURL+"/orders/"+url.PathEscape(id))
	if err != nil {
		terr := classify(err)
		c.record("get", terr)
		return nil, terr
	}
	defer resp.Body.Close()

	var order domain.Order
	if err := c.decode(resp, &order); err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			notFound.ID = id
		}
		c.record("get", err)
		return nil, err
	}

	c.record("get", nil)
	return &order, nil
}

// Ping checks that the backend answers its liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	resp, err := c.http.Get(ctx, c.baseURL+"/health/live")
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order backend liveness returned %d", resp.StatusCode)
	}
	return nil
}

// decode maps the response status onto the error kinds and decodes a 200 body into out.
func (c *Client) decode(resp *http.Response, out interface{}) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.Unmarshal(data, out); err != nil {
			return &domain.TransportError{Kind: domain.TransportOther, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	case http.StatusBadRequest:
		return domain.NewValidationError("", serverMessage(data))
	case http.StatusNotFound:
		return &domain.NotFoundError{}
	default:
		return &domain.TransportError{
			Kind:   domain.TransportOther,
			Detail: "Backend error: " + serverMessage(data),
		}
	}
}

func serverMessage(data []byte) string {
	var e errorResponse
	if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
		return "Unknown error"
	}
	return e.Error
}

func (c *Client) record(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = domain.ErrorKind(err)
	}
	telemetry.BackendRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// classify maps a failed round trip onto unreachable, timeout or other.
func classify(err error) *domain.TransportError {
	var terr *domain.TransportError
	if errors.As(err, &terr) {
		return terr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.TransportError{Kind: domain.TransportTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.TransportError{Kind: domain.TransportTimeout, Err: err}
	}

	if circuitbreaker.IsCircuitOpen(err) {
		return &domain.TransportError{Kind: domain.TransportUnreachable, Err: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &domain.TransportError{Kind: domain.TransportUnreachable, Err: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return &domain.TransportError{Kind: domain.TransportUnreachable, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &domain.TransportError{Kind: domain.TransportUnreachable, Err: err}
	}

	return &domain.TransportError{Kind: domain.TransportOther, Err: err}
}
