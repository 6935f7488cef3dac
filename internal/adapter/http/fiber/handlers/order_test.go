package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/mocks"
	"github.com/seu-repo/voice-order-assistant/internal/service/order"
)

func newOrderApp(t *testing.T) (*fiber.App, *order.Store) {
	t.Helper()
	store, err := order.NewStore(context.Background(), mocks.NewMockSnapshotStore(), zap.NewNop(),
		order.WithVariation(func() int { return 0 }))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	app := fiber.New()
	NewOrderHandler(order.NewService(store, nil, "", zap.NewNop()), zap.NewNop()).RegisterRoutes(app)
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)

	var out map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("invalid JSON %q: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func TestOrderHandler_Submit(t *testing.T) {
	// Arrange
	app, store := newOrderApp(t)

	// Act
	status, body := doJSON(t, app, "POST", "/submit-order", `{"name":"Sami","items":["burger","fries"]}`)

	// Assert
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, body)
	}
	if body["success"] != true {
		t.Errorf("expected success, got %v", body)
	}
	if body["eta_minutes"].(float64) != 21 {
		t.Errorf("expected eta 21, got %v", body["eta_minutes"])
	}
	details := body["order_details"].(map[string]interface{})
	if details["status"] != "confirmed" || details["order_id"] != body["order_id"] {
		t.Errorf("unexpected order details %v", details)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 stored order, got %d", store.Count())
	}
}

func TestOrderHandler_SubmitRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty body", body: "", want: "No data provided"},
		{name: "empty object", body: "{}", want: "No data provided"},
		{name: "empty object with whitespace", body: "{ \n }", want: "No data provided"},
		{name: "null", body: "null", want: "No data provided"},
		{name: "array", body: `["tea"]`, want: "No data provided"},
		{name: "unrelated fields", body: `{"foo":1}`, want: "Name and items are required"},
		{name: "invalid json", body: "{not json", want: "No data provided"},
		{name: "missing items", body: `{"name":"Sami"}`, want: "Name and items are required"},
		{name: "empty name", body: `{"name":"","items":["tea"]}`, want: "Name and items are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, store := newOrderApp(t)

			status, body := doJSON(t, app, "POST", "/submit-order", tt.body)

			if status != fiber.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
			if body["error"] != tt.want {
				t.Errorf("expected %q, got %v", tt.want, body["error"])
			}
			if store.Count() != 0 {
				t.Error("expected no orders")
			}
		})
	}
}

func TestOrderHandler_ListAndGet(t *testing.T) {
	app, _ := newOrderApp(t)

	_, created := doJSON(t, app, "POST", "/submit-order", `{"name":"Hala","items":["kebab"]}`)
	id := created["order_id"].(string)

	status, list := doJSON(t, app, "GET", "/orders", "")
	if status != fiber.StatusOK || len(list) != 1 {
		t.Fatalf("expected one order, got %d %v", status, list)
	}
	if _, ok := list[id]; !ok {
		t.Errorf("expected listing keyed by order id, got %v", list)
	}

	status, got := doJSON(t, app, "GET", "/orders/"+id, "")
	if status != fiber.StatusOK || got["name"] != "Hala" {
		t.Errorf("unexpected lookup %d %v", status, got)
	}

	status, missing := doJSON(t, app, "GET", "/orders/ORD-NOPE-0000", "")
	if status != fiber.StatusNotFound || missing["error"] != "Order not found" {
		t.Errorf("unexpected not found response %d %v", status, missing)
	}
}

func TestOrderHandler_ServerError(t *testing.T) {
	orders := &mocks.MockOrderService{
		SubmitFunc: func(ctx context.Context, name string, items []string) (*domain.OrderResult, error) {
			return nil, errors.New("boom")
		},
	}
	app := fiber.New()
	NewOrderHandler(orders, zap.NewNop()).RegisterRoutes(app)

	status, body := doJSON(t, app, "POST", "/submit-order", `{"name":"Sami","items":["tea"]}`)

	if status != fiber.StatusInternalServerError || body["error"] != "Server error: boom" {
		t.Errorf("unexpected response %d %v", status, body)
	}
}
