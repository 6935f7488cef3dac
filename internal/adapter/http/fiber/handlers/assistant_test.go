package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/mocks"
	"github.com/seu-repo/voice-order-assistant/internal/service/assistant"
	"github.com/seu-repo/voice-order-assistant/internal/service/dialogue"
	"github.com/seu-repo/voice-order-assistant/internal/service/directive"
	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

func newAssistantApp(completer *mocks.MockCompleter, orders *mocks.MockOrderService, transcriber *mocks.MockTranscriber) *fiber.App {
	log := zap.NewNop()
	var opts []assistant.Option
	if transcriber != nil {
		opts = append(opts, assistant.WithSpeech(transcriber, nil, ""))
	}
	a := assistant.New(dialogue.NewManager(completer, log), directive.NewExtractor(log), orders, log, opts...)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	app.Use(middleware.Identity(config.JWTConfig{}, "", log))
	NewAssistantHandler(a, log).RegisterRoutes(app.Group("/api/v1"))
	return app
}

func send(t *testing.T, app *fiber.App, method, target, userID, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

func TestAssistantHandler_TextTurnWithOrder(t *testing.T) {
	// Arrange
	completer := &mocks.MockCompleter{
		CompleteFunc: func(ctx context.Context, history []domain.Turn, input string) (string, error) {
			return `تم! FUNCTION_CALL: submit_order(name='Rami', items=['falafel'])`, nil
		},
	}
	orders := &mocks.MockOrderService{}
	app := newAssistantApp(completer, orders, nil)

	// Act
	status, raw := send(t, app, "POST", "/api/v1/turns/text", "u1", `{"text":"أكد الطلب"}`)

	// Assert
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, raw)
	}
	var result domain.TurnResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if result.UserID != "u1" || result.CleanResponse != "تم!" {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Order == nil || result.Order.Name != "Rami" {
		t.Errorf("expected order for Rami, got %+v", result.Order)
	}

	status, raw = send(t, app, "GET", "/api/v1/orders/log", "", "")
	var log struct {
		Entries   []domain.OrderLogEntry `json:"entries"`
		Formatted string                 `json:"formatted"`
	}
	json.Unmarshal(raw, &log)
	if status != fiber.StatusOK || len(log.Entries) != 1 {
		t.Errorf("expected one log entry, got %d %s", status, raw)
	}
	if !strings.Contains(log.Formatted, "Rami") {
		t.Errorf("expected formatted log to mention Rami, got %q", log.Formatted)
	}
}

func TestAssistantHandler_BlankTextIs400(t *testing.T) {
	app := newAssistantApp(&mocks.MockCompleter{}, &mocks.MockOrderService{}, nil)

	status, raw := send(t, app, "POST", "/api/v1/turns/text", "u1", `{"text":"  "}`)

	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if !strings.Contains(string(raw), "الرجاء كتابة رسالة") {
		t.Errorf("unexpected body %s", raw)
	}
}

func TestAssistantHandler_VoiceTurn(t *testing.T) {
	transcriber := &mocks.MockTranscriber{
		TranscribeFunc: func(ctx context.Context, audio []byte, contentType string) (string, error) {
			if string(audio) != "pcm-bytes" {
				t.Errorf("unexpected audio %q", audio)
			}
			return "مرحبا", nil
		},
	}
	app := newAssistantApp(&mocks.MockCompleter{}, &mocks.MockOrderService{}, transcriber)

	body := `{"audio":"` + base64.StdEncoding.EncodeToString([]byte("pcm-bytes")) + `","content_type":"audio/wav"}`
	status, raw := send(t, app, "POST", "/api/v1/turns/voice", "u1", body)

	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, raw)
	}

	status, _ = send(t, app, "POST", "/api/v1/turns/voice", "u1", `{"audio":"%%%"}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for invalid base64, got %d", status)
	}
}

func TestAssistantHandler_HistoryAndClear(t *testing.T) {
	app := newAssistantApp(&mocks.MockCompleter{}, &mocks.MockOrderService{}, nil)

	send(t, app, "POST", "/api/v1/turns/text", "u1", `{"text":"مرحبا"}`)

	_, raw := send(t, app, "GET", "/api/v1/sessions/me/history", "u1", "")
	var turns []domain.Turn
	json.Unmarshal(raw, &turns)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %s", raw)
	}

	status, raw := send(t, app, "DELETE", "/api/v1/sessions/me", "u1", "")
	if status != fiber.StatusOK || !strings.Contains(string(raw), assistant.MsgCleared) {
		t.Errorf("unexpected clear response %d %s", status, raw)
	}

	_, raw = send(t, app, "GET", "/api/v1/sessions/me/history", "u1", "")
	if string(raw) != "[]" {
		t.Errorf("expected empty history, got %s", raw)
	}
}

func TestAssistantHandler_BackendOrders(t *testing.T) {
	app := newAssistantApp(&mocks.MockCompleter{}, &mocks.MockOrderService{}, nil)

	_, raw := send(t, app, "GET", "/api/v1/orders/backend", "", "")

	var body map[string]string
	json.Unmarshal(raw, &body)
	if body["formatted"] != assistant.MsgNoBackendOrders {
		t.Errorf("unexpected body %s", raw)
	}
}
