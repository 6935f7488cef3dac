package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
	"github.com/seu-repo/voice-order-assistant/internal/ports"
)

const (
	ChannelText  = "text"
	ChannelVoice = "voice"
)

// Assistant runs one customer turn end to end: dialogue, directive extraction,
// order submission, and speech.
type Assistant struct {
	dialogue    ports.DialogueManager
	extractor   ports.DirectiveExtractor
	orders      ports.OrderService
	transcriber ports.Transcriber
	synthesizer ports.Synthesizer
	notifier    ports.OrderNotifier
	mimeType    string
	now         func() time.Time
	log         *zap.Logger

	mu       sync.RWMutex
	orderLog []domain.OrderLogEntry
}

type Option func(*Assistant)

// WithSpeech enables voice input and spoken replies. Either side may be nil.
func WithSpeech(transcriber ports.Transcriber, synthesizer ports.Synthesizer, mimeType string) Option {
	return func(a *Assistant) {
		a.transcriber = transcriber
		a.synthesizer = synthesizer
		a.mimeType = mimeType
	}
}

func WithNotifier(n ports.OrderNotifier) Option {
	return func(a *Assistant) { a.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

func New(
	dialogue ports.DialogueManager,
	extractor ports.DirectiveExtractor,
	orders ports.OrderService,
	log *zap.Logger,
	opts ...Option,
) *Assistant {
	a := &Assistant{
		dialogue:  dialogue,
		extractor: extractor,
		orders:    orders,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HandleText processes a typed message.
func (a *Assistant) HandleText(ctx context.Context, userID, text string) (*domain.TurnResult, error) {
	start := time.Now()
	defer func() {
		telemetry.TurnLatency.WithLabelValues(ChannelText).Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(text) == "" {
		telemetry.DialogueTurnsTotal.WithLabelValues(ChannelText, "rejected").Inc()
		return nil, domain.NewValidationError("text", "الرجاء كتابة رسالة")
	}

	return a.turn(ctx, ChannelText, userID, text)
}

// HandleVoice transcribes audio and processes the transcript as a text turn.
func (a *Assistant) HandleVoice(ctx context.Context, userID string, audio []byte, contentType string) (*domain.TurnResult, error) {
	start := time.Now()
	defer func() {
		telemetry.TurnLatency.WithLabelValues(ChannelVoice).Observe(time.Since(start).Seconds())
	}()

	if a.transcriber == nil {
		telemetry.DialogueTurnsTotal.WithLabelValues(ChannelVoice, "rejected").Inc()
		return nil, domain.NewValidationError("audio", "voice input is not enabled")
	}

	text, err := a.transcriber.Transcribe(ctx, audio, contentType)
	if err != nil {
		a.log.Warn("Transcription failed", zap.String("user_id", userID), zap.Error(err))
		text = ""
	}
	if strings.TrimSpace(text) == "" {
		telemetry.DialogueTurnsTotal.WithLabelValues(ChannelVoice, "rejected").Inc()
		return nil, domain.NewValidationError("audio", "لم أتمكن من فهم الصوت، حاول مرة أخرى")
	}

	return a.turn(ctx, ChannelVoice, userID, text)
}

func (a *Assistant) turn(ctx context.Context, channel, userID, text string) (*domain.TurnResult, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	ctx, span := otel.Tracer("assistant").Start(ctx, "Assistant.Turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("turn.channel", channel),
	)

	reply, history, err := a.dialogue.StartOrContinue(ctx, userID, text)
	if err != nil {
		telemetry.DialogueTurnsTotal.WithLabelValues(channel, "cancelled").Inc()
		return nil, err
	}

	result := &domain.TurnResult{
		UserID:        userID,
		UserText:      text,
		Response:      reply,
		CleanResponse: reply,
		History:       history,
	}

	clean, directive, err := a.extractor.Extract(reply)
	result.CleanResponse = clean
	switch {
	case err != nil:
		result.FunctionCall = true
		result.Error = err.Error()
		result.ErrorKind = domain.ErrorKind(err)
		a.log.Warn("Malformed order directive", zap.String("user_id", userID), zap.Error(err))
	case directive != nil:
		result.FunctionCall = true
		a.submit(ctx, userID, directive, result)
	}

	a.speak(ctx, result)

	outcome := "ok"
	switch {
	case result.Order != nil:
		outcome = "order"
	case result.Error != "":
		outcome = result.ErrorKind
	}
	telemetry.DialogueTurnsTotal.WithLabelValues(channel, outcome).Inc()

	return result, nil
}

func (a *Assistant) submit(ctx context.Context, userID string, directive *domain.OrderDirective, result *domain.TurnResult) {
	a.log.Info("Submitting order",
		zap.String("user_id", userID),
		zap.String("name", directive.Name),
		zap.Strings("items", directive.Items),
	)

	res, err := a.orders.Submit(ctx, directive.Name, directive.Items)
	if err != nil {
		result.Error = domain.UserMessage(err)
		result.ErrorKind = domain.ErrorKind(err)
		a.log.Error("Order submission failed",
			zap.String("user_id", userID),
			zap.String("error_kind", result.ErrorKind),
			zap.Error(err),
		)
		return
	}

	message := res.Message
	if message == "" {
		message = MsgDefaultConfirmed
	}
	confirmation := domain.OrderConfirmation{
		OrderID:        res.OrderID,
		ETAMinutes:     res.ETAMinutes,
		BackendMessage: message,
		Name:           directive.Name,
		Items:          append([]string(nil), directive.Items...),
	}
	result.Order = &confirmation

	a.mu.Lock()
	a.orderLog = append(a.orderLog, domain.OrderLogEntry{
		Timestamp:      a.now(),
		UserID:         userID,
		Name:           confirmation.Name,
		Items:          confirmation.Items,
		OrderID:        confirmation.OrderID,
		ETAMinutes:     confirmation.ETAMinutes,
		BackendMessage: message,
		Result:         res,
	})
	a.mu.Unlock()

	if a.notifier != nil {
		a.notifier.NotifyOrder(userID, confirmation)
	}
}

// speak attaches synthesized audio for the clean reply. Failures leave the turn text-only.
func (a *Assistant) speak(ctx context.Context, result *domain.TurnResult) {
	if a.synthesizer == nil || strings.TrimSpace(result.CleanResponse) == "" {
		return
	}

	audio, err := a.synthesizer.Synthesize(ctx, result.CleanResponse)
	if err != nil {
		a.log.Warn("Speech synthesis failed", zap.String("user_id", result.UserID), zap.Error(err))
		return
	}
	result.Audio = audio
	result.AudioMimeType = a.mimeType
}

func (a *Assistant) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	if err := a.dialogue.Clear(ctx, userID); err != nil {
		a.log.Warn("Clear abandoned while a turn was running", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (a *Assistant) History(ctx context.Context, userID string) ([]domain.Turn, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	return a.dialogue.History(ctx, userID)
}

// OrderLog returns a copy of the orders confirmed through this process.
func (a *Assistant) OrderLog() []domain.OrderLogEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]domain.OrderLogEntry, len(a.orderLog))
	copy(out, a.orderLog)
	return out
}

// BackendOrders renders the order backend's listing, or the connection error text.
func (a *Assistant) BackendOrders(ctx context.Context) string {
	orders, err := a.orders.GetAll(ctx)
	if err != nil {
		a.log.Warn("Failed to list backend orders", zap.Error(err))
		return fmt.Sprintf(MsgBackendFetchFail, domain.UserMessage(err))
	}
	return FormatBackendOrders(orders)
}
