package ports

import (
	"context"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

// OrderService is the order submission boundary. It is implemented in-process by
// service/order and remotely by adapter/backend.
type OrderService interface {
	Submit(ctx context.Context, name string, items []string) (*domain.OrderResult, error)
	GetAll(ctx context.Context) (map[string]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// Completer produces the assistant reply for input given the prior history.
type Completer interface {
	Complete(ctx context.Context, history []domain.Turn, input string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// DirectiveExtractor splits assistant text into the displayable reply and an optional order directive.
// A nil directive with a nil error means no directive was present.
type DirectiveExtractor interface {
	Extract(reply string) (clean string, directive *domain.OrderDirective, err error)
}

// DialogueManager owns per-user conversation history.
type DialogueManager interface {
	StartOrContinue(ctx context.Context, userID, input string) (string, []domain.Turn, error)
	Clear(ctx context.Context, userID string) error
	History(ctx context.Context, userID string) ([]domain.Turn, error)
}

type OrderNotifier interface {
	NotifyOrder(userID string, confirmation domain.OrderConfirmation)
}
