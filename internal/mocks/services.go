package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

// MockCompleter is a mock implementation of Completer interface
type MockCompleter struct {
	mu           sync.Mutex
	Calls        int
	LastHistory  []domain.Turn
	CompleteFunc func(ctx context.Context, history []domain.Turn, input string) (string, error)
}

func (m *MockCompleter) Complete(ctx context.Context, history []domain.Turn, input string) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.LastHistory = append([]domain.Turn(nil), history...)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, history, input)
	}
	return "أهلاً وسهلاً", nil
}

// MockOrderService is a mock implementation of OrderService interface
type MockOrderService struct {
	mu          sync.Mutex
	Submitted   []domain.OrderDirective
	SubmitFunc  func(ctx context.Context, name string, items []string) (*domain.OrderResult, error)
	GetAllFunc  func(ctx context.Context) (map[string]domain.Order, error)
	GetByIDFunc func(ctx context.Context, id string) (*domain.Order, error)
}

func (m *MockOrderService) Submit(ctx context.Context, name string, items []string) (*domain.OrderResult, error) {
	m.mu.Lock()
	m.Submitted = append(m.Submitted, domain.OrderDirective{Name: name, Items: items})
	m.mu.Unlock()

	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, name, items)
	}
	return &domain.OrderResult{
		Success:    true,
		OrderID:    "ORD-TEST-0001",
		ETAMinutes: 20,
		Message:    "تم تأكيد الطلب",
		OrderDetails: domain.Order{
			ID:         "ORD-TEST-0001",
			Name:       name,
			Items:      items,
			ETAMinutes: 20,
			Status:     domain.OrderStatusConfirmed,
		},
	}, nil
}

func (m *MockOrderService) GetAll(ctx context.Context) (map[string]domain.Order, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return map[string]domain.Order{}, nil
}

func (m *MockOrderService) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, &domain.NotFoundError{ID: id}
}

// SubmittedCount returns how many submissions were received.
func (m *MockOrderService) SubmittedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Submitted)
}

type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audio []byte, contentType string) (string, error)
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, contentType)
	}
	return "", nil
}

type MockSynthesizer struct {
	mu             sync.Mutex
	Calls          int
	SynthesizeFunc func(ctx context.Context, text string) ([]byte, error)
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return []byte("audio:" + text), nil
}

// MockNotifier records order notifications per user.
type MockNotifier struct {
	mu            sync.Mutex
	Notifications map[string][]domain.OrderConfirmation
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Notifications: make(map[string][]domain.OrderConfirmation)}
}

func (m *MockNotifier) NotifyOrder(userID string, confirmation domain.OrderConfirmation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications[userID] = append(m.Notifications[userID], confirmation)
}
