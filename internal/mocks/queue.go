package mocks

import (
	"encoding/json"
	"sync"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

// MockEventBus records published order events and hands them to subscribers synchronously.
type MockEventBus struct {
	mu          sync.Mutex
	published   map[string][][]byte
	subscribers map[string][]func([]byte) error
	Closed      bool

	PublishFunc func(subject string, data []byte) error
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		published:   make(map[string][][]byte),
		subscribers: make(map[string][]func([]byte) error),
	}
}

func (m *MockEventBus) Publish(subject string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(subject, data)
	}

	m.mu.Lock()
	m.published[subject] = append(m.published[subject], data)
	handlers := append([]func([]byte) error(nil), m.subscribers[subject]...)
	m.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (m *MockEventBus) Subscribe(subject string, handler func([]byte) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[subject] = append(m.subscribers[subject], handler)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

// Published returns the raw payloads sent to subject.
func (m *MockEventBus) Published(subject string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.published[subject]...)
}

// OrderEvents decodes every payload sent to subject as an OrderCreatedEvent.
func (m *MockEventBus) OrderEvents(subject string) ([]domain.OrderCreatedEvent, error) {
	raw := m.Published(subject)
	events := make([]domain.OrderCreatedEvent, 0, len(raw))
	for _, data := range raw {
		var e domain.OrderCreatedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
