package queue

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestMemoryQueue_DeliversToSubjectSubscribers(t *testing.T) {
	q := NewMemoryQueue(zap.NewNop())

	var got []string
	q.Subscribe("orders.created", func(data []byte) error {
		got = append(got, string(data))
		return nil
	})
	q.Subscribe("other", func(data []byte) error {
		t.Error("handler for another subject should not run")
		return nil
	})

	if err := q.Publish("orders.created", []byte(`{"order_id":"ORD-1"}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(got) != 1 || got[0] != `{"order_id":"ORD-1"}` {
		t.Errorf("unexpected deliveries: %v", got)
	}
}

func TestMemoryQueue_HandlerErrorDoesNotFailPublish(t *testing.T) {
	q := NewMemoryQueue(zap.NewNop())
	q.Subscribe("orders.created", func(data []byte) error {
		return errors.New("kitchen offline")
	})

	if err := q.Publish("orders.created", []byte("x")); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestMemoryQueue_ClosedDropsMessages(t *testing.T) {
	q := NewMemoryQueue(zap.NewNop())
	called := false
	q.Subscribe("s", func(data []byte) error {
		called = true
		return nil
	})

	q.Close()
	q.Publish("s", []byte("x"))

	if called {
		t.Error("expected no delivery after Close")
	}
}
