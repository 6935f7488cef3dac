package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

// MessageQueue carries order events between processes.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// New selects the queue implementation named by cfg.Queue.Driver.
func New(cfg *config.Config, log *zap.Logger) (MessageQueue, error) {
	switch cfg.Queue.Driver {
	case "nats":
		return NewNATSQueue(cfg.NATS, log)
	case "rabbitmq":
		return NewRabbitMQQueue(cfg.RabbitMQ, log)
	case "memory", "":
		return NewMemoryQueue(log), nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Queue.Driver)
	}
}
