package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

const rabbitPublishTimeout = 5 * time.Second

var errRabbitClosed = errors.New("rabbitmq: queue closed")

type rabbitLink struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

type rabbitSubscription struct {
	subject string
	handler func(data []byte) error
}

// RabbitMQQueue publishes subjects as routing keys on one topic exchange.
// Subscriptions are replayed onto the new channel after a reconnect.
type RabbitMQQueue struct {
	cfg config.RabbitMQConfig
	log *zap.Logger

	mu   sync.Mutex
	link *rabbitLink
	subs []rabbitSubscription

	done      chan struct{}
	closeOnce sync.Once
}

func NewRabbitMQQueue(cfg config.RabbitMQConfig, log *zap.Logger) (MessageQueue, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = "voice-orders"
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}

	q := &RabbitMQQueue{cfg: cfg, log: log, done: make(chan struct{})}
	link, err := q.connect()
	if err != nil {
		return nil, err
	}
	q.link = link

	go q.watch(link)

	log.Info("Connected to RabbitMQ", zap.String("exchange", cfg.Exchange), zap.Int("prefetch", cfg.Prefetch))
	return q, nil
}

func (q *RabbitMQQueue) connect() (*rabbitLink, error) {
	conn, err := amqp.Dial(q.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err == nil && q.cfg.Prefetch > 0 {
		err = ch.Qos(q.cfg.Prefetch, 0, false)
	}
	if err == nil {
		err = ch.ExchangeDeclare(q.cfg.Exchange, "topic", true, false, false, false, nil)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: setup channel: %w", err)
	}

	return &rabbitLink{conn: conn, ch: ch}, nil
}

func (q *RabbitMQQueue) Publish(subject string, data []byte) error {
	q.mu.Lock()
	link := q.link
	q.mu.Unlock()
	if link == nil {
		return errRabbitClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), rabbitPublishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         data,
	}
	if err := link.ch.PublishWithContext(ctx, q.cfg.Exchange, subject, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe binds a durable queue named after subject, so events published
// while the consumer is down are delivered once it comes back.
func (q *RabbitMQQueue) Subscribe(subject string, handler func(data []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.link == nil {
		return errRabbitClosed
	}

	sub := rabbitSubscription{subject: subject, handler: handler}
	if err := q.consume(q.link, sub); err != nil {
		return err
	}
	q.subs = append(q.subs, sub)

	q.log.Info("Subscribed to RabbitMQ subject", zap.String("subject", subject))
	return nil
}

func (q *RabbitMQQueue) consume(link *rabbitLink, sub rabbitSubscription) error {
	if _, err := link.ch.QueueDeclare(sub.subject, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: declare queue %s: %w", sub.subject, err)
	}
	if err := link.ch.QueueBind(sub.subject, sub.subject, q.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: bind queue %s: %w", sub.subject, err)
	}

	deliveries, err := link.ch.Consume(sub.subject, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume %s: %w", sub.subject, err)
	}

	go func() {
		for d := range deliveries {
			if err := sub.handler(d.Body); err != nil {
				// Malformed events are dropped rather than redelivered forever.
				q.log.Error("Rejecting RabbitMQ message", zap.String("subject", sub.subject), zap.Error(err))
				d.Nack(false, false)
				continue
			}
			d.Ack(false)
		}
	}()
	return nil
}

// watch waits for the connection to drop and dials again until it succeeds
// or the queue is closed.
func (q *RabbitMQQueue) watch(link *rabbitLink) {
	for {
		reason, ok := <-link.conn.NotifyClose(make(chan *amqp.Error, 1))
		if !ok {
			return
		}
		q.log.Warn("RabbitMQ connection lost", zap.String("reason", reason.Reason))

		next, err := q.redial()
		if err != nil {
			return
		}
		link = next
	}
}

func (q *RabbitMQQueue) redial() (*rabbitLink, error) {
	for attempt := 1; ; attempt++ {
		select {
		case <-q.done:
			return nil, errRabbitClosed
		case <-time.After(q.cfg.ReconnectDelay):
		}

		link, err := q.connect()
		if err != nil {
			q.log.Error("RabbitMQ reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		q.mu.Lock()
		select {
		case <-q.done:
			q.mu.Unlock()
			link.conn.Close()
			return nil, errRabbitClosed
		default:
		}
		q.link = link
		for _, sub := range q.subs {
			if err := q.consume(link, sub); err != nil {
				q.log.Error("Failed to restore RabbitMQ subscription", zap.String("subject", sub.subject), zap.Error(err))
			}
		}
		q.mu.Unlock()

		q.log.Info("Reconnected to RabbitMQ", zap.Int("attempt", attempt), zap.Int("subscriptions", len(q.subs)))
		return link, nil
	}
}

func (q *RabbitMQQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })

	q.mu.Lock()
	link := q.link
	q.link = nil
	q.mu.Unlock()

	if link == nil {
		return nil
	}
	link.ch.Close()
	return link.conn.Close()
}
