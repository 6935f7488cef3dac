package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/adapter/queue"
	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
)

const confirmationTemplate = "تم تأكيد طلبك بنجاح! رقم الطلب: %s، الوقت المتوقع: %d دقيقة"

// Service validates submissions and exposes the store's query operations.
type Service struct {
	store  *Store
	events queue.MessageQueue
	topic  string
	log    *zap.Logger
}

// NewService creates the order service. events may be nil when no event bus is configured.
func NewService(store *Store, events queue.MessageQueue, topic string, log *zap.Logger) *Service {
	if topic == "" {
		topic = domain.SubjectOrderCreated
	}
	return &Service{
		store:  store,
		events: events,
		topic:  topic,
		log:    log,
	}
}

// Submit validates the request and creates the order. Persistence failures are logged and
// do not fail the submission.
func (s *Service) Submit(ctx context.Context, name string, items []string) (*domain.OrderResult, error) {
	ctx, span := otel.Tracer("order-service").Start(ctx, "OrderService.Submit")
	defer span.End()

	name, cleaned, err := validate(name, items)
	if err != nil {
		telemetry.OrderSubmissionsTotal.WithLabelValues("validation_error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	order, err := s.store.Create(ctx, name, cleaned)
	if err != nil {
		var storeErr *domain.StoreError
		if !errors.As(err, &storeErr) {
			telemetry.OrderSubmissionsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		telemetry.OrderSubmissionsTotal.WithLabelValues("store_error").Inc()
		s.log.Error("Order accepted without durable write",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	} else {
		telemetry.OrderSubmissionsTotal.WithLabelValues("success").Inc()
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	s.publishCreated(order)

	s.log.Info("Order confirmed",
		zap.String("order_id", order.ID),
		zap.String("name", order.Name),
		zap.Int("items", len(order.Items)),
		zap.Int("eta_minutes", order.ETAMinutes),
	)

	return &domain.OrderResult{
		Success:      true,
		OrderID:      order.ID,
		ETAMinutes:   order.ETAMinutes,
		Message:      fmt.Sprintf(confirmationTemplate, order.ID, order.ETAMinutes),
		OrderDetails: order,
	}, nil
}

func (s *Service) GetAll(ctx context.Context) (map[string]domain.Order, error) {
	return s.store.GetAll(), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, ok := s.store.Get(id)
	if !ok {
		return nil, &domain.NotFoundError{ID: id}
	}
	return &order, nil
}

func (s *Service) publishCreated(order domain.Order) {
	if s.events == nil {
		return
	}

	data, err := json.Marshal(domain.OrderCreatedEvent{
		OrderID:    order.ID,
		Name:       order.Name,
		Items:      order.Items,
		ETAMinutes: order.ETAMinutes,
		CreatedAt:  order.CreatedAt,
	})
	if err != nil {
		s.log.Error("Failed to encode order event", zap.String("order_id", order.ID), zap.Error(err))
		return
	}

	if err := s.events.Publish(s.topic, data); err != nil {
		s.log.Warn("Failed to publish order event",
			zap.String("order_id", order.ID),
			zap.String("topic", s.topic),
			zap.Error(err),
		)
	}
}

func validate(name string, items []string) (string, []string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, domain.NewValidationError("name", "Name and items are required")
	}
	if len(items) == 0 {
		return "", nil, domain.NewValidationError("items", "Name and items are required")
	}

	cleaned := make([]string, 0, len(items))
	for i, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return "", nil, domain.NewValidationError("items", fmt.Sprintf("item %d is empty", i+1))
		}
		cleaned = append(cleaned, item)
	}

	return name, cleaned, nil
}
