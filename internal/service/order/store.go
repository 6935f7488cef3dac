package order

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
	"github.com/seu-repo/voice-order-assistant/internal/ports"
)

const (
	BasePreparationMinutes = 15
	MinutesPerItem         = 3
	MinimumETAMinutes      = 10
	MinVariation           = -5
	MaxVariation           = 10
)

// ComputeETA applies max(10, 15 + 3*items + variation).
func ComputeETA(itemCount, variation int) int {
	eta := BasePreparationMinutes + MinutesPerItem*itemCount + variation
	if eta < MinimumETAMinutes {
		return MinimumETAMinutes
	}
	return eta
}

// NewOrderID combines a random UUID fragment with the unix time modulo 10000.
func NewOrderID(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%04d", random, now.Unix()%10000)
}

// Store holds every order in memory and rewrites the full snapshot on each creation.
// Create is a single critical section: id assignment, insert and snapshot write never interleave.
type Store struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	snapshots ports.OrderSnapshotStore
	variation func() int
	now       func() time.Time
	newID     func(time.Time) string
	log       *zap.Logger
}

type StoreOption func(*Store)

// WithVariation replaces the random ETA variation draw.
func WithVariation(fn func() int) StoreOption {
	return func(s *Store) { s.variation = fn }
}

// WithRand draws ETA variation from r. r is only used under the store lock.
func WithRand(r *rand.Rand) StoreOption {
	return func(s *Store) {
		s.variation = func() int { return r.Intn(MaxVariation-MinVariation+1) + MinVariation }
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(fn func(time.Time) string) StoreOption {
	return func(s *Store) { s.newID = fn }
}

// NewStore loads the prior snapshot. A store that has never been written loads empty.
func NewStore(ctx context.Context, snapshots ports.OrderSnapshotStore, log *zap.Logger, opts ...StoreOption) (*Store, error) {
	s := &Store{
		snapshots: snapshots,
		now:       time.Now,
		newID:     NewOrderID,
		log:       log,
	}
	WithRand(rand.New(rand.NewSource(time.Now().UnixNano())))(s)
	for _, opt := range opts {
		opt(s)
	}

	orders, err := snapshots.Load(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "load", Err: err}
	}
	if orders == nil {
		orders = make(map[string]domain.Order)
	}
	s.orders = orders

	log.Info("Order store loaded", zap.Int("orders", len(orders)))
	return s, nil
}

// Create assigns id and ETA, records the order and writes the full snapshot.
// A *domain.StoreError is returned together with a valid order when only the write failed.
func (s *Store) Create(ctx context.Context, name string, items []string) (domain.Order, error) {
	ctx, span := otel.Tracer("order-store").Start(ctx, "OrderStore.Create")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := s.newID(now)
	variation := s.variation()

	order := domain.Order{
		ID:         id,
		Name:       name,
		Items:      append([]string(nil), items...),
		ETAMinutes: ComputeETA(len(items), variation),
		Status:     domain.OrderStatusConfirmed,
		CreatedAt:  now,
	}

	if _, exists := s.orders[id]; exists {
		s.log.Warn("Order id collision, previous order replaced", zap.String("order_id", id))
	}
	s.orders[id] = order

	span.SetAttributes(
		attribute.String("order.id", id),
		attribute.Int("order.items", len(items)),
		attribute.Int("order.eta_minutes", order.ETAMinutes),
	)

	telemetry.OrdersCreatedTotal.Inc()
	telemetry.OrderETAMinutes.Observe(float64(order.ETAMinutes))

	if err := s.snapshots.Save(ctx, s.snapshotLocked()); err != nil {
		telemetry.OrderPersistFailuresTotal.Inc()
		span.RecordError(err)
		s.log.Error("Failed to persist orders",
			zap.String("order_id", id),
			zap.Int("orders", len(s.orders)),
			zap.Error(err),
		)
		return order.Clone(), &domain.StoreError{Op: "save", Err: err}
	}

	return order.Clone(), nil
}

// GetAll returns a snapshot copy of every order.
func (s *Store) GetAll() map[string]domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Get(id string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, false
	}
	return order.Clone(), true
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Ping checks the backing snapshot store.
func (s *Store) Ping(ctx context.Context) error {
	return s.snapshots.Ping(ctx)
}

func (s *Store) snapshotLocked() map[string]domain.Order {
	out := make(map[string]domain.Order, len(s.orders))
	for id, o := range s.orders {
		out[id] = o.Clone()
	}
	return out
}
