package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

type orderRow struct {
	ID         string    `gorm:"primaryKey;column:order_id"`
	Name       string    `gorm:"not null"`
	Items      []string  `gorm:"serializer:json;not null"`
	ETAMinutes int       `gorm:"column:eta_minutes;not null"`
	Status     string    `gorm:"index;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (orderRow) TableName() string {
	return "orders"
}

func toRow(o domain.Order) orderRow {
	return orderRow{
		ID:         o.ID,
		Name:       o.Name,
		Items:      o.Items,
		ETAMinutes: o.ETAMinutes,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
	}
}

func (r orderRow) toDomain() domain.Order {
	return domain.Order{
		ID:         r.ID,
		Name:       r.Name,
		Items:      r.Items,
		ETAMinutes: r.ETAMinutes,
		Status:     domain.OrderStatus(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

// OrderSnapshotStore keeps one row per order. Save upserts the full set in one transaction.
type OrderSnapshotStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOrderSnapshotStore(db *gorm.DB, log *zap.Logger) *OrderSnapshotStore {
	return &OrderSnapshotStore{db: db, log: log}
}

func (s *OrderSnapshotStore) Load(ctx context.Context) (map[string]domain.Order, error) {
	var rows []orderRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	orders := make(map[string]domain.Order, len(rows))
	for _, row := range rows {
		orders[row.ID] = row.toDomain()
	}
	return orders, nil
}

func (s *OrderSnapshotStore) Save(ctx context.Context, orders map[string]domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	rows := make([]orderRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, toRow(o))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			UpdateAll: true,
		}).CreateInBatches(rows, 100).Error
		if err != nil {
			return fmt.Errorf("upsert orders: %w", err)
		}
		return nil
	})
}

func (s *OrderSnapshotStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
