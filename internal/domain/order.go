package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
)

// Order is immutable after creation except for Status.
type Order struct {
	ID         string      `json:"order_id" gorm:"primaryKey"`
	Name       string      `json:"name"`
	Items      []string    `json:"items" gorm:"serializer:json"`
	ETAMinutes int         `json:"eta_minutes"`
	Status     OrderStatus `json:"status" gorm:"index"`
	CreatedAt  time.Time   `json:"created_at"`
}

// legacyTimeLayout is the naive local timestamp older order files carry.
const legacyTimeLayout = "2006-01-02 15:04:05"

// UnmarshalJSON accepts created_at as RFC 3339 or in legacyTimeLayout.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	aux := struct {
		*plain
		CreatedAt *string `json:"created_at"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.CreatedAt == nil || *aux.CreatedAt == "" {
		return nil
	}

	created, err := ParseOrderTime(*aux.CreatedAt)
	if err != nil {
		return err
	}
	o.CreatedAt = created
	return nil
}

// ParseOrderTime reads an order timestamp. Values without a zone are local time.
func ParseOrderTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{legacyTimeLayout, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("created_at %q: unsupported timestamp format", value)
}

// Clone returns a copy that does not share the Items slice.
func (o Order) Clone() Order {
	items := make([]string, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

// OrderResult is the success payload of an order submission.
type OrderResult struct {
	Success      bool   `json:"success"`
	OrderID      string `json:"order_id"`
	ETAMinutes   int    `json:"eta_minutes"`
	Message      string `json:"message"`
	OrderDetails Order  `json:"order_details"`
}

// OrderDirective is a submit_order call recovered from assistant text.
type OrderDirective struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// OrderCreatedEvent is published on SubjectOrderCreated.
type OrderCreatedEvent struct {
	OrderID    string    `json:"order_id"`
	Name       string    `json:"name"`
	Items      []string  `json:"items"`
	ETAMinutes int       `json:"eta_minutes"`
	CreatedAt  time.Time `json:"created_at"`
}

const SubjectOrderCreated = "orders.created"

// OrderLogEntry is an order confirmed through the assistant during this process lifetime.
type OrderLogEntry struct {
	Timestamp      time.Time    `json:"timestamp"`
	UserID         string       `json:"user_id"`
	Name           string       `json:"name"`
	Items          []string     `json:"items"`
	OrderID        string       `json:"order_id"`
	ETAMinutes     int          `json:"eta_minutes"`
	BackendMessage string       `json:"backend_message"`
	Result         *OrderResult `json:"backend_response,omitempty"`
}
