package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseOrderTime(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{value: "2024-05-01 12:00:00", want: time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)},
		{value: "2024-05-01T12:00:00.5", want: time.Date(2024, 5, 1, 12, 0, 0, 500000000, time.Local)},
		{value: "2024-05-01T12:00:00+03:00", want: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseOrderTime(tt.value)
		if err != nil {
			t.Errorf("ParseOrderTime(%q) failed: %v", tt.value, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseOrderTime(%q) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestOrder_UnmarshalKeepsOtherFields(t *testing.T) {
	var o Order
	err := json.Unmarshal([]byte(`{"order_id":"ORD-1","name":"Sami","items":["tea"],"eta_minutes":16,"status":"confirmed"}`), &o)

	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if o.ID != "ORD-1" || o.Name != "Sami" || len(o.Items) != 1 || o.ETAMinutes != 16 || !o.CreatedAt.IsZero() {
		t.Errorf("unexpected order %+v", o)
	}
}
