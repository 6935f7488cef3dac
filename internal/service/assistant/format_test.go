package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

func TestStatus(t *testing.T) {
	confirmed := &domain.TurnResult{
		Order: &domain.OrderConfirmation{
			OrderID:        "ORD-ABCDEF12-0042",
			ETAMinutes:     21,
			BackendMessage: "تم تأكيد الطلب",
			Name:           "Sami",
			Items:          []string{"burger", "fries"},
		},
	}

	want := "✅ تم تأكيد الطلب\n" +
		"🆔 رقم الطلب: ORD-ABCDEF12-0042\n" +
		"⏰ الوقت المتوقع: 21 دقيقة\n" +
		"📋 الاسم: Sami\n" +
		"🍽️ الطلبات: burger, fries"

	if got := Status(confirmed); got != want {
		t.Errorf("unexpected status:\n%s", got)
	}
	if got := Status(&domain.TurnResult{Error: "انتهت مهلة الاتصال"}); got != "❌ خطأ: انتهت مهلة الاتصال" {
		t.Errorf("unexpected error status %q", got)
	}
	if got := Status(nil); got != "" {
		t.Errorf("expected empty status, got %q", got)
	}
}

func TestFormatOrderLog(t *testing.T) {
	if got := FormatOrderLog(nil); got != MsgNoOrders {
		t.Errorf("expected empty message, got %q", got)
	}

	entries := []domain.OrderLogEntry{
		{
			Timestamp:  time.Date(2025, 5, 2, 18, 30, 5, 0, time.UTC),
			Name:       "Hala",
			Items:      []string{"kebab"},
			OrderID:    "ORD-1",
			ETAMinutes: 18,
		},
		{
			Timestamp: time.Date(2025, 5, 2, 18, 45, 0, 0, time.UTC),
			Name:      "Omar",
			Items:     []string{"tea", "cake"},
		},
	}

	got := FormatOrderLog(entries)

	for _, want := range []string{
		"📋 **سجل الطلبات:**",
		"**طلب رقم 1:**",
		"⏰ الوقت: 2025-05-02 18:30:05",
		"🆔 رقم الطلب: ORD-1",
		"**طلب رقم 2:**",
		"🍽️ الطلبات: tea, cake",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}
	if strings.Count(got, "🆔") != 1 {
		t.Error("expected order id line only for entries that have one")
	}
}

func TestFormatBackendOrders_SortedByCreation(t *testing.T) {
	if got := FormatBackendOrders(map[string]domain.Order{}); got != MsgNoBackendOrders {
		t.Errorf("expected empty message, got %q", got)
	}

	base := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)
	orders := map[string]domain.Order{
		"ORD-B": {ID: "ORD-B", Name: "B", Items: []string{"y"}, CreatedAt: base.Add(time.Minute), Status: domain.OrderStatusConfirmed},
		"ORD-A": {ID: "ORD-A", Name: "A", Items: []string{"x"}, CreatedAt: base, Status: domain.OrderStatusConfirmed},
	}

	got := FormatBackendOrders(orders)

	if !strings.HasPrefix(got, "🗄️ **طلبات النظام (من الخادم):**") {
		t.Errorf("unexpected header in:\n%s", got)
	}
	if strings.Index(got, "ORD-A") > strings.Index(got, "ORD-B") {
		t.Error("expected oldest order first")
	}
	if !strings.Contains(got, "📊 الحالة: confirmed") {
		t.Errorf("expected status line in:\n%s", got)
	}
}

func TestFormatExchange(t *testing.T) {
	got := FormatExchange("مرحبا", "أهلاً")
	if got != "👤 **أنت:** مرحبا\n\n🤖 **المساعد:** أهلاً\n\n" {
		t.Errorf("unexpected exchange %q", got)
	}
}
