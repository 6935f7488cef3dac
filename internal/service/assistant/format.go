package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

const (
	MsgEmptyText        = "❌ الرجاء كتابة رسالة"
	MsgUnclearAudio     = "❌ لم أتمكن من فهم الصوت، حاول مرة أخرى"
	MsgCleared          = "🔄 تم مسح المحادثة"
	MsgInConversation   = "💬 جاري المحادثة..."
	MsgDefaultConfirmed = "تم تأكيد الطلب"
	MsgNoOrders         = "📋 لا توجد طلبات حتى الآن"
	MsgNoBackendOrders  = "📋 لا توجد طلبات في النظام"
	MsgBackendFetchFail = "❌ خطأ في الاتصال بالخادم: %v"

	logTimeLayout = "2006-01-02 15:04:05"
)

// Status renders the one-block status shown next to a turn.
func Status(result *domain.TurnResult) string {
	if result == nil {
		return ""
	}
	if result.Error != "" && result.Order == nil {
		return "❌ خطأ: " + result.Error
	}
	if result.Order == nil {
		return MsgInConversation
	}

	o := result.Order
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ %s\n", o.BackendMessage)
	fmt.Fprintf(&sb, "🆔 رقم الطلب: %s\n", o.OrderID)
	fmt.Fprintf(&sb, "⏰ الوقت المتوقع: %d دقيقة\n", o.ETAMinutes)
	fmt.Fprintf(&sb, "📋 الاسم: %s\n", o.Name)
	fmt.Fprintf(&sb, "🍽️ الطلبات: %s", strings.Join(o.Items, ", "))
	return sb.String()
}

// FormatExchange renders one user/assistant exchange for a transcript view.
func FormatExchange(userText, reply string) string {
	return fmt.Sprintf("👤 **أنت:** %s\n\n🤖 **المساعد:** %s\n\n", userText, reply)
}

// FormatOrderLog renders the orders confirmed through this assistant.
func FormatOrderLog(entries []domain.OrderLogEntry) string {
	if len(entries) == 0 {
		return MsgNoOrders
	}

	var sb strings.Builder
	sb.WriteString("📋 **سجل الطلبات:**\n\n")
	for i, e := range entries {
		fmt.Fprintf(&sb, "**طلب رقم %d:**\n", i+1)
		fmt.Fprintf(&sb, "⏰ الوقت: %s\n", e.Timestamp.Format(logTimeLayout))
		fmt.Fprintf(&sb, "👤 الاسم: %s\n", e.Name)
		fmt.Fprintf(&sb, "🍽️ الطلبات: %s\n", strings.Join(e.Items, ", "))
		if e.OrderID != "" {
			fmt.Fprintf(&sb, "🆔 رقم الطلب: %s\n", e.OrderID)
		}
		if e.ETAMinutes > 0 {
			fmt.Fprintf(&sb, "⏰ الوقت المتوقع: %d دقيقة\n", e.ETAMinutes)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatBackendOrders renders the order backend's full listing, oldest first.
func FormatBackendOrders(orders map[string]domain.Order) string {
	if len(orders) == 0 {
		return MsgNoBackendOrders
	}

	list := make([]domain.Order, 0, len(orders))
	for id, o := range orders {
		if o.ID == "" {
			o.ID = id
		}
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})

	var sb strings.Builder
	sb.WriteString("🗄️ **طلبات النظام (من الخادم):**\n\n")
	for _, o := range list {
		fmt.Fprintf(&sb, "**🆔 %s:**\n", o.ID)
		fmt.Fprintf(&sb, "👤 الاسم: %s\n", o.Name)
		fmt.Fprintf(&sb, "🍽️ الطلبات: %s\n", strings.Join(o.Items, ", "))
		fmt.Fprintf(&sb, "⏰ الوقت المتوقع: %d دقيقة\n", o.ETAMinutes)
		fmt.Fprintf(&sb, "📅 تاريخ الطلب: %s\n", o.CreatedAt.Format(logTimeLayout))
		fmt.Fprintf(&sb, "📊 الحالة: %s\n\n", o.Status)
	}
	return sb.String()
}
