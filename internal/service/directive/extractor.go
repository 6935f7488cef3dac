package directive

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
)

// Marker precedes an order call in assistant text:
//
//	FUNCTION_CALL: submit_order(name="<NAME>", items=["a", 'b'])
const Marker = "FUNCTION_CALL:"

// The name must not contain its own quote character. RE2 has no backreferences,
// so each quote style gets its own alternative.
var submitOrderPattern = regexp.MustCompile(
	`submit_order\s*\(\s*name\s*=\s*(?:"([^"]+)"|'([^']+)')\s*,\s*items\s*=\s*\[(.*?)\]\s*\)`,
)

// RegexpExtractor recognises submit_order directives with a single pattern match.
type RegexpExtractor struct {
	log *zap.Logger
}

func NewExtractor(log *zap.Logger) *RegexpExtractor {
	return &RegexpExtractor{log: log}
}

// Extract returns the reply text shown to the customer and the directive, if any.
// A marker with a malformed payload yields the clean text and a *domain.DirectiveParseError.
func (e *RegexpExtractor) Extract(reply string) (string, *domain.OrderDirective, error) {
	idx := strings.Index(reply, Marker)
	if idx < 0 {
		telemetry.DirectiveOutcomesTotal.WithLabelValues("none").Inc()
		return reply, nil, nil
	}

	clean := strings.TrimSpace(reply[:idx])
	payload := strings.TrimSpace(reply[idx+len(Marker):])

	m := submitOrderPattern.FindStringSubmatch(payload)
	if m == nil {
		telemetry.DirectiveOutcomesTotal.WithLabelValues("parse_error").Inc()
		e.log.Warn("Malformed order directive", zap.String("payload", payload))
		return clean, nil, &domain.DirectiveParseError{
			Payload: payload,
			Reason:  "payload does not match submit_order(name=\"...\", items=[...])",
		}
	}

	name := m[1]
	if name == "" {
		name = m[2]
	}

	directive := &domain.OrderDirective{
		Name:  strings.TrimSpace(name),
		Items: SplitItems(m[3]),
	}

	telemetry.DirectiveOutcomesTotal.WithLabelValues("parsed").Inc()
	e.log.Debug("Order directive extracted",
		zap.String("name", directive.Name),
		zap.Strings("items", directive.Items),
	)

	return clean, directive, nil
}

// SplitItems splits a raw item list on commas and strips whitespace and quotes.
// Tokens that end up empty are dropped.
func SplitItems(raw string) []string {
	items := make([]string, 0)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		token = strings.Trim(token, `"'`)
		token = strings.TrimSpace(token)
		if token != "" {
			items = append(items, token)
		}
	}
	return items
}
