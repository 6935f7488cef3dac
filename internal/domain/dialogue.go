package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const DefaultUserID = "default_user"

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// OrderConfirmation describes an order accepted during a turn.
type OrderConfirmation struct {
	OrderID        string   `json:"order_id"`
	ETAMinutes     int      `json:"eta_minutes"`
	BackendMessage string   `json:"backend_message"`
	Name           string   `json:"name"`
	Items          []string `json:"items"`
}

// TurnResult is everything a caller needs to render one assistant turn.
type TurnResult struct {
	UserID        string             `json:"user_id"`
	UserText      string             `json:"user_text"`
	Response      string             `json:"response"`
	CleanResponse string             `json:"clean_response"`
	FunctionCall  bool               `json:"function_call"`
	Order         *OrderConfirmation `json:"order,omitempty"`
	Error         string             `json:"error,omitempty"`
	ErrorKind     string             `json:"error_kind,omitempty"`
	Audio         []byte             `json:"audio,omitempty"`
	AudioMimeType string             `json:"audio_mime_type,omitempty"`
	History       []Turn             `json:"history"`
}
