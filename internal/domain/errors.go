package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrDirectiveParse = errors.New("failed to parse function call")
	ErrTransport      = errors.New("order backend transport failure")
	ErrStore          = errors.New("order store failure")
	ErrNotFound       = errors.New("not found")
)

// ValidationError reports caller input that was rejected before any state changed.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DirectiveParseError means the FUNCTION_CALL marker was found but its payload was malformed.
type DirectiveParseError struct {
	Payload string
	Reason  string
}

func (e *DirectiveParseError) Error() string {
	return fmt.Sprintf("failed to parse function call: %s", e.Reason)
}

func (e *DirectiveParseError) Is(target error) bool {
	return target == ErrDirectiveParse
}

type TransportKind int

const (
	TransportOther TransportKind = iota
	TransportUnreachable
	TransportTimeout
)

func (k TransportKind) String() string {
	switch k {
	case TransportUnreachable:
		return "unreachable"
	case TransportTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// TransportError is a failure between a remote caller and the order backend.
type TransportError struct {
	Kind   TransportKind
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order backend %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("order backend %s: %s", e.Kind, e.Detail)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// UserMessage is the Arabic text shown to the customer for this failure.
func (e *TransportError) UserMessage() string {
	switch e.Kind {
	case TransportUnreachable:
		return "لا يمكن الاتصال بالخادم"
	case TransportTimeout:
		return "انتهت مهلة الاتصال"
	default:
		if e.Err == nil {
			return e.Detail
		}
		return fmt.Sprintf("خطأ في الإرسال: %v", e.Err)
	}
}

// StoreError is a persistence failure. The in-memory order it accompanies is still valid.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("order store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "Order not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ErrorKind names the error family for API payloads and metrics labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrDirectiveParse):
		return "directive_parse_error"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	case errors.Is(err, ErrStore):
		return "store_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}

// UserMessage returns the customer-facing text for err.
func UserMessage(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.UserMessage()
	}
	return err.Error()
}
