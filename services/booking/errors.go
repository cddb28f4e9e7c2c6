package booking

import (
	"errors"
	"fmt"
)

// Error codes surfaced to the tool layer. They are machine-readable and
// never shown verbatim to end customers.
const (
	CodeSlotOccupied        = "SLOT_OCCUPIED"
	CodePastDate            = "PAST_DATE"
	CodeBusinessClosed      = "BUSINESS_CLOSED"
	CodeUnknownService      = "UNKNOWN_SERVICE"
	CodeNotFound            = "NOT_FOUND"
	CodeForbiddenTransition = "FORBIDDEN_TRANSITION"
	CodeSyncFail            = "SYNC_FAIL"
)

// Error is a typed booking failure carrying a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a typed booking error.
func NewError(code, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the booking error code, or empty for other errors.
func CodeOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Retryable reports whether the model may usefully retry the operation.
// Transactional failures are transient; validation failures need new input.
func Retryable(err error) bool {
	return CodeOf(err) == CodeSyncFail
}
