package sdk

import (
	"fmt"
	"net/http"

	"github.com/mbeoliero/xchange/pkg/errcode"
)

// Error is returned for every non-2xx response and for 2xx bodies that report success=false
type Error struct {
	Status int    `json:"status"`
	Code   int    `json:"code,omitempty"`
	Msg    string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("status: %d, code: %d, msg: %s", e.Status, e.Code, e.Msg)
}

// UserMessage returns the server's message verbatim, or the generic fallback
func (e *Error) UserMessage() string {
	if e.Msg == "" {
		return errcode.GenericMessage
	}
	return e.Msg
}

// IsUnauthorized reports whether the server rejected the session
func (e *Error) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// NewError creates a new error
func NewError(status int, msg string) *Error {
	return &Error{Status: status, Msg: msg}
}

// errorBody is the shape every failing endpoint answers with
type errorBody struct {
	Success *bool  `json:"success,omitempty"`
	Code    int    `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (b *errorBody) msg() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}
