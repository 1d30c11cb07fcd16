package errcode

import (
	"errors"
	"fmt"
)

// Kind classifies a client-side failure
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuth is a gated action attempted without a session; no request was sent
	KindAuth
	// KindAPI is a network or server failure
	KindAPI
	// KindValidation is input rejected before any request
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindAPI:
		return "api"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// GenericMessage is shown when the server gave no message
const GenericMessage = "Something went wrong"

// Error represents a client error
type Error struct {
	Kind Kind   `json:"kind"`
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("errcode: %d, kind: %s, msg: %s: %v", e.Code, e.Kind, e.Msg, e.err)
	}
	return fmt.Sprintf("errcode: %d, kind: %s, msg: %s", e.Code, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches errors of the same code so wrapped copies still compare to the predefined ones
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates a new error with kind, code and message
func New(kind Kind, code int, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// Wrap attaches a cause to a copy of e
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{Kind: e.Kind, Code: e.Code, Msg: e.Msg, err: err}
}

// WithMsg returns a copy of e carrying msg
func (e *Error) WithMsg(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Msg: msg, err: e.err}
}

// messenger is implemented by errors that carry a user-facing message, like sdk.Error
type messenger interface {
	UserMessage() string
}

// KindOf classifies err. Errors outside the taxonomy count as api failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindAPI
}

// UserMessage returns the text a view shows for err
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var m messenger
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
		return GenericMessage
	}
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return GenericMessage
}

// Auth errors (1xxx)
var (
	ErrLoginRequired = New(KindAuth, 1001, "Please login to continue")
	ErrTokenMissing  = New(KindAuth, 1002, "token missing")
	ErrTokenInvalid  = New(KindAuth, 1003, "token invalid")
)

// Validation errors (2xxx)
var (
	ErrEmptyMessage      = New(KindValidation, 2001, "message is empty")
	ErrBoothRequired     = New(KindValidation, 2002, "Please select a booth, date and time")
	ErrDateTooEarly      = New(KindValidation, 2003, "meeting date must be tomorrow or later")
	ErrTimeOutOfWindow   = New(KindValidation, 2004, "meeting time is outside booth hours")
	ErrFileTooLarge      = New(KindValidation, 2005, "File size should be less than 5MB")
	ErrNotImage          = New(KindValidation, 2006, "Please select an image file")
	ErrTooManyImages     = New(KindValidation, 2007, "You can upload maximum 4 images")
	ErrNoImages          = New(KindValidation, 2008, "Please add at least one image")
	ErrBioTooLong        = New(KindValidation, 2009, "Bio must be 500 characters or less")
	ErrInvalidParam      = New(KindValidation, 2010, "invalid parameter")
	ErrUnknownBooth      = New(KindValidation, 2011, "unknown booth")
	ErrInvalidTransition = New(KindValidation, 2012, "action not allowed in current state")
)

// API errors (3xxx)
var (
	ErrRequestFailed = New(KindAPI, 3001, GenericMessage)
)
