package realtime

import "errors"

// Channel errors
var (
	ErrConnClosed       = errors.New("connection closed")
	ErrWriteChannelFull = errors.New("write channel full")
	ErrNotConnected     = errors.New("realtime channel not connected")
	ErrChannelClosed    = errors.New("realtime channel closed")
	ErrUserMismatch     = errors.New("realtime channel bound to another user")
	ErrInvalidFrame     = errors.New("invalid frame")
	ErrEmptyEvent       = errors.New("event name is empty")
)
