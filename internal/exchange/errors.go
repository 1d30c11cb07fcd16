package exchange

import "errors"

var (
	ErrRequestNotFound = errors.New("exchange request not found")
	ErrNotSeller       = errors.New("only the seller can answer this request")
	ErrNoSelection     = errors.New("booth selection is not open")
)
