package realtime

import (
	"encoding/json"
	"fmt"
)

// Frame is one event on the wire, in either direction
type Frame struct {
	Event       string          `json:"event"`
	OperationId string          `json:"operation_id,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is published with sendMessage
type SendMessagePayload struct {
	ConversationId string `json:"conversationId"`
	SenderId       string `json:"senderId"`
	Content        string `json:"content"`
}

// UserStatusPayload arrives with userStatusUpdate
type UserStatusPayload struct {
	UserId   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// EncodeFrame builds the wire form of an event
func EncodeFrame(event, operationId string, payload interface{}) ([]byte, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}
	f := Frame{Event: event, OperationId: operationId}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
		}
		f.Data = data
	}
	return json.Marshal(f)
}

// DecodeFrame parses an inbound frame
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if f.Event == "" {
		return nil, ErrInvalidFrame
	}
	return &f, nil
}

// DecodeString reads a payload that is a bare string, such as a conversation id
func DecodeString(data json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return s, nil
}
