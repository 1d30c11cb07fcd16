package chat

import "errors"

// Chat errors
var (
	ErrNoActiveConversation = errors.New("no active conversation")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotMounted           = errors.New("chat view not mounted")
)
