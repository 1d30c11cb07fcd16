package chat

import (
	"sync"

	"github.com/mbeoliero/xchange/sdk"
)

// ActiveConversation holds the open conversation, its history and the draft being typed.
// Histories of closed conversations stay cached so reopening shows them until the refetch lands.
type ActiveConversation struct {
	mu       sync.RWMutex
	conv     *sdk.Conversation
	messages []*sdk.Message
	// live holds messages appended since the last installed fetch
	live     []*sdk.Message
	history  map[string][]*sdk.Message
	input    string
}

func NewActiveConversation() *ActiveConversation {
	return &ActiveConversation{history: make(map[string][]*sdk.Message)}
}

// Set makes conv the active conversation
func (a *ActiveConversation) Set(conv *sdk.Conversation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stashLocked()
	a.conv = conv.Clone()
	a.messages = append([]*sdk.Message(nil), a.history[conv.Id]...)
	a.live = nil
}

// Clear closes the active conversation and returns its id, "" if none was open
func (a *ActiveConversation) Clear() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conv == nil {
		return ""
	}
	id := a.conv.Id
	a.stashLocked()
	a.conv = nil
	a.messages = nil
	a.live = nil
	return id
}

func (a *ActiveConversation) stashLocked() {
	if a.conv != nil {
		a.history[a.conv.Id] = a.messages
	}
}

// Id returns the active conversation id, "" if none
func (a *ActiveConversation) Id() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.conv == nil {
		return ""
	}
	return a.conv.Id
}

// Conversation returns a copy of the active conversation, nil if none
func (a *ActiveConversation) Conversation() *sdk.Conversation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.conv.Clone()
}

// Messages returns the history in display order
func (a *ActiveConversation) Messages() []*sdk.Message {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*sdk.Message(nil), a.messages...)
}

// Append adds an inbound message to the end of the history when it belongs to the active conversation.
// Nothing is deduplicated: a redelivered message shows twice.
func (a *ActiveConversation) Append(msg *sdk.Message) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conv == nil || msg == nil || string(msg.ConversationId) != a.conv.Id {
		return false
	}
	a.messages = append(a.messages, msg)
	a.live = append(a.live, msg)
	return true
}

// ReplaceHistory installs a fetched history if conversationId is still active.
// Messages appended while the fetch was in flight are kept after it unless the fetch already has their id.
func (a *ActiveConversation) ReplaceHistory(conversationId string, msgs []*sdk.Message) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conv == nil || a.conv.Id != conversationId {
		return false
	}
	fetched := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if m != nil && m.Id != "" {
			fetched[m.Id] = struct{}{}
		}
	}
	merged := append([]*sdk.Message(nil), msgs...)
	for _, m := range a.live {
		if _, ok := fetched[m.Id]; ok && m.Id != "" {
			continue
		}
		merged = append(merged, m)
	}
	a.messages = merged
	a.live = nil
	return true
}

// SetPresence updates the active copy of userId's participant entry
func (a *ActiveConversation) SetPresence(userId string, online bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conv == nil {
		return false
	}
	changed := false
	for _, p := range a.conv.Participants {
		if p != nil && p.Id == userId {
			p.IsOnline = online
			changed = true
		}
	}
	return changed
}

// SetInput stores the draft text
func (a *ActiveConversation) SetInput(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.input = text
}

// Input returns the draft text
func (a *ActiveConversation) Input() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.input
}

// takeInput clears the draft if it still equals text
func (a *ActiveConversation) takeInput(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.input == text {
		a.input = ""
	}
}
