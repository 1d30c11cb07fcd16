package chat

import (
	"sync"

	"github.com/mbeoliero/xchange/sdk"
)

// ConversationList is the sidebar state: conversations in server order plus client-owned unread counts.
// Unread counts survive reloads of the list; the server's unreadCount only seeds conversations seen for the first time.
type ConversationList struct {
	mu     sync.RWMutex
	items  []*sdk.Conversation
	unread map[string]int
}

func NewConversationList() *ConversationList {
	return &ConversationList{unread: make(map[string]int)}
}

// Replace swaps in a freshly fetched list
func (l *ConversationList) Replace(convs []*sdk.Conversation) {
	items := make([]*sdk.Conversation, 0, len(convs))
	for _, c := range convs {
		if c == nil {
			continue
		}
		items = append(items, c.Clone())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
	for _, c := range items {
		if _, ok := l.unread[c.Id]; !ok {
			l.unread[c.Id] = c.UnreadCount
		}
	}
}

// Upsert puts conv at the top when it is new, or refreshes it in place
func (l *ConversationList) Upsert(conv *sdk.Conversation) {
	if conv == nil {
		return
	}
	cp := conv.Clone()

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.items {
		if c.Id == cp.Id {
			l.items[i] = cp
			return
		}
	}
	l.items = append([]*sdk.Conversation{cp}, l.items...)
	if _, ok := l.unread[cp.Id]; !ok {
		l.unread[cp.Id] = 0
	}
}

// Conversations returns copies of the list with the client unread counts applied
func (l *ConversationList) Conversations() []*sdk.Conversation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*sdk.Conversation, 0, len(l.items))
	for _, c := range l.items {
		cp := c.Clone()
		cp.UnreadCount = l.unread[c.Id]
		out = append(out, cp)
	}
	return out
}

// Get returns a copy of one conversation
func (l *ConversationList) Get(conversationId string) (*sdk.Conversation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, c := range l.items {
		if c.Id == conversationId {
			cp := c.Clone()
			cp.UnreadCount = l.unread[c.Id]
			return cp, true
		}
	}
	return nil, false
}

// Len returns the number of conversations
func (l *ConversationList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Unread returns the unread count of a conversation
func (l *ConversationList) Unread(conversationId string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.unread[conversationId]
}

// TotalUnread sums the unread counts of all tracked conversations
func (l *ConversationList) TotalUnread() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0
	for _, n := range l.unread {
		total += n
	}
	return total
}

// IncrementUnread adds exactly one unread message and returns the new count.
// Messages for conversations not in the list yet are counted too.
func (l *ConversationList) IncrementUnread(conversationId string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unread[conversationId]++
	return l.unread[conversationId]
}

// MarkRead resets a conversation's unread count
func (l *ConversationList) MarkRead(conversationId string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unread[conversationId] = 0
}

// SetPresence updates every participant entry of userId and returns how many entries changed
func (l *ConversationList) SetPresence(userId string, online bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := 0
	for _, c := range l.items {
		for _, p := range c.Participants {
			if p != nil && p.Id == userId {
				p.IsOnline = online
				changed++
			}
		}
	}
	return changed
}
