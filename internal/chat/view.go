package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/xchange/internal/realtime"
	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/pkg/errcode"
	"github.com/mbeoliero/xchange/sdk"
)

// Channel is what the chat view needs from the realtime handle
type Channel interface {
	realtime.Subscriber
	Emit(event string, payload interface{}) error
	JoinRoom(conversationId string) error
	LeaveRoom(conversationId string) error
}

// API is the slice of the backend the chat view calls
type API interface {
	GetConversations(ctx context.Context) ([]*sdk.Conversation, error)
	GetMessages(ctx context.Context, conversationId string) ([]*sdk.Message, error)
	StartConversation(ctx context.Context, postId string) (*sdk.Conversation, error)
}

// UpdateKind says which part of the view changed
type UpdateKind int

const (
	UpdateConversations UpdateKind = iota + 1
	UpdateMessages
	UpdateUnread
	UpdatePresence
)

// Update is passed to the observer after state changes
type Update struct {
	Kind           UpdateKind
	ConversationId string
	Message        *sdk.Message
}

// View binds the conversation list and the active conversation to the realtime channel and the API.
// Event handlers are registered once per mount and read the active conversation when they fire,
// so changing the active conversation never re-registers them.
type View struct {
	api    API
	ch     Channel
	userId func() string

	list   *ConversationList
	active *ActiveConversation

	mu       sync.Mutex
	mounted  bool
	scope    *realtime.Scope
	ctx      context.Context
	cancel   context.CancelFunc
	observer func(Update)

	// gen is bumped on unmount and on every open; fetches started under an older gen are dropped
	gen      atomic.Uint64
	inflight sync.WaitGroup
}

// ViewOption configures a View
type ViewOption func(*View)

// WithObserver installs a callback invoked after each state change
func WithObserver(fn func(Update)) ViewOption {
	return func(v *View) {
		v.observer = fn
	}
}

// NewView creates an unmounted chat view for the user returned by userId
func NewView(api API, ch Channel, userId func() string, opts ...ViewOption) *View {
	v := &View{
		api:    api,
		ch:     ch,
		userId: userId,
		list:   NewConversationList(),
		active: NewActiveConversation(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// List exposes the conversation list store
func (v *View) List() *ConversationList { return v.list }

// Active exposes the active conversation store
func (v *View) Active() *ActiveConversation { return v.active }

// Mount registers the channel listeners and loads the conversation list.
// A failed load is returned but the view stays mounted.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return nil
	}
	if v.userId() == "" {
		v.mu.Unlock()
		return errcode.ErrLoginRequired
	}
	v.mounted = true
	v.ctx, v.cancel = context.WithCancel(context.Background())
	v.scope = realtime.NewScope()
	v.scope.On(v.ch, constant.EventNewMessage, v.onNewMessage)
	v.scope.On(v.ch, constant.EventConversationUpdated, v.onConversationUpdated)
	v.scope.On(v.ch, constant.EventUserStatusUpdate, v.onUserStatusUpdate)
	v.mu.Unlock()

	return v.LoadConversations(ctx)
}

// Unmount detaches every listener, leaves the open room and drops pending fetch results
func (v *View) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	scope, cancel := v.scope, v.cancel
	v.scope, v.cancel = nil, nil
	v.gen.Add(1)
	v.mu.Unlock()

	scope.Dispose()
	cancel()
	if id := v.active.Clear(); id != "" {
		if err := v.ch.LeaveRoom(id); err != nil {
			log.Debug("chat leave room on unmount: conversation_id=%s, error=%v", id, err)
		}
	}
	v.inflight.Wait()
}

// Mounted reports whether the view is mounted
func (v *View) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// Wait blocks until background refreshes started by channel events finish
func (v *View) Wait() {
	v.inflight.Wait()
}

func (v *View) notify(u Update) {
	if v.observer != nil {
		v.observer(u)
	}
}

// LoadConversations replaces the list with the server's. On failure the previous list is kept.
// Results arriving after Unmount are dropped.
func (v *View) LoadConversations(ctx context.Context) error {
	convs, err := v.api.GetConversations(ctx)
	if err != nil {
		log.CtxWarn(ctx, "chat load conversations failed: error=%v", err)
		return err
	}
	if !v.Mounted() {
		log.CtxDebug(ctx, "chat drop conversations loaded after unmount")
		return nil
	}
	v.list.Replace(convs)
	// the open conversation is being read, whatever the server counted
	if id := v.active.Id(); id != "" {
		v.list.MarkRead(id)
	}
	v.notify(Update{Kind: UpdateConversations})
	return nil
}

// Open makes conv the active conversation: joins its room, zeroes its unread count and fetches its history
func (v *View) Open(ctx context.Context, conv *sdk.Conversation) error {
	if conv == nil || conv.Id == "" {
		return ErrConversationNotFound
	}
	if !v.Mounted() {
		return ErrNotMounted
	}

	prev := v.active.Id()
	if prev != "" && prev != conv.Id {
		if err := v.ch.LeaveRoom(prev); err != nil {
			log.CtxDebug(ctx, "chat leave room: conversation_id=%s, error=%v", prev, err)
		}
	}

	gen := v.gen.Add(1)
	v.active.Set(conv)
	v.list.MarkRead(conv.Id)
	if err := v.ch.JoinRoom(conv.Id); err != nil {
		log.CtxWarn(ctx, "chat join room failed: conversation_id=%s, error=%v", conv.Id, err)
	}
	v.notify(Update{Kind: UpdateUnread, ConversationId: conv.Id})

	return v.fetchMessages(ctx, conv.Id, gen)
}

// OpenById opens a conversation already in the list
func (v *View) OpenById(ctx context.Context, conversationId string) error {
	conv, ok := v.list.Get(conversationId)
	if !ok {
		return ErrConversationNotFound
	}
	return v.Open(ctx, conv)
}

// StartFromPost opens the conversation about a post, creating it on the server if needed
func (v *View) StartFromPost(ctx context.Context, postId string) (*sdk.Conversation, error) {
	if v.userId() == "" {
		return nil, errcode.ErrLoginRequired
	}
	conv, err := v.api.StartConversation(ctx, postId)
	if err != nil {
		return nil, err
	}
	v.list.Upsert(conv)
	v.notify(Update{Kind: UpdateConversations, ConversationId: conv.Id})
	return conv, v.Open(ctx, conv)
}

// Close leaves the active conversation's room. Its history stays cached.
func (v *View) Close() {
	v.gen.Add(1)
	if id := v.active.Clear(); id != "" {
		if err := v.ch.LeaveRoom(id); err != nil {
			log.Debug("chat leave room: conversation_id=%s, error=%v", id, err)
		}
	}
}

// fetchMessages replaces the history of conversationId and marks it read,
// unless the view moved on since gen was taken
func (v *View) fetchMessages(ctx context.Context, conversationId string, gen uint64) error {
	msgs, err := v.api.GetMessages(ctx, conversationId)
	if err != nil {
		log.CtxWarn(ctx, "chat fetch messages failed: conversation_id=%s, error=%v", conversationId, err)
		return err
	}
	if v.gen.Load() != gen {
		log.CtxDebug(ctx, "chat drop stale history: conversation_id=%s", conversationId)
		return nil
	}
	if !v.active.ReplaceHistory(conversationId, msgs) {
		return nil
	}
	v.list.MarkRead(conversationId)
	v.notify(Update{Kind: UpdateMessages, ConversationId: conversationId})
	return nil
}

// SetInput stores the draft of the active conversation
func (v *View) SetInput(text string) {
	v.active.SetInput(text)
}

// Send publishes the draft. Blank drafts are rejected without publishing.
// The message is not added to the history here; it appears when the server echoes it back.
func (v *View) Send() error {
	text := v.active.Input()
	content := strings.TrimSpace(text)
	if content == "" {
		return errcode.ErrEmptyMessage
	}
	userId := v.userId()
	if userId == "" {
		return errcode.ErrLoginRequired
	}
	conversationId := v.active.Id()
	if conversationId == "" {
		return ErrNoActiveConversation
	}

	err := v.ch.Emit(constant.EventSendMessage, realtime.SendMessagePayload{
		ConversationId: conversationId,
		SenderId:       userId,
		Content:        content,
	})
	// the draft is cleared even if the publish fails; delivery is never confirmed anyway
	v.active.takeInput(text)
	if err != nil {
		log.Warn("chat send failed: conversation_id=%s, error=%v", conversationId, err)
		return errcode.ErrRequestFailed.Wrap(err)
	}
	return nil
}

// SendText sets the draft and sends it
func (v *View) SendText(text string) error {
	v.SetInput(text)
	return v.Send()
}

// ApplyIncomingMessage appends a message for the active conversation and keeps it read,
// or adds one unread message to any other conversation
func (v *View) ApplyIncomingMessage(msg *sdk.Message) {
	if msg == nil {
		return
	}
	conversationId := string(msg.ConversationId)
	if v.active.Append(msg) {
		v.list.MarkRead(conversationId)
		v.notify(Update{Kind: UpdateMessages, ConversationId: conversationId, Message: msg})
		return
	}
	v.list.IncrementUnread(conversationId)
	v.notify(Update{Kind: UpdateUnread, ConversationId: conversationId, Message: msg})
}

// ApplyPresenceUpdate writes the online flag to the list and to the active conversation's copy
func (v *View) ApplyPresenceUpdate(userId string, online bool) {
	n := v.list.SetPresence(userId, online)
	if v.active.SetPresence(userId, online) || n > 0 {
		v.notify(Update{Kind: UpdatePresence})
	}
}

func (v *View) onNewMessage(ctx context.Context, data json.RawMessage) {
	var msg sdk.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.CtxWarn(ctx, "chat decode newMessage failed: error=%v", err)
		return
	}
	v.ApplyIncomingMessage(&msg)
}

func (v *View) onConversationUpdated(ctx context.Context, data json.RawMessage) {
	conversationId, err := realtime.DecodeString(data)
	if err != nil {
		log.CtxWarn(ctx, "chat decode conversationUpdated failed: error=%v", err)
		return
	}
	// refetch off the read loop so later events are not held up by HTTP
	gen := v.gen.Load()
	fetchHistory := conversationId != "" && conversationId == v.active.Id()
	v.spawn(func(ctx context.Context) {
		if fetchHistory {
			_ = v.fetchMessages(ctx, conversationId, gen)
		}
		_ = v.LoadConversations(ctx)
	})
}

func (v *View) onUserStatusUpdate(ctx context.Context, data json.RawMessage) {
	var p realtime.UserStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.CtxWarn(ctx, "chat decode userStatusUpdate failed: error=%v", err)
		return
	}
	v.ApplyPresenceUpdate(p.UserId, p.IsOnline)
}

// spawn runs fn in the background under the mount's context
func (v *View) spawn(fn func(ctx context.Context)) {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	ctx := v.ctx
	v.inflight.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.inflight.Done()
		fn(ctx)
	}()
}
