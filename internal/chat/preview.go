package chat

import (
	"strconv"

	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/sdk"
)

// Preview is one sidebar row
type Preview struct {
	ConversationId string
	Title          string
	Subject        string
	LastMessage    string
	Online         bool
	Unread         int
	Badge          string
	Active         bool
}

// UnreadBadge renders an unread count: nothing for zero, "9+" above nine
func UnreadBadge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > constant.UnreadBadgeCap:
		return strconv.Itoa(constant.UnreadBadgeCap) + "+"
	default:
		return strconv.Itoa(n)
	}
}

// DisplayName is the user's name or the unknown-user fallback
func DisplayName(u *sdk.User) string {
	if u == nil || u.Name == "" {
		return constant.UnknownUserName
	}
	return u.Name
}

// BuildPreview renders conv as seen by userId
func BuildPreview(conv *sdk.Conversation, userId string) Preview {
	other := conv.OtherParticipant(userId)
	p := Preview{
		ConversationId: conv.Id,
		Title:          DisplayName(other),
		Subject:        constant.DefaultSubject,
		LastMessage:    constant.EmptyConversation,
		Online:         other != nil && other.IsOnline,
		Unread:         conv.UnreadCount,
		Badge:          UnreadBadge(conv.UnreadCount),
	}
	if conv.Post != nil && conv.Post.Title != "" {
		p.Subject = conv.Post.Title
	}
	if conv.LastMessage != nil && conv.LastMessage.Content != "" {
		p.LastMessage = conv.LastMessage.Content
	}
	return p
}

// Previews renders the sidebar of the view for the current user
func (v *View) Previews() []Preview {
	userId := v.userId()
	activeId := v.active.Id()
	convs := v.list.Conversations()
	out := make([]Preview, 0, len(convs))
	for _, c := range convs {
		p := BuildPreview(c, userId)
		p.Active = c.Id == activeId
		out = append(out, p)
	}
	return out
}

// Header describes the open conversation: the other participant and whether they are online
func (v *View) Header() (title string, online bool, ok bool) {
	conv := v.active.Conversation()
	if conv == nil {
		return "", false, false
	}
	other := conv.OtherParticipant(v.userId())
	return DisplayName(other), other != nil && other.IsOnline, true
}
