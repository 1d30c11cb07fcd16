package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbeoliero/xchange/internal/chat"
	"github.com/mbeoliero/xchange/sdk"
)

func TestUnreadBadge(t *testing.T) {
	assert.Equal(t, "", chat.UnreadBadge(0))
	assert.Equal(t, "1", chat.UnreadBadge(1))
	assert.Equal(t, "9", chat.UnreadBadge(9))
	assert.Equal(t, "9+", chat.UnreadBadge(10))
	assert.Equal(t, "9+", chat.UnreadBadge(250))
}

func TestBuildPreview(t *testing.T) {
	t.Run("populated", func(t *testing.T) {
		c := conv("A", "u2", 12)
		c.Participants[1].IsOnline = true
		c.LastMessage = &sdk.LastMessage{Content: "deal"}
		p := chat.BuildPreview(c, me)
		assert.Equal(t, "Peer u2", p.Title)
		assert.Equal(t, "Item A", p.Subject)
		assert.Equal(t, "deal", p.LastMessage)
		assert.True(t, p.Online)
		assert.Equal(t, "9+", p.Badge)
	})

	t.Run("fallbacks", func(t *testing.T) {
		c := &sdk.Conversation{Id: "B", Participants: []*sdk.User{{Id: me}, {Id: "u3"}}}
		p := chat.BuildPreview(c, me)
		assert.Equal(t, "Unknown User", p.Title)
		assert.Equal(t, "Item discussion", p.Subject)
		assert.Equal(t, "Start a conversation", p.LastMessage)
		assert.False(t, p.Online)
		assert.Equal(t, "", p.Badge)
	})
}

func TestConversationList_Upsert(t *testing.T) {
	l := chat.NewConversationList()
	l.Replace([]*sdk.Conversation{conv("A", "u2", 0)})
	l.Upsert(conv("B", "u3", 0))
	l.Upsert(conv("A", "u2", 5))

	convs := l.Conversations()
	assert.Equal(t, "B", convs[0].Id)
	assert.Equal(t, "A", convs[1].Id)
	assert.Equal(t, 0, l.Unread("A"), "upsert does not reseed a tracked count")
	assert.Equal(t, 0, l.TotalUnread())
}
