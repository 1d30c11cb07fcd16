package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeoliero/xchange/internal/realtime"
	"github.com/mbeoliero/xchange/internal/realtime/realtimetest"
	"github.com/mbeoliero/xchange/pkg/constant"
)

func connect(t *testing.T) (*realtime.Channel, *realtimetest.Conn) {
	t.Helper()
	dialer := realtimetest.NewDialer()
	ch := realtime.NewChannel(dialer)
	t.Cleanup(func() { _ = ch.Close() })
	require.NoError(t, ch.Connect(context.Background(), "u1", "tok"))
	return ch, dialer.Last()
}

func TestChannel_ConnectAnnouncesPresence(t *testing.T) {
	dialer := realtimetest.NewDialer()
	ch := realtime.NewChannel(dialer)
	defer ch.Close()

	require.NoError(t, ch.Connect(context.Background(), "u1", "tok"))
	conn := dialer.Last()
	assert.Equal(t, []string{constant.EventUserOnline}, conn.SentEvents())
	assert.JSONEq(t, `"u1"`, string(conn.SentOf(constant.EventUserOnline)[0]))
	assert.Equal(t, []string{"tok"}, dialer.Tokens())

	t.Run("same user is idempotent", func(t *testing.T) {
		require.NoError(t, ch.Connect(context.Background(), "u1", "tok"))
		assert.Equal(t, 1, dialer.Dials())
		assert.Len(t, conn.SentOf(constant.EventUserOnline), 1)
	})

	t.Run("other user is refused", func(t *testing.T) {
		err := ch.Connect(context.Background(), "u2", "tok2")
		assert.ErrorIs(t, err, realtime.ErrUserMismatch)
	})
}

func TestChannel_DialFailure(t *testing.T) {
	dialer := realtimetest.NewDialer()
	dialer.Err = errors.New("connection refused")
	ch := realtime.NewChannel(dialer)
	defer ch.Close()

	assert.Error(t, ch.Connect(context.Background(), "u1", "tok"))
	assert.False(t, ch.Connected())
	assert.ErrorIs(t, ch.Emit(constant.EventSendMessage, nil), realtime.ErrNotConnected)
}

func TestChannel_Rooms(t *testing.T) {
	ch, conn := connect(t)

	require.NoError(t, ch.JoinRoom("c1"))
	require.NoError(t, ch.JoinRoom("c2"))
	assert.Equal(t, []string{"c1", "c2"}, ch.Rooms())

	require.NoError(t, ch.LeaveRoom("c1"))
	assert.Equal(t, []string{"c2"}, ch.Rooms())

	assert.Equal(t, []string{
		constant.EventUserOnline,
		constant.EventJoinConversation,
		constant.EventJoinConversation,
		constant.EventLeaveConversation,
	}, conn.SentEvents())
	for _, f := range conn.Sent() {
		assert.NotEmpty(t, f.OperationId)
	}
}

func TestChannel_DeliversInOrder(t *testing.T) {
	ch, conn := connect(t)

	var got []string
	ch.On(constant.EventConversationUpdated, func(_ context.Context, data json.RawMessage) {
		id, err := realtime.DecodeString(data)
		assert.NoError(t, err)
		got = append(got, "first:"+id)
	})
	ch.On(constant.EventConversationUpdated, func(_ context.Context, data json.RawMessage) {
		id, _ := realtime.DecodeString(data)
		got = append(got, "second:"+id)
	})

	require.NoError(t, conn.Deliver(constant.EventConversationUpdated, "c1"))
	require.NoError(t, conn.Deliver(constant.EventConversationUpdated, "c2"))

	assert.Equal(t, []string{"first:c1", "second:c1", "first:c2", "second:c2"}, got)
}

func TestChannel_DisposerDetaches(t *testing.T) {
	ch, conn := connect(t)

	calls := 0
	dispose := ch.On(constant.EventNewMessage, func(context.Context, json.RawMessage) { calls++ })
	assert.Equal(t, 1, ch.ListenerCount(constant.EventNewMessage))

	require.NoError(t, conn.Deliver(constant.EventNewMessage, map[string]string{"_id": "m1"}))
	dispose()
	dispose()
	require.NoError(t, conn.Deliver(constant.EventNewMessage, map[string]string{"_id": "m2"}))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, ch.ListenerCount(constant.EventNewMessage))
}

func TestChannel_HandlerDisposedMidDispatch(t *testing.T) {
	ch, conn := connect(t)

	var second realtime.Disposer
	secondCalls := 0
	ch.On(constant.EventNewMessage, func(context.Context, json.RawMessage) { second() })
	second = ch.On(constant.EventNewMessage, func(context.Context, json.RawMessage) { secondCalls++ })

	require.NoError(t, conn.Deliver(constant.EventNewMessage, map[string]string{"_id": "m1"}))
	assert.Equal(t, 0, secondCalls)
}

func TestChannel_SurvivesBadFramesAndPanics(t *testing.T) {
	ch, conn := connect(t)

	calls := 0
	ch.On("boom", func(context.Context, json.RawMessage) { panic("handler bug") })
	ch.On(constant.EventUserStatusUpdate, func(context.Context, json.RawMessage) { calls++ })

	require.NoError(t, conn.DeliverRaw([]byte("{not json")))
	require.NoError(t, conn.Deliver("boom", nil))
	require.NoError(t, conn.Deliver(constant.EventUserStatusUpdate, realtime.UserStatusPayload{UserId: "u2", IsOnline: true}))

	assert.Equal(t, 1, calls)
	assert.True(t, ch.Connected())
}

func TestChannel_CloseDetachesEverything(t *testing.T) {
	ch, conn := connect(t)

	calls := 0
	ch.On(constant.EventNewMessage, func(context.Context, json.RawMessage) { calls++ })
	require.NoError(t, ch.JoinRoom("c1"))

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())

	assert.True(t, conn.IsClosed())
	assert.Equal(t, 0, ch.ListenerCount(constant.EventNewMessage))
	assert.Empty(t, ch.Rooms())
	assert.ErrorIs(t, ch.Emit(constant.EventSendMessage, nil), realtime.ErrChannelClosed)
	assert.ErrorIs(t, ch.Connect(context.Background(), "u1", "tok"), realtime.ErrChannelClosed)

	// registering after close never fires and the disposer is still safe
	dispose := ch.On(constant.EventNewMessage, func(context.Context, json.RawMessage) { calls++ })
	dispose()
	assert.Equal(t, 0, calls)
	<-ch.Done()
}

func TestChannel_ServerDropClearsConnection(t *testing.T) {
	ch, conn := connect(t)
	require.NoError(t, ch.JoinRoom("c1"))

	require.NoError(t, conn.Close())
	<-ch.Done()

	assert.False(t, ch.Connected())
	assert.Empty(t, ch.Rooms())
	assert.ErrorIs(t, ch.Emit(constant.EventSendMessage, nil), realtime.ErrNotConnected)
}

func TestScope(t *testing.T) {
	ch, conn := connect(t)

	scope := realtime.NewScope()
	calls := 0
	scope.On(ch, constant.EventNewMessage, func(context.Context, json.RawMessage) { calls++ })
	scope.On(ch, constant.EventConversationUpdated, func(context.Context, json.RawMessage) { calls++ })
	assert.Equal(t, 2, scope.Len())

	scope.Dispose()
	assert.Equal(t, 0, scope.Len())
	assert.Equal(t, 0, ch.ListenerCount(constant.EventNewMessage))
	assert.Equal(t, 0, ch.ListenerCount(constant.EventConversationUpdated))

	require.NoError(t, conn.Deliver(constant.EventNewMessage, nil))
	assert.Equal(t, 0, calls)

	// adding to a disposed scope releases immediately
	scope.On(ch, constant.EventNewMessage, func(context.Context, json.RawMessage) { calls++ })
	assert.Equal(t, 0, ch.ListenerCount(constant.EventNewMessage))
	scope.Dispose()
}
