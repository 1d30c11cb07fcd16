package chat_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mbeoliero/xchange/sdk"
)

// MockAPI is a mock implementation of the chat API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) GetConversations(ctx context.Context) ([]*sdk.Conversation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sdk.Conversation), args.Error(1)
}

func (m *MockAPI) GetMessages(ctx context.Context, conversationId string) ([]*sdk.Message, error) {
	args := m.Called(ctx, conversationId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sdk.Message), args.Error(1)
}

func (m *MockAPI) StartConversation(ctx context.Context, postId string) (*sdk.Conversation, error) {
	args := m.Called(ctx, postId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sdk.Conversation), args.Error(1)
}
