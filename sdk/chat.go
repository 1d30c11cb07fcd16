package sdk

import "context"

// GetConversations lists the conversations of the current user
func (c *Client) GetConversations(ctx context.Context) ([]*Conversation, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var result []*Conversation
	if err := c.get(ctx, "/chat/conversations", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetMessages lists the full history of a conversation, oldest first
func (c *Client) GetMessages(ctx context.Context, conversationId string) ([]*Message, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var result []*Message
	if err := c.get(ctx, "/chat/conversations/"+conversationId+"/messages", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// StartConversation opens, or reuses, the conversation with the owner of a post
func (c *Client) StartConversation(ctx context.Context, postId string) (*Conversation, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body := map[string]string{"postId": postId}
	var result Conversation
	if err := c.post(ctx, "/chat/conversations", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
