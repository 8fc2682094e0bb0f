package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/waabox/constitutiongpt/internal/domain"
)

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message"`
}

type messagesResponse struct {
	Messages []directMessageJSON `json:"messages"`
}

type inboxResponse struct {
	Conversations []conversationJSON `json:"conversations"`
}

// SendDirectMessage sends text to another user.
func (c *Client) SendDirectMessage(ctx context.Context, receiverID, text string) error {
	return c.JSON(ctx, http.MethodPost, "/messages", sendMessageRequest{
		ReceiverID: receiverID,
		Message:    text,
	}, nil)
}

// Messages returns the conversation with otherID, oldest first. The server
// marks the returned messages as read.
func (c *Client) Messages(ctx context.Context, otherID string) ([]domain.DirectMessage, error) {
	var resp messagesResponse
	if err := c.JSON(ctx, http.MethodGet, "/messages/"+url.PathEscape(otherID), nil, &resp); err != nil {
		return nil, err
	}
	return convert(resp.Messages, directMessageJSON.toDomain), nil
}

// Inbox returns one summary per peer, most recent first.
func (c *Client) Inbox(ctx context.Context) ([]domain.Conversation, error) {
	var resp inboxResponse
	if err := c.JSON(ctx, http.MethodGet, "/chat-inbox", nil, &resp); err != nil {
		return nil, err
	}
	return convert(resp.Conversations, conversationJSON.toDomain), nil
}
