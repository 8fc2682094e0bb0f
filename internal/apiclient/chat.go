package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/waabox/constitutiongpt/internal/domain"
)

type askRequest struct {
	Message string `json:"message"`
}

type askResponse struct {
	Reply string `json:"reply"`
}

type historyResponse struct {
	History []chatJSON `json:"history"`
}

// Ask sends a question to the assistant and returns its reply.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var resp askResponse
	if err := c.JSON(ctx, http.MethodPost, "/chat", askRequest{Message: question}, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

// History returns the signed-in user's past questions, newest first.
func (c *Client) History(ctx context.Context) ([]domain.ChatEntry, error) {
	var resp historyResponse
	if err := c.JSON(ctx, http.MethodGet, "/history", nil, &resp); err != nil {
		return nil, err
	}
	return convert(resp.History, chatJSON.toDomain), nil
}

// Chat returns one history entry.
func (c *Client) Chat(ctx context.Context, id string) (domain.ChatEntry, error) {
	var resp chatJSON
	if err := c.JSON(ctx, http.MethodGet, "/chat/"+url.PathEscape(id), nil, &resp); err != nil {
		return domain.ChatEntry{}, err
	}
	return resp.toDomain(), nil
}

// DeleteChat removes one history entry.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	return c.JSON(ctx, http.MethodDelete, "/chat/"+url.PathEscape(id), nil, nil)
}
