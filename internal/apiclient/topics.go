package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/waabox/constitutiongpt/internal/domain"
)

type topicsResponse struct {
	Topics []topicJSON `json:"topics"`
}

// Topics returns the whole topic catalogue.
func (c *Client) Topics(ctx context.Context) ([]domain.Topic, error) {
	var resp topicsResponse
	if err := c.JSON(ctx, http.MethodGet, "/topics", nil, &resp); err != nil {
		return nil, err
	}
	return convert(resp.Topics, topicJSON.toDomain), nil
}

// Topic returns a single topic.
func (c *Client) Topic(ctx context.Context, id string) (domain.Topic, error) {
	var resp topicJSON
	if err := c.JSON(ctx, http.MethodGet, "/topics/"+url.PathEscape(id), nil, &resp); err != nil {
		return domain.Topic{}, err
	}
	return resp.toDomain(), nil
}

// SearchTopics matches query against topic titles, descriptions and content.
func (c *Client) SearchTopics(ctx context.Context, query string) ([]domain.Topic, error) {
	var resp topicsResponse
	if err := c.JSON(ctx, http.MethodGet, "/topics/search/"+url.PathEscape(query), nil, &resp); err != nil {
		return nil, err
	}
	return convert(resp.Topics, topicJSON.toDomain), nil
}
