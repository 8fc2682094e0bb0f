package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/waabox/constitutiongpt/internal/domain"
)

type lawyersResponse struct {
	Lawyers []lawyerJSON `json:"lawyers"`
}

type verifyLawyerRequest struct {
	LawyerID   string `json:"lawyer_id"`
	IsVerified bool   `json:"is_verified"`
}

// Lawyers lists verified lawyers, optionally restricted to a city.
func (c *Client) Lawyers(ctx context.Context, city string) ([]domain.Lawyer, error) {
	endpoint := "/lawyers"
	if city != "" {
		endpoint += "?city=" + url.QueryEscape(city)
	}
	var resp lawyersResponse
	if err := c.JSON(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return convert(resp.Lawyers, lawyerJSON.toDomain), nil
}

// AdminLawyers lists every lawyer regardless of verification. Admin only.
func (c *Client) AdminLawyers(ctx context.Context) ([]domain.Lawyer, error) {
	var resp lawyersResponse
	if err := c.JSON(ctx, http.MethodGet, "/admin/lawyers", nil, &resp); err != nil {
		return nil, err
	}
	return convert(resp.Lawyers, lawyerJSON.toDomain), nil
}

// VerifyLawyer sets a lawyer's verification flag. Admin only.
func (c *Client) VerifyLawyer(ctx context.Context, lawyerID string, verified bool) error {
	return c.JSON(ctx, http.MethodPost, "/admin/verify", verifyLawyerRequest{
		LawyerID:   lawyerID,
		IsVerified: verified,
	}, nil)
}
