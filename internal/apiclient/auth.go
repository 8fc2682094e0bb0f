package apiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/waabox/constitutiongpt/internal/domain"
	"github.com/waabox/constitutiongpt/internal/redact"
	"github.com/waabox/constitutiongpt/internal/session"
)

// RegisterInput is a new account. Lawyers may attach a proof document, in
// which case the form is sent as multipart.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Role      domain.Role
	Phone     string
	Address   string
	City      string
	ProofName string
	Proof     []byte
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         userJSON `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
}

type registerResponse struct {
	UserID flexID `json:"user_id"`
}

type verifyResponse struct {
	Valid bool     `json:"valid"`
	User  userJSON `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login exchanges a username and password for a credential pair and stores it.
// A rejected password is an ordinary *APIError and never triggers a refresh.
func (c *Client) Login(ctx context.Context, username, password string) (domain.User, error) {
	body, err := c.Request(ctx, "/login", Options{
		Method:    http.MethodPost,
		Body:      loginRequest{Username: username, Password: password},
		Anonymous: true,
	})
	if err != nil {
		return domain.User{}, err
	}
	var resp loginResponse
	if err := decode(body, &resp); err != nil {
		return domain.User{}, err
	}
	pair := session.Pair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if err := c.session.Set(ctx, pair); err != nil {
		if errors.Is(err, session.ErrIncompletePair) {
			return domain.User{}, fmt.Errorf("login response: %w", err)
		}
		c.log.Warn("session kept in memory only", slog.String("err", err.Error()))
	}
	c.log.Info("signed in", slog.String("user", redact.Login(username)))
	return resp.User.toDomain(), nil
}

// Register creates an account and returns its id. It does not sign in.
func (c *Client) Register(ctx context.Context, in RegisterInput) (string, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	var payload any = registerRequest{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Role:     string(role),
		Phone:    in.Phone,
		Address:  in.Address,
		City:     in.City,
	}
	if len(in.Proof) > 0 {
		name := in.ProofName
		if name == "" {
			name = "proof"
		}
		payload = NewMultipart().
			Field("username", in.Username).
			Field("email", in.Email).
			Field("password", in.Password).
			Field("role", string(role)).
			Field("phone", in.Phone).
			Field("address", in.Address).
			Field("city", in.City).
			File("lawyer_proof_file", name, in.Proof)
	}
	body, err := c.Request(ctx, "/register", Options{Method: http.MethodPost, Body: payload, Anonymous: true})
	if err != nil {
		return "", err
	}
	var resp registerResponse
	if err := decode(body, &resp); err != nil {
		return "", err
	}
	return string(resp.UserID), nil
}

// VerifyToken asks the API who the current credential belongs to.
func (c *Client) VerifyToken(ctx context.Context) (domain.User, error) {
	var resp verifyResponse
	if err := c.JSON(ctx, http.MethodGet, "/verify-token", nil, &resp); err != nil {
		return domain.User{}, err
	}
	if !resp.Valid {
		return domain.User{}, fmt.Errorf("verifying token: %w", domain.ErrUnauthorized)
	}
	u := resp.User.toDomain()
	if u.Username == "" {
		// Bare {"valid": true}: fall back to the token's own payload.
		claims, err := c.session.Claims()
		if err != nil {
			return domain.User{}, fmt.Errorf("verifying token: %w", err)
		}
		return claims.User(), nil
	}
	return u, nil
}

// ChangePassword changes the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.JSON(ctx, http.MethodPost, "/change-password", changePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	}, nil)
}

// Logout forgets the stored credentials. It does not broadcast expiry.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.session.Clear(ctx); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	c.log.Info("signed out")
	return nil
}
