package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/waabox/constitutiongpt/internal/logctx"
	"github.com/waabox/constitutiongpt/internal/redact"
	"github.com/waabox/constitutiongpt/internal/session"
)

const refreshEndpoint = "/refresh"

type refreshResult struct {
	token string
	err   error
	// order is the 1-based position in which the waiter was released.
	order int
}

// flight is one outstanding refresh exchange. Each waiter owns a buffered
// channel and waiters are released in the order they attached.
type flight struct {
	waiters []chan refreshResult
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges the refresh credential for a new pair and returns the new
// access credential. If an exchange is already running the caller joins it.
// A missing or rejected refresh credential purges the session, broadcasts
// expiry and returns a *SessionExpiredError.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.renew(ctx, c.session.AccessToken())
}

// renew returns an access credential newer than sent. When a refresh has
// already replaced sent, the current credential is returned without a new
// exchange. When the session was purged in the meantime it fails without
// broadcasting again. A 401 with no credentials stored at all still starts an
// exchange, which expires the session with "no refresh token available": a
// missing refresh credential is a terminal failure like a rejected one.
func (c *Client) renew(ctx context.Context, sent string) (string, error) {
	ch := make(chan refreshResult, 1)

	c.mu.Lock()
	if c.flight == nil {
		current := c.session.AccessToken()
		switch {
		case current != "" && current != sent:
			c.mu.Unlock()
			logctx.From(ctx).Debug("credential already renewed, replaying")
			return current, nil
		case current == "" && sent != "":
			// Purged since the call was sent. Expiry was already broadcast.
			c.mu.Unlock()
			return "", &SessionExpiredError{Reason: "session expired"}
		}
		f := &flight{waiters: []chan refreshResult{ch}}
		c.flight = f
		c.mu.Unlock()
		go c.runRefresh(context.WithoutCancel(ctx), f)
	} else {
		c.flight.waiters = append(c.flight.waiters, ch)
		n := len(c.flight.waiters)
		c.mu.Unlock()
		logctx.From(ctx).Debug("waiting for refresh in flight", slog.Int("position", n))
	}

	select {
	case res := <-ch:
		logctx.From(ctx).Debug("refresh result received", slog.Int("order", res.order))
		return res.token, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) runRefresh(ctx context.Context, f *flight) {
	if c.refreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.refreshTimeout)
		defer cancel()
	}
	token, err := c.exchange(ctx)

	// The session is already updated, so anyone locking after this point
	// takes the stale-credential path instead of starting another exchange.
	c.mu.Lock()
	c.flight = nil
	c.mu.Unlock()

	f.release(refreshResult{token: token, err: err})
}

// release hands res to every waiter in arrival order. Waiter channels are
// buffered so a waiter that gave up never blocks the others.
func (f *flight) release(res refreshResult) {
	for i, w := range f.waiters {
		res.order = i + 1
		w <- res
	}
}

func (c *Client) exchange(ctx context.Context) (string, error) {
	log := logctx.From(ctx)
	// The exchange may outlive its callers; gen ties the result to the
	// session it was started for, so a logout or a new login wins.
	current, gen := c.session.Snapshot()
	refreshToken := current.RefreshToken
	if refreshToken == "" {
		return "", c.expire(ctx, gen, "no refresh token available", nil)
	}

	body, err := c.Request(ctx, refreshEndpoint, Options{
		Method:    http.MethodPost,
		Body:      refreshRequest{RefreshToken: refreshToken},
		Anonymous: true,
	})
	if err != nil {
		return "", c.expire(ctx, gen, err.Error(), err)
	}

	var pair tokenPair
	if err := json.Unmarshal(body, &pair); err != nil || pair.AccessToken == "" {
		return "", c.expire(ctx, gen, "refresh response carried no access token", err)
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	next := session.Pair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if err := c.session.SetIf(ctx, gen, next); err != nil {
		if errors.Is(err, session.ErrSessionChanged) {
			log.Info("refresh result discarded, session changed meanwhile")
			return "", &SessionExpiredError{Reason: "session changed during refresh", Err: err}
		}
		log.Warn("refreshed session kept in memory only", slog.String("err", err.Error()))
	}
	log.Info("session refreshed", slog.String("access_token", redact.Token(pair.AccessToken)))
	return pair.AccessToken, nil
}

// expire purges the session it was given, unless it has been replaced or
// cleared since. Either way the caller gets a terminal error.
func (c *Client) expire(ctx context.Context, gen uint64, reason string, cause error) error {
	if !c.session.ExpireIf(ctx, gen, reason) {
		logctx.From(ctx).Info("session changed meanwhile, not expiring", slog.String("reason", reason))
	}
	return &SessionExpiredError{Reason: reason, Err: cause}
}

