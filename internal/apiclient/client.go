// Package apiclient talks to the ConstitutionGPT REST API.
//
// Every call goes through Client.Request, which attaches the access credential
// from the session manager and, when the API answers 401, exchanges the refresh
// credential for a new pair and replays the call once. Concurrent callers that
// hit 401 together share a single exchange.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/waabox/constitutiongpt/internal/domain"
	"github.com/waabox/constitutiongpt/internal/logctx"
	"github.com/waabox/constitutiongpt/internal/session"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultRefreshTimeout = 30 * time.Second
	maxResponseBytes      = 8 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Session *session.Manager
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
	// RefreshTimeout bounds one refresh exchange. Zero means the default;
	// a negative value disables the bound.
	RefreshTimeout time.Duration
}

// Options describes a single call.
type Options struct {
	// Method defaults to GET.
	Method string
	// Header values override the defaults, except Authorization.
	Header http.Header
	// Body is nil, a []byte or json.RawMessage sent as-is, a *Multipart,
	// or any other value encoded as JSON.
	Body any
	// Anonymous calls carry no bearer credential and never trigger a refresh.
	Anonymous bool
}

// Client is the authenticated request coordinator. It is safe for concurrent use.
type Client struct {
	baseURL        string
	http           *http.Client
	session        *session.Manager
	log            *slog.Logger
	refreshTimeout time.Duration

	mu     sync.Mutex
	flight *flight
}

// Ensure Client fully implements domain.Backend.
var _ domain.Backend = (*Client)(nil)

// New creates a Client.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q is not absolute", cfg.BaseURL)
	}
	if cfg.Session == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	rt := cfg.RefreshTimeout
	if rt == 0 {
		rt = defaultRefreshTimeout
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           hc,
		session:        cfg.Session,
		log:            log,
		refreshTimeout: rt,
	}, nil
}

// Session returns the session manager the client reads credentials from.
func (c *Client) Session() *session.Manager {
	return c.session
}

// Request performs one call against endpoint, a path relative to the base URL,
// and returns the raw response body of a 2xx answer.
//
// A 401 on an authenticated call is answered by refreshing the session and
// replaying the call exactly once. A second 401 is returned to the caller.
// Any other non-2xx answer fails immediately with the server's message.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options) ([]byte, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	payload, contentType, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}
	ctx = logctx.Into(ctx, c.log.With(slog.String("method", method), slog.String("endpoint", endpoint)))

	var token string
	if !opts.Anonymous {
		token = c.session.AccessToken()
	}
	retried := false
	for {
		status, body, err := c.send(ctx, method, endpoint, opts.Header, payload, contentType, token)
		if err != nil {
			return nil, err
		}
		if status >= 200 && status < 300 {
			return body, nil
		}
		apiErr := newAPIError(status, body)
		if status != http.StatusUnauthorized || opts.Anonymous || retried {
			return nil, apiErr
		}
		retried = true
		token, err = c.renew(ctx, token)
		if err != nil {
			return nil, err
		}
	}
}

// JSON performs an authenticated call with in encoded as the JSON body and
// decodes the answer into out. Either may be nil.
func (c *Client) JSON(ctx context.Context, method, endpoint string, in, out any) error {
	body, err := c.Request(ctx, endpoint, Options{Method: method, Body: in})
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) send(ctx context.Context, method, endpoint string, header http.Header, payload []byte, contentType, token string) (int, []byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), rd)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	log := logctx.From(ctx).With(slog.String("request_id", requestID))
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("api request failed", slog.String("err", err.Error()))
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}
	log.Debug("api request",
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", time.Since(start)),
		slog.Int("bytes", len(body)),
	)
	return resp.StatusCode, body, nil
}

func (c *Client) url(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
