package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/waabox/constitutiongpt/internal/apiclient"
	"github.com/waabox/constitutiongpt/internal/domain"
	"github.com/waabox/constitutiongpt/internal/session"
)

// fakeAPI accepts exactly one access token on /data and rotates the pair on
// every successful /refresh.
type fakeAPI struct {
	mu      sync.Mutex
	access  string
	refresh string

	refreshes    atomic.Int32
	dataHits     atomic.Int32
	unauthorized atomic.Int32

	// rejectRefresh makes /refresh answer 400 with this detail.
	rejectRefresh string
	// alwaysUnauthorized makes /data answer 401 whatever token is sent.
	alwaysUnauthorized bool
	// refreshStarted, when set, receives once per /refresh call.
	refreshStarted chan struct{}
	// refreshGate, when set, holds /refresh until it is closed.
	refreshGate chan struct{}
	// onUnauthorized runs before /data writes its 401.
	onUnauthorized func()
}

func newFakeAPI(access, refresh string) *fakeAPI {
	return &fakeAPI{access: access, refresh: refresh}
}

func (f *fakeAPI) pair() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access, f.refresh
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/data":
		f.dataHits.Add(1)
		access, _ := f.pair()
		if f.alwaysUnauthorized || r.Header.Get("Authorization") != "Bearer "+access {
			f.unauthorized.Add(1)
			if f.onUnauthorized != nil {
				f.onUnauthorized()
			}
			writeDetail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	case "/refresh":
		n := f.refreshes.Add(1)
		if f.refreshStarted != nil {
			f.refreshStarted <- struct{}{}
		}
		if f.refreshGate != nil {
			select {
			case <-f.refreshGate:
			case <-r.Context().Done():
				return
			}
		}
		if f.rejectRefresh != "" {
			writeDetail(w, http.StatusBadRequest, f.rejectRefresh)
			return
		}
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		if req.RefreshToken != f.refresh {
			f.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "invalid refresh token")
			return
		}
		f.access = fmt.Sprintf("A%d", n+1)
		f.refresh = fmt.Sprintf("R%d", n+1)
		resp := map[string]string{"access_token": f.access, "refresh_token": f.refresh}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func newTestClient(t *testing.T, handler http.Handler, pair session.Pair) (*apiclient.Client, *session.Manager, *session.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	mgr := session.NewManager(store, nil)
	if !pair.IsZero() {
		require.NoError(t, mgr.Set(context.Background(), pair))
	}
	c, err := apiclient.New(apiclient.Config{BaseURL: srv.URL, Session: mgr})
	require.NoError(t, err)
	return c, mgr, store
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := apiclient.New(apiclient.Config{
		BaseURL: "/api",
		Session: session.NewManager(session.NewMemoryStore(), nil),
	})
	require.Error(t, err)
}

func TestRequest_AttachesBearerAndReturnsBody(t *testing.T) {
	api := newFakeAPI("A1", "R1")
	c, _, _ := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	body, err := c.Request(context.Background(), "/data", apiclient.Options{})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(body))
	require.EqualValues(t, 0, api.refreshes.Load())
}

func TestRequest_ExpiredAccessIsRefreshedAndReplayed(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("A2", "R1")
	c, mgr, store := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	body, err := c.Request(ctx, "/data", apiclient.Options{})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(body))

	require.EqualValues(t, 1, api.refreshes.Load())
	require.EqualValues(t, 2, api.dataHits.Load())
	access, refresh := api.pair()
	require.Equal(t, session.Pair{AccessToken: access, RefreshToken: refresh}, mgr.Pair())
	stored, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, mgr.Pair(), stored)
}

func TestRequest_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	const callers = 10
	api := newFakeAPI("A-server", "R1")
	api.refreshGate = make(chan struct{})
	var once sync.Once
	api.onUnauthorized = func() {
		if api.unauthorized.Load() == callers {
			once.Do(func() { close(api.refreshGate) })
		}
	}
	c, mgr, _ := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Request(context.Background(), "/data", apiclient.Options{})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, api.refreshes.Load())
	require.EqualValues(t, 2*callers, api.dataHits.Load())
	access, _ := api.pair()
	require.Equal(t, access, mgr.AccessToken())
}

func TestRequest_SecondUnauthorizedIsReturned(t *testing.T) {
	api := newFakeAPI("A1", "R1")
	api.alwaysUnauthorized = true
	c, _, _ := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	_, err := c.Request(context.Background(), "/data", apiclient.Options{})
	require.Error(t, err)

	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.EqualValues(t, 2, api.dataHits.Load())
	require.EqualValues(t, 1, api.refreshes.Load())
}

func TestRequest_RejectedRefreshExpiresSession(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("A2", "R1")
	api.rejectRefresh = "invalid refresh token"
	c, mgr, store := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})
	expired, unsubscribe := mgr.Subscribe()
	defer unsubscribe()

	_, err := c.Request(ctx, "/data", apiclient.Options{})
	require.Error(t, err)
	require.Equal(t, "invalid refresh token", err.Error())
	require.ErrorIs(t, err, domain.ErrSessionExpired)

	var expErr *apiclient.SessionExpiredError
	require.True(t, errors.As(err, &expErr))

	select {
	case ev := <-expired:
		require.Equal(t, "invalid refresh token", ev.Reason)
	case <-time.After(time.Second):
		t.Fatal("expiry was not broadcast")
	}
	require.False(t, mgr.Authenticated())
	stored, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, stored.IsZero())
	require.EqualValues(t, 1, api.dataHits.Load())
}

func TestRequest_ConcurrentWaitersShareRejection(t *testing.T) {
	const callers = 5
	api := newFakeAPI("A2", "R1")
	api.rejectRefresh = "invalid refresh token"
	api.refreshGate = make(chan struct{})
	var once sync.Once
	api.onUnauthorized = func() {
		if api.unauthorized.Load() == callers {
			once.Do(func() { close(api.refreshGate) })
		}
	}
	c, mgr, _ := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})
	expired, unsubscribe := mgr.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Request(context.Background(), "/data", apiclient.Options{})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, domain.ErrSessionExpired)
	}
	require.EqualValues(t, 1, api.refreshes.Load())
	<-expired
	select {
	case <-expired:
		t.Fatal("expiry broadcast twice")
	default:
	}
}

func TestRequest_WithoutRefreshTokenExpiresWithoutExchange(t *testing.T) {
	api := newFakeAPI("A1", "R1")
	c, _, _ := newTestClient(t, api, session.Pair{})

	_, err := c.Request(context.Background(), "/data", apiclient.Options{})
	require.ErrorIs(t, err, domain.ErrSessionExpired)
	require.Equal(t, "no refresh token available", err.Error())
	require.EqualValues(t, 0, api.refreshes.Load())
}

func TestRequest_StaleTokenReplaysWithoutSecondRefresh(t *testing.T) {
	api := newFakeAPI("A2", "R1")
	c, mgr, _ := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	// Another caller finishes a refresh while the first response is in flight.
	var (
		once       sync.Once
		refreshErr error
	)
	api.onUnauthorized = func() {
		once.Do(func() {
			_, refreshErr = c.Refresh(context.Background())
		})
	}

	body, err := c.Request(context.Background(), "/data", apiclient.Options{})
	require.NoError(t, err)
	require.NoError(t, refreshErr)
	require.JSONEq(t, `{"ok":true}`, string(body))
	require.EqualValues(t, 1, api.refreshes.Load())
	access, _ := api.pair()
	require.Equal(t, access, mgr.AccessToken())
}

func TestRequest_CancelledWaiterDoesNotAbortRefresh(t *testing.T) {
	api := newFakeAPI("A2", "R1")
	api.refreshStarted = make(chan struct{}, 1)
	api.refreshGate = make(chan struct{})
	c, mgr, _ := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Request(ctx, "/data", apiclient.Options{})
		done <- err
	}()

	<-api.refreshStarted
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(api.refreshGate)
	require.Eventually(t, func() bool {
		access, _ := api.pair()
		return mgr.AccessToken() == access
	}, time.Second, 10*time.Millisecond)
	require.EqualValues(t, 1, api.refreshes.Load())
}

func TestRequest_LogoutDuringRefreshStaysSignedOut(t *testing.T) {
	api := newFakeAPI("A2", "R1")
	api.refreshStarted = make(chan struct{}, 1)
	api.refreshGate = make(chan struct{})
	c, mgr, store := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})
	expired, unsubscribe := mgr.Subscribe()
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), "/data", apiclient.Options{})
		done <- err
	}()

	<-api.refreshStarted
	require.NoError(t, c.Logout(context.Background()))
	require.False(t, mgr.Authenticated())
	close(api.refreshGate)

	err := <-done
	require.ErrorIs(t, err, domain.ErrSessionExpired)
	require.ErrorIs(t, err, session.ErrSessionChanged)
	require.Equal(t, session.Pair{}, mgr.Pair())
	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.Pair{}, stored)
	select {
	case ev := <-expired:
		t.Fatalf("logout must not be reported as expiry, got %q", ev.Reason)
	default:
	}
}

func TestRequest_LoginDuringRefreshKeepsNewSession(t *testing.T) {
	api := newFakeAPI("A2", "R1")
	api.refreshStarted = make(chan struct{}, 1)
	api.refreshGate = make(chan struct{})
	c, mgr, store := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	done := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), "/data", apiclient.Options{})
		done <- err
	}()

	<-api.refreshStarted
	other := session.Pair{AccessToken: "B1", RefreshToken: "S1"}
	require.NoError(t, mgr.Set(context.Background(), other))
	close(api.refreshGate)

	require.ErrorIs(t, <-done, domain.ErrSessionExpired)
	require.Equal(t, other, mgr.Pair())
	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, other, stored)
}

func TestRequest_RejectedRefreshAfterLogoutDoesNotBroadcast(t *testing.T) {
	api := newFakeAPI("A2", "R1")
	api.rejectRefresh = "invalid refresh token"
	api.refreshStarted = make(chan struct{}, 1)
	api.refreshGate = make(chan struct{})
	c, mgr, _ := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})
	expired, unsubscribe := mgr.Subscribe()
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), "/data", apiclient.Options{})
		done <- err
	}()

	<-api.refreshStarted
	require.NoError(t, c.Logout(context.Background()))
	close(api.refreshGate)

	require.ErrorIs(t, <-done, domain.ErrSessionExpired)
	select {
	case ev := <-expired:
		t.Fatalf("logout must not be reported as expiry, got %q", ev.Reason)
	default:
	}
}

func TestRequest_RefreshTimeoutExpiresSession(t *testing.T) {
	api := newFakeAPI("A2", "R1")
	api.refreshGate = make(chan struct{})

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(api.refreshGate) })
	mgr := session.NewManager(session.NewMemoryStore(), nil)
	require.NoError(t, mgr.Set(context.Background(), session.Pair{AccessToken: "A1", RefreshToken: "R1"}))
	c, err := apiclient.New(apiclient.Config{
		BaseURL:        srv.URL,
		Session:        mgr,
		RefreshTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = c.Request(context.Background(), "/data", apiclient.Options{})
	require.ErrorIs(t, err, domain.ErrSessionExpired)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, mgr.Authenticated())
}

func TestRequest_NonUnauthorizedFailsWithDetail(t *testing.T) {
	api := newFakeAPI("A1", "R1")
	c, _, _ := newTestClient(t, api, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	_, err := c.Request(context.Background(), "/missing", apiclient.Options{})
	require.Error(t, err)

	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "Not Found", apiErr.Message)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.EqualValues(t, 0, api.refreshes.Load())
}

func TestRequest_FallbackMessageWithoutDetail(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})
	c, _, _ := newTestClient(t, handler, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	_, err := c.Request(context.Background(), "/data", apiclient.Options{})
	require.EqualError(t, err, "request failed: 502 Bad Gateway")
}

func TestRequest_TransportErrorIsNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	mgr := session.NewManager(session.NewMemoryStore(), nil)
	require.NoError(t, mgr.Set(context.Background(), session.Pair{AccessToken: "A1", RefreshToken: "R1"}))
	c, err := apiclient.New(apiclient.Config{BaseURL: url, Session: mgr})
	require.NoError(t, err)

	_, err = c.Request(context.Background(), "/data", apiclient.Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "executing request")
	require.True(t, mgr.Authenticated())
}

func TestRequest_AnonymousUnauthorizedNeverRefreshes(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
	})
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, _ *http.Request) {
		refreshes.Add(1)
		writeDetail(w, http.StatusBadRequest, "invalid refresh token")
	})
	c, mgr, _ := newTestClient(t, mux, session.Pair{AccessToken: "A1", RefreshToken: "R1"})
	expired, unsubscribe := mgr.Subscribe()
	defer unsubscribe()

	_, err := c.Login(context.Background(), "asha", "wrong")
	require.EqualError(t, err, "Invalid credentials")
	require.EqualValues(t, 0, refreshes.Load())
	require.True(t, mgr.Authenticated())
	select {
	case <-expired:
		t.Fatal("a failed login must not expire the session")
	default:
	}
}

func TestRequest_CallerHeadersOverrideDefaults(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		require.Equal(t, "Bearer A1", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))
		_, _ = io.WriteString(w, "{}")
	})
	c, _, _ := newTestClient(t, handler, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	_, err := c.Request(context.Background(), "/data", apiclient.Options{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": {"text/plain"}, "Authorization": {"Basic x"}},
		Body:   []byte("hello"),
	})
	require.NoError(t, err)
}

func TestRequest_MultipartBodyIsReplayedVerbatim(t *testing.T) {
	var (
		mu           sync.Mutex
		bodies       [][]byte
		contentTypes []string
	)
	api := newFakeAPI("A2", "R1")
	mux := http.NewServeMux()
	mux.Handle("/refresh", api)
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		mu.Lock()
		bodies = append(bodies, raw)
		contentTypes = append(contentTypes, r.Header.Get("Content-Type"))
		mu.Unlock()

		access, _ := api.pair()
		if r.Header.Get("Authorization") != "Bearer "+access {
			writeDetail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	c, _, _ := newTestClient(t, mux, session.Pair{AccessToken: "A1", RefreshToken: "R1"})

	form := apiclient.NewMultipart().
		Field("role", "lawyer").
		File("lawyer_proof_file", "bar-council.pdf", []byte("%PDF-1.4"))
	_, err := c.Request(context.Background(), "/upload", apiclient.Options{Method: http.MethodPost, Body: form})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	require.Equal(t, bodies[0], bodies[1])
	require.Equal(t, contentTypes[0], contentTypes[1])
	require.Contains(t, contentTypes[0], "multipart/form-data; boundary=")
}
