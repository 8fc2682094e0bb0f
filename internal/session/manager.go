package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/waabox/constitutiongpt/internal/redact"
)

// ErrIncompletePair is returned by Set when either credential is missing.
var ErrIncompletePair = errors.New("credential pair is incomplete")

// ErrSessionChanged is returned by SetIf when the pair was replaced or
// cleared after the generation was read.
var ErrSessionChanged = errors.New("session changed")

// Expired is broadcast once the session has been purged.
type Expired struct {
	Reason string
	At     time.Time
}

// Manager holds the credential pair in memory and writes it through to a Store.
// It is safe for concurrent use. Every change bumps a generation number, and
// writes are serialized with their store update so memory and store agree.
type Manager struct {
	store Store
	log   *slog.Logger

	// writeMu is held across the memory update and the store write.
	writeMu sync.Mutex
	mu      sync.RWMutex
	pair    Pair
	gen     uint64

	subMu   sync.Mutex
	subs    map[int]chan Expired
	nextSub int
}

// NewManager creates a Manager. Call Restore to load a previously stored pair.
func NewManager(store Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store: store,
		log:   log,
		subs:  make(map[int]chan Expired),
	}
}

// Restore reads the stored pair once, at startup.
func (m *Manager) Restore(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	p, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	m.replace(p)
	if !p.IsZero() {
		m.log.Debug("session restored", slog.String("access", redact.Token(p.AccessToken)))
	}
	return nil
}

// Snapshot returns the current pair together with its generation.
func (m *Manager) Snapshot() (Pair, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair, m.gen
}

// Pair returns a copy of the current pair.
func (m *Manager) Pair() Pair {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair
}

// AccessToken returns the current access credential, or "" when signed out.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.AccessToken
}

// RefreshToken returns the current refresh credential, or "" when none is held.
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.RefreshToken
}

// Authenticated reports whether an access credential is held.
func (m *Manager) Authenticated() bool {
	return m.AccessToken() != ""
}

// Set replaces the pair in memory and in the store.
// The in-memory pair is updated even when persisting fails; the returned error
// then only means the next process start will not see it.
func (m *Manager) Set(ctx context.Context, p Pair) error {
	if p.AccessToken == "" || p.RefreshToken == "" {
		return ErrIncompletePair
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.save(ctx, p)
}

// SetIf replaces the pair only while the generation is still gen, as read
// from Snapshot. Otherwise it returns ErrSessionChanged and changes nothing.
func (m *Manager) SetIf(ctx context.Context, gen uint64, p Pair) error {
	if p.AccessToken == "" || p.RefreshToken == "" {
		return ErrIncompletePair
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if m.generation() != gen {
		return ErrSessionChanged
	}
	return m.save(ctx, p)
}

// Clear forgets the pair (logout). No signal is broadcast.
func (m *Manager) Clear(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.clear(ctx)
}

// Expire purges the pair and notifies every subscriber. It never blocks on a
// slow subscriber.
func (m *Manager) Expire(ctx context.Context, reason string) {
	m.writeMu.Lock()
	m.purge(ctx)
	m.writeMu.Unlock()
	m.broadcast(reason)
}

// ExpireIf expires the session only while the generation is still gen. It
// reports whether it did; a session replaced or cleared since is left alone
// and nobody is notified.
func (m *Manager) ExpireIf(ctx context.Context, gen uint64, reason string) bool {
	m.writeMu.Lock()
	if m.generation() != gen {
		m.writeMu.Unlock()
		return false
	}
	m.purge(ctx)
	m.writeMu.Unlock()
	m.broadcast(reason)
	return true
}

// save and clear expect writeMu to be held.
func (m *Manager) save(ctx context.Context, p Pair) error {
	m.replace(p)
	if err := m.store.Save(ctx, p); err != nil {
		return fmt.Errorf("session updated but not persisted: %w", err)
	}
	return nil
}

func (m *Manager) clear(ctx context.Context) error {
	m.replace(Pair{})
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing stored session: %w", err)
	}
	return nil
}

func (m *Manager) purge(ctx context.Context) {
	if err := m.clear(ctx); err != nil {
		m.log.Error("session purge failed", slog.String("err", err.Error()))
	}
}

func (m *Manager) replace(p Pair) {
	m.mu.Lock()
	m.pair = p
	m.gen++
	m.mu.Unlock()
}

func (m *Manager) generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

func (m *Manager) broadcast(reason string) {
	m.log.Warn("session expired", slog.String("reason", reason))

	ev := Expired{Reason: reason, At: time.Now()}
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			// a signal is already pending for this subscriber
		}
	}
}

// Subscribe registers for Expired signals. The returned func unsubscribes.
func (m *Manager) Subscribe() (<-chan Expired, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Expired, 1)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		})
	}
}

// Claims decodes the current access credential.
func (m *Manager) Claims() (Claims, error) {
	tok := m.AccessToken()
	if tok == "" {
		return Claims{}, ErrNoAccessToken
	}
	return ParseClaims(tok)
}
