package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waabox/constitutiongpt/internal/domain"
)

type stubBackend struct {
	domain.Backend
	fetched []string
}

func (s *stubBackend) Messages(_ context.Context, id string) ([]domain.DirectMessage, error) {
	s.fetched = append(s.fetched, id)
	return []domain.DirectMessage{{ID: "m1", SenderID: id, Text: "hi"}}, nil
}

func (s *stubBackend) Inbox(context.Context) ([]domain.Conversation, error) {
	return nil, nil
}

func conversationModel(b domain.Backend) AppModel {
	m := NewAppModel(b, Options{PollInterval: time.Millisecond})
	m = m.signedIn(domain.User{ID: "u1", Username: "asha", Role: domain.RoleUser})
	next, _ := m.openConversation(peer{id: "l1", name: "adv.meera"})
	return next.(AppModel)
}

func TestPoll_CurrentGenerationRefetches(t *testing.T) {
	b := &stubBackend{}
	m := conversationModel(b)

	_, cmd := m.Update(pollMsg{gen: m.pollGen})
	require.NotNil(t, cmd)
}

func TestPoll_StaleGenerationIsDropped(t *testing.T) {
	b := &stubBackend{}
	m := conversationModel(b)
	stale := m.pollGen

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(AppModel)
	require.Equal(t, viewInbox, m.view)

	_, cmd := m.Update(pollMsg{gen: stale})
	assert.Nil(t, cmd)
}

func TestPoll_ReopeningStartsNewGeneration(t *testing.T) {
	m := conversationModel(&stubBackend{})
	first := m.pollGen

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	next, _ = next.(AppModel).openConversation(peer{id: "l1", name: "adv.meera"})
	m = next.(AppModel)

	assert.Greater(t, m.pollGen, first+1)
	_, cmd := m.Update(pollMsg{gen: first})
	assert.Nil(t, cmd)
}

func TestPoll_SessionExpiryStopsPolling(t *testing.T) {
	m := conversationModel(&stubBackend{})
	gen := m.pollGen

	next, _ := m.Update(SessionExpiredMsg{Reason: "invalid refresh token"})
	m = next.(AppModel)

	assert.Equal(t, viewLogin, m.view)
	_, cmd := m.Update(pollMsg{gen: gen})
	assert.Nil(t, cmd)
}

func TestLoadMessages_IgnoresOtherPeer(t *testing.T) {
	m := conversationModel(&stubBackend{})
	next, _ := m.Update(MessagesLoadedMsg{PeerID: "someone-else", Messages: []domain.DirectMessage{{ID: "x"}}})
	assert.Empty(t, next.(AppModel).messages)

	next, _ = m.Update(MessagesLoadedMsg{PeerID: "l1", Messages: []domain.DirectMessage{{ID: "m1", SenderID: "l1", Text: "hi"}}})
	assert.Contains(t, next.(AppModel).View(), "adv.meera: hi")
}

func TestConversation_OwnMessagesShowAsYou(t *testing.T) {
	m := conversationModel(&stubBackend{})
	next, _ := m.Update(MessagesLoadedMsg{PeerID: "l1", Messages: []domain.DirectMessage{{SenderID: "u1", Text: "hello"}}})
	assert.Contains(t, next.(AppModel).View(), "you: hello")
}
