package mockapi

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/waabox/constitutiongpt/internal/domain"
)

// wireTime matches the zone-less ISO timestamps of the production API.
const wireTime = "2006-01-02T15:04:05.000000"

type user struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	Role         domain.Role
	Phone        string
	Address      string
	City         string
	IsVerified   bool
	ProofFile    string
	CreatedAt    time.Time
}

type chat struct {
	ID        string
	UserID    string
	Message   string
	Response  string
	Timestamp time.Time
}

type topic struct {
	ID          string
	Title       string
	Description string
	Content     string
	CreatedAt   time.Time
}

type message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Text       string
	Timestamp  time.Time
	IsRead     bool
}

type appointment struct {
	ID          string
	UserID      string
	LawyerID    string
	ScheduledAt time.Time
	Description string
	Status      domain.AppointmentStatus
	CreatedAt   time.Time
}

// store is the in-memory database behind the server.
type store struct {
	now  func() time.Time
	cost int

	mu           sync.Mutex
	users        map[string]*user
	chats        []*chat
	topics       []*topic
	messages     []*message
	appointments []*appointment
}

func newStore(now func() time.Time, cost int) *store {
	return &store{
		now:   now,
		cost:  cost,
		users: make(map[string]*user),
	}
}

type newUser struct {
	Username  string
	Email     string
	Password  string
	Role      domain.Role
	Phone     string
	Address   string
	City      string
	ProofFile string
}

func (s *store) createUser(in newUser) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, in.Username) || strings.EqualFold(u.Email, in.Email) {
			return nil, errUserExists
		}
	}
	u := &user{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Phone:        in.Phone,
		Address:      in.Address,
		City:         in.City,
		IsVerified:   role != domain.RoleLawyer,
		ProofFile:    in.ProofFile,
		CreatedAt:    s.now(),
	}
	s.users[u.ID] = u
	return u, nil
}

// authenticate accepts either the username or the email as login.
func (s *store) authenticate(login, password string) (*user, error) {
	s.mu.Lock()
	var found *user
	for _, u := range s.users {
		if u.Username == login || u.Email == login {
			cp := *u
			found = &cp
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return nil, errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(found.PasswordHash, []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	return found, nil
}

func (s *store) user(id string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("User")
	}
	cp := *u
	return &cp, nil
}

func (s *store) changePassword(id, current, next string) error {
	u, err := s.user(id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(current)) != nil {
		return errWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.users[id].PasswordHash = hash
	s.mu.Unlock()
	return nil
}

func (s *store) saveChat(userID, question, answer string) *chat {
	c := &chat{ID: uuid.NewString(), UserID: userID, Message: question, Response: answer, Timestamp: s.now()}
	s.mu.Lock()
	s.chats = append(s.chats, c)
	s.mu.Unlock()
	return c
}

// history returns userID's chats, newest first.
func (s *store) history(userID string) []chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []chat
	for i := len(s.chats) - 1; i >= 0; i-- {
		if s.chats[i].UserID == userID {
			out = append(out, *s.chats[i])
		}
	}
	return out
}

func (s *store) chat(userID, id string) (chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.ID == id && c.UserID == userID {
			return *c, nil
		}
	}
	return chat{}, notFound("Chat")
}

func (s *store) deleteChat(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.chats {
		if c.ID == id && c.UserID == userID {
			s.chats = append(s.chats[:i], s.chats[i+1:]...)
			return nil
		}
	}
	return notFound("Chat")
}

func (s *store) addTopic(title, description, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, &topic{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Content:     content,
		CreatedAt:   s.now(),
	})
}

func (s *store) allTopics() []topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]topic, 0, len(s.topics))
	for _, t := range s.topics {
		out = append(out, *t)
	}
	return out
}

func (s *store) topic(id string) (topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.topics {
		if t.ID == id {
			return *t, nil
		}
	}
	return topic{}, notFound("Topic")
}

// searchTopics matches query case-insensitively against title, description
// and content.
func (s *store) searchTopics(query string) []topic {
	q := strings.ToLower(query)
	var out []topic
	for _, t := range s.allTopics() {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.Content), q) {
			out = append(out, t)
		}
	}
	return out
}

// lawyers lists lawyers ordered by username. verifiedOnly hides pending ones;
// city matches as a case-insensitive substring.
func (s *store) lawyers(verifiedOnly bool, city string) []user {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []user
	for _, u := range s.users {
		if u.Role != domain.RoleLawyer || (verifiedOnly && !u.IsVerified) {
			continue
		}
		if city != "" && !strings.Contains(strings.ToLower(u.City), strings.ToLower(city)) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (s *store) setVerified(lawyerID string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[lawyerID]
	if !ok || u.Role != domain.RoleLawyer {
		return notFound("Lawyer")
	}
	u.IsVerified = verified
	return nil
}

func (s *store) sendMessage(from, to, text string) (*message, error) {
	if _, err := s.user(to); err != nil {
		return nil, notFound("Receiver")
	}
	m := &message{ID: uuid.NewString(), SenderID: from, ReceiverID: to, Text: text, Timestamp: s.now()}
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	return m, nil
}

// conversation returns the messages between me and other, oldest first, and
// marks the ones addressed to me as read.
func (s *store) conversation(me, other string) []message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []message
	for _, m := range s.messages {
		mine := m.SenderID == me && m.ReceiverID == other
		theirs := m.SenderID == other && m.ReceiverID == me
		if !mine && !theirs {
			continue
		}
		out = append(out, *m)
		if theirs {
			m.IsRead = true
		}
	}
	return out
}

type inboxEntry struct {
	Other       user
	LastMessage string
	LastAt      time.Time
	Unread      int
}

// inbox groups me's messages by peer, most recent conversation first.
func (s *store) inbox(me string) []inboxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	byPeer := make(map[string]*inboxEntry)
	for _, m := range s.messages {
		var peer string
		switch me {
		case m.SenderID:
			peer = m.ReceiverID
		case m.ReceiverID:
			peer = m.SenderID
		default:
			continue
		}
		other, ok := s.users[peer]
		if !ok {
			continue
		}
		e, ok := byPeer[peer]
		if !ok {
			e = &inboxEntry{Other: *other}
			byPeer[peer] = e
		}
		if !m.Timestamp.Before(e.LastAt) {
			e.LastMessage = m.Text
			e.LastAt = m.Timestamp
		}
		if m.ReceiverID == me && !m.IsRead {
			e.Unread++
		}
	}
	out := make([]inboxEntry, 0, len(byPeer))
	for _, e := range byPeer {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAt.After(out[j].LastAt) })
	return out
}

func (s *store) bookAppointment(userID, lawyerID string, at time.Time, description string) (*appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.users[lawyerID]
	if !ok || l.Role != domain.RoleLawyer || !l.IsVerified {
		return nil, notFound("Lawyer")
	}
	a := &appointment{
		ID:          uuid.NewString(),
		UserID:      userID,
		LawyerID:    lawyerID,
		ScheduledAt: at,
		Description: description,
		Status:      domain.AppointmentPending,
		CreatedAt:   s.now(),
	}
	s.appointments = append(s.appointments, a)
	return a, nil
}

func (s *store) appointmentsFor(userID string, asLawyer bool) []appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []appointment
	for _, a := range s.appointments {
		if (asLawyer && a.LawyerID == userID) || (!asLawyer && a.UserID == userID) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

// setAppointmentStatus lets the booking user cancel and the lawyer move the
// appointment to any status.
func (s *store) setAppointmentStatus(actorID, id string, status domain.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if a.ID != id {
			continue
		}
		switch actorID {
		case a.LawyerID:
		case a.UserID:
			if status != domain.AppointmentCancelled {
				return newHTTPError(http.StatusForbidden, "Only the lawyer can change this status")
			}
		default:
			return notFound("Appointment")
		}
		a.Status = status
		return nil
	}
	return notFound("Appointment")
}

func (s *store) username(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.Username
	}
	return ""
}
