package apiclient

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/waabox/constitutiongpt/internal/domain"
)

// The API serializes ids as strings and timestamps as ISO-8601, usually
// without a zone. Wire structs mirror those shapes and convert to domain types.

type flexID string

// UnmarshalJSON accepts ids sent as strings or numbers.
func (id *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTime reads the timestamp formats the API emits. Timestamps without a
// zone are UTC. Unparseable input yields the zero time.
func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC()
	}
	return time.Time{}
}

type userJSON struct {
	ID         flexID `json:"id"`
	UserID     flexID `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	IsVerified bool   `json:"is_verified"`
}

func (u userJSON) toDomain() domain.User {
	id := u.ID
	if id == "" {
		id = u.UserID
	}
	role := domain.Role(u.Role)
	if role == "" {
		role = domain.RoleUser
	}
	return domain.User{
		ID:         string(id),
		Username:   u.Username,
		Email:      u.Email,
		Role:       role,
		Phone:      u.Phone,
		Address:    u.Address,
		City:       u.City,
		IsVerified: u.IsVerified,
	}
}

type chatJSON struct {
	ID        flexID `json:"id"`
	Message   string `json:"message"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

func (c chatJSON) toDomain() domain.ChatEntry {
	return domain.ChatEntry{
		ID:        string(c.ID),
		Question:  c.Message,
		Answer:    c.Response,
		CreatedAt: parseTime(c.Timestamp),
	}
}

type topicJSON struct {
	ID          flexID `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
}

func (t topicJSON) toDomain() domain.Topic {
	return domain.Topic{
		ID:          string(t.ID),
		Title:       t.Title,
		Description: t.Description,
		Content:     t.Content,
		CreatedAt:   parseTime(t.CreatedAt),
	}
}

type lawyerJSON struct {
	ID         flexID `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	IsVerified bool   `json:"is_verified"`
}

func (l lawyerJSON) toDomain() domain.Lawyer {
	return domain.Lawyer{
		ID:         string(l.ID),
		Username:   l.Username,
		Email:      l.Email,
		Phone:      l.Phone,
		Address:    l.Address,
		City:       l.City,
		IsVerified: l.IsVerified,
	}
}

type directMessageJSON struct {
	ID         flexID `json:"id"`
	SenderID   flexID `json:"sender_id"`
	ReceiverID flexID `json:"receiver_id"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	IsRead     bool   `json:"is_read"`
}

func (m directMessageJSON) toDomain() domain.DirectMessage {
	return domain.DirectMessage{
		ID:         string(m.ID),
		SenderID:   string(m.SenderID),
		ReceiverID: string(m.ReceiverID),
		Text:       m.Message,
		SentAt:     parseTime(m.Timestamp),
		IsRead:     m.IsRead,
	}
}

type conversationJSON struct {
	OtherUserID   flexID `json:"other_user_id"`
	OtherUsername string `json:"other_username"`
	OtherRole     string `json:"other_role"`
	LastMessage   string `json:"last_message"`
	Timestamp     string `json:"timestamp"`
	UnreadCount   int    `json:"unread_count"`
}

func (c conversationJSON) toDomain() domain.Conversation {
	return domain.Conversation{
		OtherUserID:   string(c.OtherUserID),
		OtherUsername: c.OtherUsername,
		OtherRole:     domain.Role(c.OtherRole),
		LastMessage:   c.LastMessage,
		LastAt:        parseTime(c.Timestamp),
		UnreadCount:   c.UnreadCount,
	}
}

type appointmentJSON struct {
	ID          flexID `json:"id"`
	UserID      flexID `json:"user_id"`
	Username    string `json:"username"`
	LawyerID    flexID `json:"lawyer_id"`
	LawyerName  string `json:"lawyer_name"`
	ScheduledAt string `json:"scheduled_at"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func (a appointmentJSON) toDomain() domain.Appointment {
	return domain.Appointment{
		ID:          string(a.ID),
		UserID:      string(a.UserID),
		Username:    a.Username,
		LawyerID:    string(a.LawyerID),
		LawyerName:  a.LawyerName,
		ScheduledAt: parseTime(a.ScheduledAt),
		Description: a.Description,
		Status:      domain.AppointmentStatus(a.Status),
		CreatedAt:   parseTime(a.CreatedAt),
	}
}

func convert[W any, D any](in []W, fn func(W) D) []D {
	out := make([]D, 0, len(in))
	for _, w := range in {
		out = append(out, fn(w))
	}
	return out
}
