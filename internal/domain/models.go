package domain

import "time"

// Role identifies what an account may do in the application.
type Role string

const (
	RoleUser   Role = "user"
	RoleLawyer Role = "lawyer"
	RoleAdmin  Role = "admin"
)

// User is an account as returned by login and token verification.
type User struct {
	ID         string
	Username   string
	Email      string
	Role       Role
	Phone      string
	Address    string
	City       string
	IsVerified bool
}

// IsLawyer reports whether the user registered as a lawyer.
func (u User) IsLawyer() bool { return u.Role == RoleLawyer }

// IsAdmin reports whether the user may verify lawyers.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// ChatEntry is one question asked to the assistant together with its answer.
type ChatEntry struct {
	ID        string
	Question  string
	Answer    string
	CreatedAt time.Time
}

// Topic is a constitutional topic from the browsable catalogue.
type Topic struct {
	ID          string
	Title       string
	Description string
	Content     string
	CreatedAt   time.Time
}

// Lawyer is a lawyer profile listed in the marketplace.
type Lawyer struct {
	ID         string
	Username   string
	Email      string
	Phone      string
	Address    string
	City       string
	IsVerified bool
}

// DirectMessage is a single peer-to-peer message.
type DirectMessage struct {
	ID         string
	SenderID   string
	ReceiverID string
	Text       string
	SentAt     time.Time
	IsRead     bool
}

// Conversation summarizes the exchange with one peer for the inbox.
type Conversation struct {
	OtherUserID   string
	OtherUsername string
	OtherRole     Role
	LastMessage   string
	LastAt        time.Time
	UnreadCount   int
}

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

// Appointment is a booking between a user and a lawyer.
type Appointment struct {
	ID          string
	UserID      string
	Username    string
	LawyerID    string
	LawyerName  string
	ScheduledAt time.Time
	Description string
	Status      AppointmentStatus
	CreatedAt   time.Time
}

// BookingRequest is what a user submits to book a lawyer.
type BookingRequest struct {
	LawyerID    string
	ScheduledAt time.Time
	Description string
}
