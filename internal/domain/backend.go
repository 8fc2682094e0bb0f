package domain

import "context"

// Backend is the port the application shell talks to.
// The shell does not know how requests are authenticated or retried.
type Backend interface {
	Login(ctx context.Context, username, password string) (User, error)
	Logout(ctx context.Context) error
	VerifyToken(ctx context.Context) (User, error)
	ChangePassword(ctx context.Context, current, next string) error

	Ask(ctx context.Context, question string) (string, error)
	History(ctx context.Context) ([]ChatEntry, error)
	DeleteChat(ctx context.Context, id string) error

	Topics(ctx context.Context) ([]Topic, error)
	SearchTopics(ctx context.Context, query string) ([]Topic, error)

	Lawyers(ctx context.Context, city string) ([]Lawyer, error)
	AdminLawyers(ctx context.Context) ([]Lawyer, error)
	VerifyLawyer(ctx context.Context, lawyerID string, verified bool) error

	Inbox(ctx context.Context) ([]Conversation, error)
	Messages(ctx context.Context, otherID string) ([]DirectMessage, error)
	SendDirectMessage(ctx context.Context, receiverID, text string) error

	BookAppointment(ctx context.Context, req BookingRequest) (Appointment, error)
	UserAppointments(ctx context.Context) ([]Appointment, error)
	LawyerAppointments(ctx context.Context) ([]Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status AppointmentStatus) error
}
