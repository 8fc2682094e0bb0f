package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/waabox/constitutiongpt/internal/domain"
)

type bookAppointmentRequest struct {
	LawyerID    string `json:"lawyer_id"`
	ScheduledAt string `json:"scheduled_at"`
	Description string `json:"description"`
}

type appointmentsResponse struct {
	Appointments []appointmentJSON `json:"appointments"`
}

type appointmentStatusRequest struct {
	Status string `json:"status"`
}

// BookAppointment requests a slot with a lawyer. The appointment starts pending.
func (c *Client) BookAppointment(ctx context.Context, req domain.BookingRequest) (domain.Appointment, error) {
	var resp appointmentJSON
	err := c.JSON(ctx, http.MethodPost, "/appointments", bookAppointmentRequest{
		LawyerID:    req.LawyerID,
		ScheduledAt: req.ScheduledAt.UTC().Format(time.RFC3339),
		Description: req.Description,
	}, &resp)
	if err != nil {
		return domain.Appointment{}, err
	}
	return resp.toDomain(), nil
}

// UserAppointments lists the appointments the signed-in user booked.
func (c *Client) UserAppointments(ctx context.Context) ([]domain.Appointment, error) {
	return c.appointments(ctx, "/appointments/user")
}

// LawyerAppointments lists the appointments booked with the signed-in lawyer.
func (c *Client) LawyerAppointments(ctx context.Context) ([]domain.Appointment, error) {
	return c.appointments(ctx, "/appointments/lawyer")
}

// UpdateAppointmentStatus moves an appointment to status.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id string, status domain.AppointmentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown appointment status %q", status)
	}
	return c.JSON(ctx, http.MethodPut, "/appointments/"+url.PathEscape(id)+"/status", appointmentStatusRequest{
		Status: string(status),
	}, nil)
}

func (c *Client) appointments(ctx context.Context, endpoint string) ([]domain.Appointment, error) {
	var resp appointmentsResponse
	if err := c.JSON(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return convert(resp.Appointments, appointmentJSON.toDomain), nil
}
