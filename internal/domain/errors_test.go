package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/waabox/constitutiongpt/internal/domain"
)

func TestErrUnauthorized_CanBeDetectedWithErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("api error: %w", domain.ErrUnauthorized)
	require.True(t, errors.Is(wrapped, domain.ErrUnauthorized))
	require.False(t, errors.Is(wrapped, domain.ErrSessionExpired))
}

func TestAppointmentStatus_Valid(t *testing.T) {
	for _, s := range []domain.AppointmentStatus{
		domain.AppointmentPending,
		domain.AppointmentConfirmed,
		domain.AppointmentCancelled,
		domain.AppointmentCompleted,
	} {
		require.True(t, s.Valid(), s)
	}
	require.False(t, domain.AppointmentStatus("rescheduled").Valid())
}

func TestUser_IsLawyerAndAdmin(t *testing.T) {
	require.True(t, domain.User{Role: domain.RoleLawyer}.IsLawyer())
	require.False(t, domain.User{Role: domain.RoleUser}.IsLawyer())
	require.True(t, domain.User{Role: domain.RoleAdmin}.IsAdmin())
}
