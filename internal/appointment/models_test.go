package appointment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civid/internal/appointment"
	derrors "civid/pkg/domain-errors"
)

func TestStatusTransitions(t *testing.T) {
	terminal := []appointment.Status{
		appointment.StatusCompleted,
		appointment.StatusCancelled,
		appointment.StatusMissed,
	}

	for _, target := range terminal {
		assert.True(t, appointment.StatusScheduled.CanTransitionTo(target), string(target))
	}

	// Terminal states never move again, not even back to scheduled.
	for _, from := range terminal {
		assert.False(t, from.CanTransitionTo(appointment.StatusScheduled), string(from))
		for _, to := range terminal {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestAppointmentTransition(t *testing.T) {
	now := time.Date(2026, time.September, 7, 11, 0, 0, 0, time.UTC)
	appt := &appointment.Appointment{Status: appointment.StatusScheduled}

	require.NoError(t, appt.Transition(appointment.StatusCompleted, now))
	assert.Equal(t, appointment.StatusCompleted, appt.Status)
	assert.Equal(t, now, appt.UpdatedAt)

	err := appt.Transition(appointment.StatusCancelled, now.Add(time.Minute))
	assert.True(t, derrors.HasCode(err, derrors.CodeConflict))
	assert.Equal(t, appointment.StatusCompleted, appt.Status)
	assert.Equal(t, now, appt.UpdatedAt)
}
