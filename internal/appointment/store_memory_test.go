package appointment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civid/internal/appointment"
	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := appointment.NewInMemoryStore()
	centerID := id.NewCenterID()
	date := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)

	appt := &appointment.Appointment{
		ID:        id.NewAppointmentID(),
		UserID:    id.NewUserID(),
		RequestID: id.NewRequestID(),
		CenterID:  centerID,
		Date:      date,
		Slot:      "10:00",
		Status:    appointment.StatusScheduled,
	}
	require.NoError(t, store.Create(ctx, appt))
	assert.ErrorIs(t, store.Create(ctx, appt), sentinel.ErrConflict)

	t.Run("find returns a copy", func(t *testing.T) {
		found, err := store.FindByID(ctx, appt.ID)
		require.NoError(t, err)
		found.Status = appointment.StatusCancelled

		again, err := store.FindByID(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, appointment.StatusScheduled, again.Status)
	})

	t.Run("find by request", func(t *testing.T) {
		found, err := store.FindByRequest(ctx, appt.RequestID)
		require.NoError(t, err)
		assert.Equal(t, appt.ID, found.ID)

		_, err = store.FindByRequest(ctx, id.NewRequestID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("day sheet filters by center and date", func(t *testing.T) {
		other := &appointment.Appointment{
			ID:       id.NewAppointmentID(),
			CenterID: centerID,
			Date:     date.AddDate(0, 0, 1),
			Status:   appointment.StatusScheduled,
		}
		require.NoError(t, store.Create(ctx, other))

		out, err := store.ListByCenterDate(ctx, centerID, "2026-09-07")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, appt.ID, out[0].ID)
	})

	t.Run("update and delete", func(t *testing.T) {
		appt.Notes = "bring originals"
		require.NoError(t, store.Update(ctx, appt))

		require.NoError(t, store.Delete(ctx, appt.ID))
		assert.ErrorIs(t, store.Delete(ctx, appt.ID), sentinel.ErrNotFound)
		assert.ErrorIs(t, store.Update(ctx, appt), sentinel.ErrNotFound)
		_, err := store.FindByID(ctx, appt.ID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
