package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
	"civid/pkg/platform/tx"
)

// PostgresStore persists appointments in the appointments table. All methods
// participate in an ambient transaction when one is present on the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const appointmentColumns = `id, user_id, officer_id, request_id, center_id, date, slot, status, notes, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, a *Appointment) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID.String(), a.UserID.String(), a.OfficerID.String(), a.RequestID.String(),
		a.CenterID.String(), a.Date, a.Slot, string(a.Status), a.Notes,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, a *Appointment) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE appointments
		SET status = $2, notes = $3, updated_at = $4
		WHERE id = $1`,
		a.ID.String(), string(a.Status), a.Notes, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appointment rows: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, appointmentID id.AppointmentID) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, appointmentID.String())
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete appointment rows: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, appointmentID id.AppointmentID) (*Appointment, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`,
		appointmentID.String(),
	)
	return scanAppointment(row)
}

func (s *PostgresStore) FindByRequest(ctx context.Context, requestID id.RequestID) (*Appointment, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE request_id = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		requestID.String(),
	)
	return scanAppointment(row)
}

func (s *PostgresStore) ListByCenterDate(ctx context.Context, centerID id.CenterID, date string) ([]*Appointment, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE center_id = $1 AND date = $2
		ORDER BY slot`,
		centerID.String(), day,
	)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var (
		a                                    Appointment
		rawID, userID, officerID, reqID, cID string
		status                               string
	)
	err := row.Scan(&rawID, &userID, &officerID, &reqID, &cID,
		&a.Date, &a.Slot, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	if a.ID, err = id.ParseAppointmentID(rawID); err != nil {
		return nil, err
	}
	if a.UserID, err = id.ParseUserID(userID); err != nil {
		return nil, err
	}
	if a.OfficerID, err = id.ParseUserID(officerID); err != nil {
		return nil, err
	}
	if a.RequestID, err = id.ParseRequestID(reqID); err != nil {
		return nil, err
	}
	if a.CenterID, err = id.ParseCenterID(cID); err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}
