package biometric

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
	"civid/pkg/platform/tx"
)

// PostgresStore persists captures in biometric_captures. The unique index on
// appointment_id enforces the one-capture-per-appointment rule; fingerprints
// and document refs ride as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const captureColumns = `id, request_id, appointment_id, user_id, officer_id, fingerprints,
	face_quality, face_ref, iris_quality, iris_ref, document_refs, status, review_note,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *Capture) error {
	fingerprints, err := json.Marshal(c.Fingerprints)
	if err != nil {
		return fmt.Errorf("encode fingerprints: %w", err)
	}
	docs, err := json.Marshal(c.DocumentRefs)
	if err != nil {
		return fmt.Errorf("encode document refs: %w", err)
	}
	q := tx.Resolve(ctx, s.db)
	_, err = q.ExecContext(ctx, `
		INSERT INTO biometric_captures (`+captureColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		c.ID.String(), c.RequestID.String(), c.AppointmentID.String(),
		c.UserID.String(), c.OfficerID.String(), fingerprints,
		c.FaceQuality, c.FaceRef, c.IrisQuality, c.IrisRef, docs,
		string(c.Status), c.ReviewNote, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert capture: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *Capture) error {
	fingerprints, err := json.Marshal(c.Fingerprints)
	if err != nil {
		return fmt.Errorf("encode fingerprints: %w", err)
	}
	docs, err := json.Marshal(c.DocumentRefs)
	if err != nil {
		return fmt.Errorf("encode document refs: %w", err)
	}
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE biometric_captures
		SET fingerprints = $2, face_quality = $3, face_ref = $4,
		    iris_quality = $5, iris_ref = $6, document_refs = $7,
		    status = $8, review_note = $9, updated_at = $10
		WHERE id = $1`,
		c.ID.String(), fingerprints, c.FaceQuality, c.FaceRef,
		c.IrisQuality, c.IrisRef, docs, string(c.Status), c.ReviewNote, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update capture: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update capture rows: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, captureID id.CaptureID) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`DELETE FROM biometric_captures WHERE id = $1`, captureID.String())
	if err != nil {
		return fmt.Errorf("delete capture: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete capture rows: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, captureID id.CaptureID) (*Capture, error) {
	q := tx.Resolve(ctx, s.db)
	return scanCapture(q.QueryRowContext(ctx, `
		SELECT `+captureColumns+` FROM biometric_captures WHERE id = $1`,
		captureID.String(),
	))
}

func (s *PostgresStore) FindByAppointment(ctx context.Context, appointmentID id.AppointmentID) (*Capture, error) {
	q := tx.Resolve(ctx, s.db)
	return scanCapture(q.QueryRowContext(ctx, `
		SELECT `+captureColumns+` FROM biometric_captures WHERE appointment_id = $1`,
		appointmentID.String(),
	))
}

func (s *PostgresStore) FindByRequest(ctx context.Context, requestID id.RequestID) (*Capture, error) {
	q := tx.Resolve(ctx, s.db)
	return scanCapture(q.QueryRowContext(ctx, `
		SELECT `+captureColumns+` FROM biometric_captures
		WHERE request_id = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		requestID.String(),
	))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapture(row rowScanner) (*Capture, error) {
	var (
		c                              Capture
		rawID, reqID, apptID, uID, oID string
		fingerprints, docs             []byte
		iris                           sql.NullFloat64
		status                         string
	)
	err := row.Scan(&rawID, &reqID, &apptID, &uID, &oID, &fingerprints,
		&c.FaceQuality, &c.FaceRef, &iris, &c.IrisRef, &docs,
		&status, &c.ReviewNote, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan capture: %w", err)
	}
	if c.ID, err = id.ParseCaptureID(rawID); err != nil {
		return nil, err
	}
	if c.RequestID, err = id.ParseRequestID(reqID); err != nil {
		return nil, err
	}
	if c.AppointmentID, err = id.ParseAppointmentID(apptID); err != nil {
		return nil, err
	}
	if c.UserID, err = id.ParseUserID(uID); err != nil {
		return nil, err
	}
	if c.OfficerID, err = id.ParseUserID(oID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fingerprints, &c.Fingerprints); err != nil {
		return nil, fmt.Errorf("decode fingerprints: %w", err)
	}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &c.DocumentRefs); err != nil {
			return nil, fmt.Errorf("decode document refs: %w", err)
		}
	}
	if iris.Valid {
		c.IrisQuality = &iris.Float64
	}
	c.Status = VerificationStatus(status)
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var coded interface{ SQLState() string }
	return errors.As(err, &coded) && coded.SQLState() == "23505"
}
