package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
	pkgtx "civid/pkg/platform/tx"
)

// PostgresStore persists identity requests. A partial unique index on
// (user_id) WHERE status <> 'rejected' makes the one-active-request-per-user
// invariant a database constraint, so CreateIfNoneActive is a single insert.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed request store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, user_id, first_name, last_name, date_of_birth, address,
	window_from, window_to, cost_dinars, status,
	decision_approved, decision_comment, decision_by, decision_at,
	appointment_id, created_at, updated_at`

func (s *PostgresStore) CreateIfNoneActive(ctx context.Context, r *IdentityRequest) error {
	q := pkgtx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO identity_requests (`+requestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		requestArgs(r)...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert identity request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, r *IdentityRequest) error {
	q := pkgtx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`UPDATE identity_requests SET
		   status = $2, decision_approved = $3, decision_comment = $4,
		   decision_by = $5, decision_at = $6, appointment_id = $7, updated_at = $8
		 WHERE id = $1`,
		uuid.UUID(r.ID), string(r.Status),
		decisionApproved(r), decisionComment(r), decisionBy(r), decisionAt(r),
		appointmentID(r), r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update identity request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update identity request rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*IdentityRequest, error) {
	q := pkgtx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM identity_requests WHERE id = $1`,
		uuid.UUID(requestID),
	)
	r, err := scanRequest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) FindActiveByUser(ctx context.Context, userID id.UserID) (*IdentityRequest, error) {
	q := pkgtx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM identity_requests
		 WHERE user_id = $1 AND status <> 'rejected'`,
		uuid.UUID(userID),
	)
	r, err := scanRequest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]*IdentityRequest, error) {
	q := pkgtx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM identity_requests
		 WHERE status = $1 ORDER BY created_at`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list identity requests: %w", err)
	}
	defer rows.Close()

	var out []*IdentityRequest
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity requests: %w", err)
	}
	return out, nil
}

func requestArgs(r *IdentityRequest) []any {
	return []any{
		uuid.UUID(r.ID), uuid.UUID(r.UserID), r.FirstName, r.LastName, r.DateOfBirth, r.Address,
		r.WindowFrom, r.WindowTo, r.CostDinars, string(r.Status),
		decisionApproved(r), decisionComment(r), decisionBy(r), decisionAt(r),
		appointmentID(r), r.CreatedAt, r.UpdatedAt,
	}
}

func scanRequest(scan func(...any) error) (*IdentityRequest, error) {
	var (
		r          IdentityRequest
		rawID      uuid.UUID
		rawUser    uuid.UUID
		status     string
		dApproved  sql.NullBool
		dComment   sql.NullString
		dBy        uuid.NullUUID
		dAt        sql.NullTime
		apptID     uuid.NullUUID
	)
	err := scan(&rawID, &rawUser, &r.FirstName, &r.LastName, &r.DateOfBirth, &r.Address,
		&r.WindowFrom, &r.WindowTo, &r.CostDinars, &status,
		&dApproved, &dComment, &dBy, &dAt, &apptID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = id.RequestID(rawID)
	r.UserID = id.UserID(rawUser)
	r.Status = Status(status)
	if dAt.Valid {
		r.Decision = &Decision{
			Approved:  dApproved.Bool,
			Comment:   dComment.String,
			DecidedBy: id.UserID(dBy.UUID),
			DecidedAt: dAt.Time,
		}
	}
	if apptID.Valid {
		a := id.AppointmentID(apptID.UUID)
		r.AppointmentID = &a
	}
	return &r, nil
}

func decisionApproved(r *IdentityRequest) sql.NullBool {
	if r.Decision == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: r.Decision.Approved, Valid: true}
}

func decisionComment(r *IdentityRequest) sql.NullString {
	if r.Decision == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: r.Decision.Comment, Valid: true}
}

func decisionBy(r *IdentityRequest) uuid.NullUUID {
	if r.Decision == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(r.Decision.DecidedBy), Valid: true}
}

func decisionAt(r *IdentityRequest) sql.NullTime {
	if r.Decision == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: r.Decision.DecidedAt, Valid: true}
}

func appointmentID(r *IdentityRequest) uuid.NullUUID {
	if r.AppointmentID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*r.AppointmentID), Valid: true}
}

func isUniqueViolation(err error) bool {
	// pgx surfaces postgres errors with SQLSTATE in the message; 23505 is
	// unique_violation. Matching the code avoids importing pgconn here.
	var t interface{ SQLState() string }
	if errors.As(err, &t) {
		return t.SQLState() == "23505"
	}
	return false
}
