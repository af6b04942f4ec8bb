package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
	"civid/pkg/platform/tx"
)

// PostgresStore persists credentials in the credentials table. The partial
// unique index on (user_id) WHERE status = 'active' backs CreateIfNoneActive.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const credentialColumns = `id, user_id, request_id, capture_id, number, status,
	issued_at, expires_at, revoked_at, revoked_by, revoke_reason, created_at, updated_at`

func (s *PostgresStore) CreateIfNoneActive(ctx context.Context, c *Credential) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO credentials (`+credentialColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID.String(), c.UserID.String(), c.RequestID.String(), c.CaptureID.String(),
		c.Number, string(c.Status), c.IssuedAt, c.ExpiresAt,
		c.RevokedAt, revokedBy(c), c.RevokeReason, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *Credential) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE credentials
		SET status = $2, revoked_at = $3, revoked_by = $4, revoke_reason = $5, updated_at = $6
		WHERE id = $1`,
		c.ID.String(), string(c.Status), c.RevokedAt, revokedBy(c), c.RevokeReason, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential rows: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, credentialID id.CredentialID) (*Credential, error) {
	q := tx.Resolve(ctx, s.db)
	return scanCredential(q.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials WHERE id = $1`,
		credentialID.String(),
	))
}

func (s *PostgresStore) FindByNumber(ctx context.Context, number string) (*Credential, error) {
	q := tx.Resolve(ctx, s.db)
	return scanCredential(q.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials WHERE number = $1`,
		number,
	))
}

func (s *PostgresStore) FindActiveByUser(ctx context.Context, userID id.UserID) (*Credential, error) {
	q := tx.Resolve(ctx, s.db)
	return scanCredential(q.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials
		WHERE user_id = $1 AND status = 'active'`,
		userID.String(),
	))
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*Credential, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials
		WHERE user_id = $1
		ORDER BY issued_at DESC`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*Credential, error) {
	var (
		c                         Credential
		rawID, userID, reqID, capID string
		status                      string
		revokedAt                   sql.NullTime
		revoked                     uuid.NullUUID
	)
	err := row.Scan(&rawID, &userID, &reqID, &capID, &c.Number, &status,
		&c.IssuedAt, &c.ExpiresAt, &revokedAt, &revoked, &c.RevokeReason,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	if c.ID, err = id.ParseCredentialID(rawID); err != nil {
		return nil, err
	}
	if c.UserID, err = id.ParseUserID(userID); err != nil {
		return nil, err
	}
	if c.RequestID, err = id.ParseRequestID(reqID); err != nil {
		return nil, err
	}
	if c.CaptureID, err = id.ParseCaptureID(capID); err != nil {
		return nil, err
	}
	c.Status = Status(status)
	if revokedAt.Valid {
		t := revokedAt.Time
		c.RevokedAt = &t
	}
	if revoked.Valid {
		by := id.UserID(revoked.UUID)
		c.RevokedBy = &by
	}
	return &c, nil
}

func revokedBy(c *Credential) uuid.NullUUID {
	if c.RevokedBy == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*c.RevokedBy), Valid: true}
}

func isUniqueViolation(err error) bool {
	var coded interface{ SQLState() string }
	return errors.As(err, &coded) && coded.SQLState() == "23505"
}
