package center

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"civid/internal/schedule"
	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
	pkgtx "civid/pkg/platform/tx"
)

// PostgresStore persists centers in PostgreSQL. The weekly template is kept
// as JSONB; it is read whole on every generation pass, never queried into.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed center store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, c *Center) error {
	q := pkgtx.Resolve(ctx, s.db)
	template, err := encodeTemplate(c.Template)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO centers (id, name, address, region, template, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(c.ID), c.Name, c.Address, c.Region, template, string(c.Status), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert center: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *Center) error {
	q := pkgtx.Resolve(ctx, s.db)
	template, err := encodeTemplate(c.Template)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx,
		`UPDATE centers
		 SET name = $2, address = $3, region = $4, template = $5, status = $6, updated_at = $7
		 WHERE id = $1`,
		uuid.UUID(c.ID), c.Name, c.Address, c.Region, template, string(c.Status), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update center: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update center rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, centerID id.CenterID) (*Center, error) {
	q := pkgtx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx,
		`SELECT id, name, address, region, template, status, created_at, updated_at
		 FROM centers WHERE id = $1`,
		uuid.UUID(centerID),
	)
	c, err := scanCenter(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return c, err
}

func (s *PostgresStore) List(ctx context.Context) ([]*Center, error) {
	return s.list(ctx, `SELECT id, name, address, region, template, status, created_at, updated_at
		 FROM centers ORDER BY name`)
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*Center, error) {
	return s.list(ctx, `SELECT id, name, address, region, template, status, created_at, updated_at
		 FROM centers WHERE status = 'active' ORDER BY name`)
}

func (s *PostgresStore) list(ctx context.Context, query string) ([]*Center, error) {
	q := pkgtx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list centers: %w", err)
	}
	defer rows.Close()

	var out []*Center
	for rows.Next() {
		c, err := scanCenter(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate centers: %w", err)
	}
	return out, nil
}

func scanCenter(scan func(...any) error) (*Center, error) {
	var (
		c        Center
		rawID    uuid.UUID
		template []byte
		status   string
	)
	if err := scan(&rawID, &c.Name, &c.Address, &c.Region, &template, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = id.CenterID(rawID)
	c.Status = Status(status)
	c.Template = schedule.WeeklyTemplate{}
	if err := json.Unmarshal(template, &c.Template); err != nil {
		return nil, fmt.Errorf("decode center template: %w", err)
	}
	return &c, nil
}

func encodeTemplate(t schedule.WeeklyTemplate) ([]byte, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode center template: %w", err)
	}
	return b, nil
}
