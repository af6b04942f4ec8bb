package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
	pkgtx "civid/pkg/platform/tx"
)

// PostgresStore persists ledgers as one row per (center, month) plus one row
// per day. The day-row primary key makes the single-ledger-per-month
// invariant structural, and Reserve's guarded UPDATE makes the capacity
// check-and-increment a single atomically-evaluated statement.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ledger(ctx context.Context, centerID id.CenterID, month id.Month) (*Ledger, error) {
	q := pkgtx.Resolve(ctx, s.db)
	return s.loadLedger(ctx, q, centerID, month)
}

func (s *PostgresStore) loadLedger(ctx context.Context, q pkgtx.Querier, centerID id.CenterID, month id.Month) (*Ledger, error) {
	ledger := &Ledger{CenterID: centerID, Month: month}
	err := q.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM schedule_ledgers WHERE center_id = $1 AND month = $2`,
		uuid.UUID(centerID), month.String(),
	).Scan(&ledger.CreatedAt, &ledger.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT day, capacity, opens, closes, closed, reserved, reservations
		 FROM schedule_days
		 WHERE center_id = $1 AND month = $2
		 ORDER BY day`,
		uuid.UUID(centerID), month.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("load ledger days: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day     DayEntry
			details []byte
		)
		if err := rows.Scan(&day.Date, &day.Capacity, &day.Opens, &day.Closes, &day.Closed, &day.Reserved, &details); err != nil {
			return nil, fmt.Errorf("scan ledger day: %w", err)
		}
		if err := json.Unmarshal(details, &day.Reservations); err != nil {
			return nil, fmt.Errorf("decode reservations: %w", err)
		}
		ledger.Days = append(ledger.Days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger days: %w", err)
	}
	return ledger, nil
}

func (s *PostgresStore) Swap(ctx context.Context, centerID id.CenterID, month id.Month, build func(existing *Ledger) (*Ledger, error)) (*Ledger, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin swap: %w", err)
	}
	defer tx.Rollback()

	// Take the exclusive ledger-row lock. Reserve and Release hold the same
	// row FOR SHARE across their updates, so once this lock is granted no
	// mutation is in flight and the builder sees every committed reservation.
	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT true FROM schedule_ledgers WHERE center_id = $1 AND month = $2 FOR UPDATE`,
		uuid.UUID(centerID), month.String(),
	).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock ledger: %w", err)
	}

	var existing *Ledger
	if exists {
		existing, err = s.loadLedger(ctx, tx, centerID, month)
		if err != nil {
			return nil, err
		}
	}

	replacement, err := build(existing)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schedule_ledgers (center_id, month, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (center_id, month)
		 DO UPDATE SET updated_at = EXCLUDED.updated_at`,
		uuid.UUID(centerID), month.String(), replacement.CreatedAt, replacement.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert ledger: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedule_days WHERE center_id = $1 AND month = $2`,
		uuid.UUID(centerID), month.String(),
	); err != nil {
		return nil, fmt.Errorf("clear ledger days: %w", err)
	}

	for i := range replacement.Days {
		day := &replacement.Days[i]
		details, err := json.Marshal(reservationsOrEmpty(day.Reservations))
		if err != nil {
			return nil, fmt.Errorf("encode reservations: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_days
			   (center_id, month, day, capacity, opens, closes, closed, reserved, reservations)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.UUID(centerID), month.String(), day.Date, day.Capacity, day.Opens, day.Closes, day.Closed, day.Reserved, details,
		); err != nil {
			return nil, fmt.Errorf("insert ledger day: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit swap: %w", err)
	}
	return replacement, nil
}

func (s *PostgresStore) DeleteBefore(ctx context.Context, centerID id.CenterID, cutoff id.Month) (int, error) {
	q := pkgtx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`DELETE FROM schedule_ledgers WHERE center_id = $1 AND month < $2`,
		uuid.UUID(centerID), cutoff.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune ledgers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune ledgers rows: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) Day(ctx context.Context, centerID id.CenterID, date time.Time) (DayEntry, error) {
	q := pkgtx.Resolve(ctx, s.db)
	var (
		day     DayEntry
		details []byte
	)
	err := q.QueryRowContext(ctx,
		`SELECT day, capacity, opens, closes, closed, reserved, reservations
		 FROM schedule_days WHERE center_id = $1 AND day = $2`,
		uuid.UUID(centerID), dateOnly(date),
	).Scan(&day.Date, &day.Capacity, &day.Opens, &day.Closes, &day.Closed, &day.Reserved, &details)
	if errors.Is(err, sql.ErrNoRows) {
		return DayEntry{}, sentinel.ErrNotFound
	}
	if err != nil {
		return DayEntry{}, fmt.Errorf("load day entry: %w", err)
	}
	if err := json.Unmarshal(details, &day.Reservations); err != nil {
		return DayEntry{}, fmt.Errorf("decode reservations: %w", err)
	}
	return day, nil
}

// lockLedgerShared takes a share lock on the ledger row owning the day. Swap
// rebuilds the month under an exclusive lock on that same row, so a mutation
// holding the share lock excludes an in-flight rebuild from snapshotting the
// days mid-change, and a mutation arriving during a rebuild waits for the
// replacement rows.
func lockLedgerShared(ctx context.Context, q pkgtx.Querier, centerID id.CenterID, month id.Month) error {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM schedule_ledgers WHERE center_id = $1 AND month = $2 FOR SHARE`,
		uuid.UUID(centerID), month.String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock ledger: %w", err)
	}
	return nil
}

func (s *PostgresStore) Reserve(ctx context.Context, centerID id.CenterID, date time.Time, res Reservation) error {
	detail, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode reservation: %w", err)
	}

	// The lock and the increment must share one transaction; Run joins the
	// booking transaction when the context carries one.
	return pkgtx.Run(ctx, s.db, func(ctx context.Context) error {
		q := pkgtx.Resolve(ctx, s.db)
		if err := lockLedgerShared(ctx, q, centerID, id.MonthOf(date)); err != nil {
			return err
		}

		// The WHERE guard makes the capacity check and increment one atomic
		// statement: the row version that passes the guard is the one updated.
		result, err := q.ExecContext(ctx,
			`UPDATE schedule_days
			 SET reserved = reserved + 1,
			     reservations = reservations || $3::jsonb
			 WHERE center_id = $1 AND day = $2 AND NOT closed AND reserved < capacity`,
			uuid.UUID(centerID), dateOnly(date), detail,
		)
		if err != nil {
			return fmt.Errorf("reserve slot: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("reserve slot rows: %w", err)
		}
		if affected == 1 {
			return nil
		}

		// Guard refused: distinguish missing day, closed day, and full day.
		day, err := s.Day(ctx, centerID, date)
		if err != nil {
			return err
		}
		if day.Closed {
			return sentinel.ErrDayClosed
		}
		return sentinel.ErrCapacityExhausted
	})
}

func (s *PostgresStore) Release(ctx context.Context, centerID id.CenterID, date time.Time, appointmentID id.AppointmentID) error {
	return pkgtx.Run(ctx, s.db, func(ctx context.Context) error {
		q := pkgtx.Resolve(ctx, s.db)
		if err := lockLedgerShared(ctx, q, centerID, id.MonthOf(date)); err != nil {
			return err
		}

		result, err := q.ExecContext(ctx,
			`UPDATE schedule_days
			 SET reserved = reserved - 1,
			     reservations = (
			       SELECT COALESCE(jsonb_agg(e), '[]'::jsonb)
			       FROM jsonb_array_elements(reservations) e
			       WHERE e->>'appointment_id' <> $3
			     )
			 WHERE center_id = $1 AND day = $2
			   AND reservations @> jsonb_build_array(jsonb_build_object('appointment_id', $3::text))`,
			uuid.UUID(centerID), dateOnly(date), appointmentID.String(),
		)
		if err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("release slot rows: %w", err)
		}
		if affected == 0 {
			return sentinel.ErrNotFound
		}
		return nil
	})
}

func reservationsOrEmpty(r []Reservation) []Reservation {
	if r == nil {
		return []Reservation{}
	}
	return r
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
