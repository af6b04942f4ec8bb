package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	schedmetrics "civid/internal/schedule/metrics"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/requestcontext"
)

// CenterInfo is what the generator needs to know about a center: its identity
// and its weekly capacity template.
type CenterInfo struct {
	ID       id.CenterID
	Template WeeklyTemplate
}

// CenterDirectory supplies center templates to the generator. The center
// module provides the implementation; the indirection keeps schedule free of
// a center import.
type CenterDirectory interface {
	Center(ctx context.Context, centerID id.CenterID) (CenterInfo, error)
	ActiveCenters(ctx context.Context) ([]CenterInfo, error)
}

// Generator produces and refreshes month ledgers. It is safe to invoke
// repeatedly: EnsureMonth is idempotent and preserves existing reservations
// across regeneration, even when the weekly template changed.
type Generator struct {
	store   Store
	centers CenterDirectory
	logger  *slog.Logger
	metrics *schedmetrics.Metrics
}

func NewGenerator(store Store, centers CenterDirectory, logger *slog.Logger, metrics *schedmetrics.Metrics) *Generator {
	return &Generator{store: store, centers: centers, logger: logger, metrics: metrics}
}

// EnsureMonth creates or refreshes the ledger for (centerID, month).
//
// Retention runs first: ledgers strictly older than the previous calendar
// month (relative to the request clock) are pruned. The ledger write itself
// happens inside the store's atomic swap, with reservation preservation
// applied to the current ledger state, so a booking that commits before the
// swap is never dropped.
func (g *Generator) EnsureMonth(ctx context.Context, centerID id.CenterID, month id.Month) (*Ledger, error) {
	if centerID.IsNil() {
		return nil, derrors.New(derrors.CodeValidation, "center id is required")
	}
	if month.IsZero() {
		return nil, derrors.New(derrors.CodeValidation, "target month is required")
	}
	start := time.Now()
	now := requestcontext.Now(ctx)

	info, err := g.centers.Center(ctx, centerID)
	if err != nil {
		return nil, err
	}

	cutoff := id.MonthOf(now).Prev()
	pruned, err := g.store.DeleteBefore(ctx, centerID, cutoff)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "prune stale ledgers")
	}
	if pruned > 0 {
		if g.metrics != nil {
			g.metrics.LedgersPruned.Add(float64(pruned))
		}
		g.logger.InfoContext(ctx, "pruned stale schedule ledgers",
			"center_id", centerID, "cutoff", cutoff, "removed", pruned)
	}

	ledger, err := g.store.Swap(ctx, centerID, month, func(existing *Ledger) (*Ledger, error) {
		return buildLedger(info, month, existing, now), nil
	})
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "write month ledger")
	}

	if g.metrics != nil {
		g.metrics.LedgersGenerated.Inc()
		g.metrics.ObserveGeneration(start)
	}
	g.logger.InfoContext(ctx, "month ledger ensured",
		"center_id", centerID, "month", month, "days", len(ledger.Days), "reservations", ledger.ReservationCount())
	return ledger, nil
}

// buildLedger enumerates every calendar date of the month, resolves its
// template rule, and copies reservations over from the existing ledger where
// dates match. This is the preservation contract: regeneration never loses or
// double-counts bookings.
func buildLedger(info CenterInfo, month id.Month, existing *Ledger, now time.Time) *Ledger {
	ledger := &Ledger{
		CenterID:  info.ID,
		Month:     month,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil && !existing.CreatedAt.IsZero() {
		ledger.CreatedAt = existing.CreatedAt
	}

	for _, date := range month.Days() {
		day := ResolveDay(info.Template, date)
		if existing != nil {
			if prev, ok := existing.Day(date); ok {
				day.Reserved = prev.Reserved
				day.Reservations = append([]Reservation(nil), prev.Reservations...)
				if day.Reserved > day.Capacity {
					// Template shrank below existing bookings; keep them and
					// widen the day so the capacity invariant still holds.
					day.Capacity = day.Reserved
					day.Closed = false
				}
			}
		}
		ledger.Days = append(ledger.Days, day)
	}
	return ledger
}

// EnsureAll reconciles the given months for every active center. A failure
// for one center never blocks the others: errors are collected per center and
// returned together as a *BatchError.
func (g *Generator) EnsureAll(ctx context.Context, months ...id.Month) error {
	if len(months) == 0 {
		now := id.MonthOf(requestcontext.Now(ctx))
		months = []id.Month{now, now.Next()}
	}

	centers, err := g.centers.ActiveCenters(ctx)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "list active centers")
	}

	var (
		mu       sync.Mutex
		failures []CenterError
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for _, center := range centers {
		for _, month := range months {
			center, month := center, month
			group.Go(func() error {
				if _, err := g.EnsureMonth(groupCtx, center.ID, month); err != nil {
					if g.metrics != nil {
						g.metrics.ReconcileFailures.Inc()
					}
					g.logger.ErrorContext(groupCtx, "schedule reconciliation failed",
						"center_id", center.ID, "month", month, "error", err)
					mu.Lock()
					failures = append(failures, CenterError{CenterID: center.ID, Month: month, Err: err})
					mu.Unlock()
				}
				// Always nil: one center's failure must not cancel the rest.
				return nil
			})
		}
	}
	_ = group.Wait()

	if len(failures) > 0 {
		return &BatchError{Failures: failures}
	}
	return nil
}

// CenterError is one center's reconciliation failure.
type CenterError struct {
	CenterID id.CenterID
	Month    id.Month
	Err      error
}

// BatchError aggregates per-center reconciliation failures without hiding
// which centers succeeded.
type BatchError struct {
	Failures []CenterError
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schedule reconciliation failed for %d center-month pairs:", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, " [%s %s: %v]", f.CenterID, f.Month, f.Err)
	}
	return b.String()
}
