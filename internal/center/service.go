package center

import (
	"context"
	"log/slog"

	"civid/internal/authz"
	"civid/internal/schedule"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/sentinel"
	"civid/pkg/requestcontext"
)

// Scheduler is the slice of the schedule generator the center service needs:
// ledgers must exist as soon as a center is created or its template changes.
type Scheduler interface {
	EnsureMonth(ctx context.Context, centerID id.CenterID, month id.Month) (*schedule.Ledger, error)
}

// Service orchestrates center lifecycle management. Creating a center and
// changing its template immediately ensure the current and next month's
// ledgers so bookings never race an absent schedule.
type Service struct {
	centers   Store
	scheduler Scheduler
	authz     authz.Authorizer
	logger    *slog.Logger
}

func NewService(centers Store, scheduler Scheduler, authorizer authz.Authorizer, logger *slog.Logger) *Service {
	return &Service{centers: centers, scheduler: scheduler, authz: authorizer, logger: logger}
}

// CreateParams carries officer input for a new center.
type CreateParams struct {
	Name     string
	Address  string
	Region   string
	Template schedule.WeeklyTemplate
}

// Create registers a center and seeds its ledgers. Ledger seeding failures
// are logged, not fatal: the periodic reconcile job repairs them.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Center, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	c, err := New(id.NewCenterID(), params.Name, params.Address, params.Region, params.Template, now)
	if err != nil {
		return nil, err
	}
	if err := s.centers.Create(ctx, c); err != nil {
		if derrors.Is(err, sentinel.ErrConflict) {
			return nil, derrors.New(derrors.CodeConflict, "center already exists")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "create center")
	}

	s.seedLedgers(ctx, c.ID)

	s.logger.InfoContext(ctx, "center created", "center_id", c.ID, "name", c.Name)
	return c, nil
}

// Get returns one center.
func (s *Service) Get(ctx context.Context, centerID id.CenterID) (*Center, error) {
	if centerID.IsNil() {
		return nil, derrors.New(derrors.CodeValidation, "center id is required")
	}
	c, err := s.centers.FindByID(ctx, centerID)
	if err != nil {
		return nil, translateNotFound(err, "center not found")
	}
	return c, nil
}

// List returns all centers.
func (s *Service) List(ctx context.Context) ([]*Center, error) {
	centers, err := s.centers.List(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list centers")
	}
	return centers, nil
}

// UpdateTemplate replaces a center's weekly template and regenerates the
// affected ledgers. Existing reservations survive regeneration.
func (s *Service) UpdateTemplate(ctx context.Context, centerID id.CenterID, template schedule.WeeklyTemplate) (*Center, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, centerID)
	if err != nil {
		return nil, err
	}
	if err := c.SetTemplate(template, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.centers.Update(ctx, c); err != nil {
		return nil, translateNotFound(err, "center not found")
	}

	s.seedLedgers(ctx, c.ID)

	s.logger.InfoContext(ctx, "center template updated", "center_id", c.ID)
	return c, nil
}

// SetStatus transitions the center's operational status.
func (s *Service) SetStatus(ctx context.Context, centerID id.CenterID, target Status) (*Center, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, centerID)
	if err != nil {
		return nil, err
	}
	if err := c.SetStatus(target, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.centers.Update(ctx, c); err != nil {
		return nil, translateNotFound(err, "center not found")
	}

	s.logger.InfoContext(ctx, "center status changed", "center_id", c.ID, "status", c.Status)
	return c, nil
}

func (s *Service) seedLedgers(ctx context.Context, centerID id.CenterID) {
	if s.scheduler == nil {
		return
	}
	month := id.MonthOf(requestcontext.Now(ctx))
	for _, m := range []id.Month{month, month.Next()} {
		if _, err := s.scheduler.EnsureMonth(ctx, centerID, m); err != nil {
			s.logger.ErrorContext(ctx, "ledger seeding failed",
				"center_id", centerID, "month", m, "error", err)
		}
	}
}

func translateNotFound(err error, msg string) error {
	if derrors.Is(err, sentinel.ErrNotFound) {
		return derrors.New(derrors.CodeNotFound, msg)
	}
	return derrors.Wrap(err, derrors.CodeInternal, msg)
}
