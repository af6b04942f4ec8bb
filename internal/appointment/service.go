package appointment

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"civid/internal/appointment/metrics"
	"civid/internal/audit"
	"civid/internal/authz"
	"civid/internal/notify"
	"civid/internal/request"
	"civid/internal/schedule"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/sentinel"
	"civid/pkg/platform/tx"
	"civid/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RequestDirectory,SlotLedger

var tracer = otel.Tracer("civid/appointment")

// RequestDirectory is the slice of the request service the binder drives.
type RequestDirectory interface {
	ActiveForUser(ctx context.Context, userID id.UserID) (*request.IdentityRequest, error)
	BindAppointment(ctx context.Context, requestID id.RequestID, appointmentID id.AppointmentID) (*request.IdentityRequest, error)
	UnbindAppointment(ctx context.Context, requestID id.RequestID) (*request.IdentityRequest, error)
	CompleteProcessing(ctx context.Context, requestID id.RequestID) (*request.IdentityRequest, error)
}

// SlotLedger is the capacity surface the binder reserves against.
type SlotLedger interface {
	AvailableSlots(ctx context.Context, centerID id.CenterID, date time.Time) (schedule.Availability, error)
	Reserve(ctx context.Context, centerID id.CenterID, date time.Time, res schedule.Reservation) error
	Release(ctx context.Context, centerID id.CenterID, date time.Time, appointmentID id.AppointmentID) error
}

// Service is the appointment binder: the only writer that joins the request
// lifecycle to the slot ledger. Book is its critical section; everything else
// is bookkeeping around the appointment's own small state machine.
type Service struct {
	store    Store
	requests RequestDirectory
	slots    SlotLedger
	auditor  audit.Publisher
	notifier notify.Notifier
	authz    authz.Authorizer
	db       *sql.DB
	logger   *slog.Logger
}

func NewService(store Store, requests RequestDirectory, slots SlotLedger, auditor audit.Publisher, notifier notify.Notifier, authorizer authz.Authorizer, db *sql.DB, logger *slog.Logger) *Service {
	if auditor == nil {
		auditor = audit.NopPublisher{}
	}
	return &Service{
		store:    store,
		requests: requests,
		slots:    slots,
		auditor:  auditor,
		notifier: notifier,
		authz:    authorizer,
		db:       db,
		logger:   logger,
	}
}

// BookParams carries officer input for a booking.
type BookParams struct {
	UserID   id.UserID
	CenterID id.CenterID
	Date     time.Time
	Slot     string
	Notes    string
}

// Book reserves a slot and creates the appointment, moving the user's request
// from awaiting_appointment to processing. Preconditions are checked in a
// fixed order so callers see stable error codes: request state first, then
// capacity, then officer authorization. The reserve/create/bind sequence runs
// in one transaction; on a SQL-less deployment the explicit compensation path
// releases the slot and deletes the appointment instead.
func (s *Service) Book(ctx context.Context, params BookParams) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.Book", trace.WithAttributes(
		attribute.String("center_id", params.CenterID.String()),
		attribute.String("user_id", params.UserID.String()),
	))
	defer span.End()

	start := time.Now()
	appt, err := s.book(ctx, params)
	metrics.BookingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if derrors.HasCode(err, derrors.CodeConflict) {
			metrics.BookingsTotal.WithLabelValues("conflict").Inc()
		} else {
			metrics.BookingsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	metrics.BookingsTotal.WithLabelValues("booked").Inc()
	span.SetAttributes(attribute.String("appointment_id", appt.ID.String()))

	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindAppointmentBooked,
		Actor:     appt.OfficerID,
		Subject:   appt.UserID,
		RequestID: appt.RequestID.String(),
		Metadata: map[string]string{
			"center_id": appt.CenterID.String(),
			"date":      appt.Date.Format("2006-01-02"),
			"slot":      appt.Slot,
		},
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, appt.UserID, notify.Event{
			Kind: notify.EventAppointmentBooked,
			Data: map[string]string{
				"date": appt.Date.Format("2006-01-02"),
				"slot": appt.Slot,
			},
		})
	}
	s.logger.InfoContext(ctx, "appointment booked",
		"appointment_id", appt.ID, "request_id", appt.RequestID,
		"center_id", appt.CenterID, "date", appt.Date.Format("2006-01-02"), "slot", appt.Slot)
	return appt, nil
}

func (s *Service) book(ctx context.Context, params BookParams) (*Appointment, error) {
	if params.UserID.IsNil() {
		return nil, derrors.New(derrors.CodeValidation, "user id is required")
	}
	if params.CenterID.IsNil() {
		return nil, derrors.New(derrors.CodeValidation, "center id is required")
	}
	if params.Date.IsZero() {
		return nil, derrors.New(derrors.CodeValidation, "date is required")
	}
	if params.Slot == "" {
		return nil, derrors.New(derrors.CodeValidation, "slot is required")
	}

	req, err := s.requests.ActiveForUser(ctx, params.UserID)
	if err != nil {
		if derrors.HasCode(err, derrors.CodeNotFound) {
			return nil, derrors.New(derrors.CodeConflict, "user has no active identity request")
		}
		return nil, err
	}
	if req.Status != request.StatusAwaitingAppointment {
		return nil, derrors.Newf(derrors.CodeConflict, "request is %s, not awaiting an appointment", req.Status)
	}

	avail, err := s.slots.AvailableSlots(ctx, params.CenterID, params.Date)
	if err != nil {
		return nil, err
	}
	if !avail.Bookable() {
		metrics.SlotConflicts.Inc()
		if avail.Closed() {
			return nil, derrors.New(derrors.CodeConflict, "center is closed on this day")
		}
		return nil, derrors.New(derrors.CodeConflict, "no remaining slots on this day")
	}

	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}
	officer := requestcontext.ActorID(ctx)

	now := requestcontext.Now(ctx)
	appt := &Appointment{
		ID:        id.NewAppointmentID(),
		UserID:    params.UserID,
		OfficerID: officer,
		RequestID: req.ID,
		CenterID:  params.CenterID,
		Date:      params.Date,
		Slot:      params.Slot,
		Status:    StatusScheduled,
		Notes:     params.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = tx.Run(ctx, s.db, func(ctx context.Context) error {
		if err := s.slots.Reserve(ctx, params.CenterID, params.Date, schedule.Reservation{
			Slot:          params.Slot,
			AppointmentID: appt.ID,
			UserID:        params.UserID,
		}); err != nil {
			return err
		}
		if err := s.store.Create(ctx, appt); err != nil {
			s.compensate(ctx, appt, false)
			return derrors.Wrap(err, derrors.CodeInternal, "create appointment")
		}
		if _, err := s.requests.BindAppointment(ctx, req.ID, appt.ID); err != nil {
			s.compensate(ctx, appt, true)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// compensate undoes a partial booking on memory-backed deployments, where no
// SQL rollback covers the earlier steps. When s.db is set the surrounding
// transaction rolls everything back and this is a no-op. A compensation
// failure is a consistency fault worth paging on.
func (s *Service) compensate(ctx context.Context, appt *Appointment, deleteAppointment bool) {
	if s.db != nil {
		return
	}
	if err := s.slots.Release(ctx, appt.CenterID, appt.Date, appt.ID); err != nil {
		s.logger.ErrorContext(ctx, "booking compensation failed to release slot",
			"appointment_id", appt.ID, "center_id", appt.CenterID, "error", err)
	}
	if deleteAppointment {
		if err := s.store.Delete(ctx, appt.ID); err != nil {
			s.logger.ErrorContext(ctx, "booking compensation failed to delete appointment",
				"appointment_id", appt.ID, "error", err)
		}
	}
}

// Complete marks the appointment done after capture and advances the request
// to completed.
func (s *Service) Complete(ctx context.Context, appointmentID id.AppointmentID) (*Appointment, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}
	appt, err := s.transition(ctx, appointmentID, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if _, err := s.requests.CompleteProcessing(ctx, appt.RequestID); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeConsistency, "appointment completed but request did not advance")
	}
	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindAppointmentCompleted,
		Actor:     requestcontext.ActorID(ctx),
		Subject:   appt.UserID,
		RequestID: appt.RequestID.String(),
	})
	return appt, nil
}

// Cancel releases the slot and returns the request to awaiting_appointment so
// the user can be rebooked.
func (s *Service) Cancel(ctx context.Context, appointmentID id.AppointmentID) (*Appointment, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}
	appt, err := s.transition(ctx, appointmentID, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if err := s.slots.Release(ctx, appt.CenterID, appt.Date, appt.ID); err != nil {
		// The cancellation already committed; a stuck reservation only wastes
		// one slot until the next ledger regeneration.
		s.logger.ErrorContext(ctx, "cancelled appointment kept its slot",
			"appointment_id", appt.ID, "center_id", appt.CenterID, "error", err)
	}
	if _, err := s.requests.UnbindAppointment(ctx, appt.RequestID); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeConsistency, "appointment cancelled but request did not rewind")
	}
	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindAppointmentCancelled,
		Actor:     requestcontext.ActorID(ctx),
		Subject:   appt.UserID,
		RequestID: appt.RequestID.String(),
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, appt.UserID, notify.Event{
			Kind: notify.EventAppointmentCancelled,
			Data: map[string]string{"date": appt.Date.Format("2006-01-02")},
		})
	}
	return appt, nil
}

// Miss records a no-show. The slot is not released: the day is already past,
// and pruning will retire the ledger. The request rewinds for rebooking.
func (s *Service) Miss(ctx context.Context, appointmentID id.AppointmentID) (*Appointment, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}
	appt, err := s.transition(ctx, appointmentID, StatusMissed)
	if err != nil {
		return nil, err
	}
	if _, err := s.requests.UnbindAppointment(ctx, appt.RequestID); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeConsistency, "appointment missed but request did not rewind")
	}
	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindAppointmentMissed,
		Actor:     requestcontext.ActorID(ctx),
		Subject:   appt.UserID,
		RequestID: appt.RequestID.String(),
	})
	return appt, nil
}

// Get returns the appointment by id.
func (s *Service) Get(ctx context.Context, appointmentID id.AppointmentID) (*Appointment, error) {
	appt, err := s.store.FindByID(ctx, appointmentID)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "appointment not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "find appointment")
	}
	return appt, nil
}

// ForRequest returns the latest appointment linked to the request.
func (s *Service) ForRequest(ctx context.Context, requestID id.RequestID) (*Appointment, error) {
	appt, err := s.store.FindByRequest(ctx, requestID)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "no appointment for this request")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "find appointment")
	}
	return appt, nil
}

// ListByCenterDate returns a center's appointments for one date, for the
// officer day sheet.
func (s *Service) ListByCenterDate(ctx context.Context, centerID id.CenterID, date string) ([]*Appointment, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}
	appts, err := s.store.ListByCenterDate(ctx, centerID, date)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list appointments")
	}
	return appts, nil
}

func (s *Service) transition(ctx context.Context, appointmentID id.AppointmentID, target Status) (*Appointment, error) {
	appt, err := s.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := appt.Transition(target, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, appt); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "update appointment")
	}
	return appt, nil
}
