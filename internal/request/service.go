package request

import (
	"context"
	"log/slog"
	"time"

	"civid/internal/audit"
	"civid/internal/authz"
	"civid/internal/notify"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/sentinel"
	"civid/pkg/requestcontext"
)

// Service orchestrates the identity request lifecycle: submission, officer
// decision, and the guarded transitions driven by appointment progress.
type Service struct {
	requests Store
	auditor  audit.Publisher
	notifier notify.Notifier
	authz    authz.Authorizer
	logger   *slog.Logger
}

func NewService(requests Store, auditor audit.Publisher, notifier notify.Notifier, authorizer authz.Authorizer, logger *slog.Logger) *Service {
	if auditor == nil {
		auditor = audit.NopPublisher{}
	}
	return &Service{requests: requests, auditor: auditor, notifier: notifier, authz: authorizer, logger: logger}
}

// SubmitParams carries citizen input for a new request.
type SubmitParams struct {
	UserID      id.UserID
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Address     string
	WindowFrom  time.Time
	WindowTo    time.Time
}

// Submit files a new pending request. A user holding any active request
// (anything not rejected) is refused with a conflict.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (*IdentityRequest, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleCitizen); err != nil {
		return nil, err
	}
	if params.UserID.IsNil() {
		return nil, derrors.New(derrors.CodeValidation, "user id is required")
	}

	now := requestcontext.Now(ctx)
	r, err := New(id.NewRequestID(), params.UserID, params.FirstName, params.LastName,
		params.DateOfBirth, params.Address, params.WindowFrom, params.WindowTo, now)
	if err != nil {
		return nil, err
	}

	if err := s.requests.CreateIfNoneActive(ctx, r); err != nil {
		if derrors.Is(err, sentinel.ErrConflict) {
			return nil, derrors.New(derrors.CodeConflict, "user already holds an active identity request")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "create identity request")
	}

	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindRequestSubmitted,
		Actor:     params.UserID,
		Subject:   params.UserID,
		RequestID: r.ID.String(),
	})
	s.logger.InfoContext(ctx, "identity request submitted", "request_id", r.ID, "user_id", params.UserID)
	return r, nil
}

// Decide records the officer verdict on a pending request. Approval advances
// to awaiting_appointment automatically; rejection is terminal.
func (s *Service) Decide(ctx context.Context, requestID id.RequestID, approve bool, comment string) (*IdentityRequest, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}

	r, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	officer := requestcontext.ActorID(ctx)
	now := requestcontext.Now(ctx)
	if err := r.ApplyDecision(approve, comment, officer, now); err != nil {
		return nil, err
	}
	if err := s.requests.Update(ctx, r); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "persist request decision")
	}

	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindRequestDecided,
		Actor:     officer,
		Subject:   r.UserID,
		RequestID: r.ID.String(),
		Metadata:  map[string]string{"approved": boolString(approve)},
	})

	kind := notify.EventRequestRejected
	if approve {
		kind = notify.EventRequestApproved
	}
	s.notifier.Notify(ctx, r.UserID, notify.Event{Kind: kind, Data: map[string]string{"request_id": r.ID.String()}})

	s.logger.InfoContext(ctx, "identity request decided",
		"request_id", r.ID, "approved", approve, "officer_id", officer)
	return r, nil
}

// Transition is the generic guarded state move exposed to the transport
// layer. Every move still goes through the transitions table; anything the
// table refuses surfaces as a conflict.
func (s *Service) Transition(ctx context.Context, requestID id.RequestID, target Status, actor id.UserID) (*IdentityRequest, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}

	r, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := r.Transition(target, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.requests.Update(ctx, r); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "persist request transition")
	}

	s.logger.InfoContext(ctx, "identity request transitioned",
		"request_id", r.ID, "status", r.Status, "actor_id", actor)
	return r, nil
}

// Get returns one request.
func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*IdentityRequest, error) {
	if requestID.IsNil() {
		return nil, derrors.New(derrors.CodeValidation, "request id is required")
	}
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "identity request not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "load identity request")
	}
	return r, nil
}

// ActiveForUser returns the user's active request, or a not_found error when
// every prior request was rejected (or none exists).
func (s *Service) ActiveForUser(ctx context.Context, userID id.UserID) (*IdentityRequest, error) {
	if userID.IsNil() {
		return nil, derrors.New(derrors.CodeValidation, "user id is required")
	}
	r, err := s.requests.FindActiveByUser(ctx, userID)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "user has no active identity request")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "load active identity request")
	}
	return r, nil
}

// ListByStatus returns requests in a given state, oldest first.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*IdentityRequest, error) {
	if !status.Valid() {
		return nil, derrors.Newf(derrors.CodeValidation, "unknown request status %q", status)
	}
	out, err := s.requests.ListByStatus(ctx, status)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list identity requests")
	}
	return out, nil
}

// BindAppointment moves an awaiting_appointment request to processing and
// links the appointment. Called by the appointment binder inside its atomic
// booking sequence.
func (s *Service) BindAppointment(ctx context.Context, requestID id.RequestID, appointmentID id.AppointmentID) (*IdentityRequest, error) {
	r, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := r.LinkAppointment(appointmentID, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.requests.Update(ctx, r); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "persist appointment link")
	}
	return r, nil
}

// UnbindAppointment returns a processing request to awaiting_appointment
// after a cancellation or no-show, clearing the appointment link.
func (s *Service) UnbindAppointment(ctx context.Context, requestID id.RequestID) (*IdentityRequest, error) {
	r, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := r.UnlinkAppointment(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.requests.Update(ctx, r); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "persist appointment unlink")
	}
	return r, nil
}

// CompleteProcessing moves a processing request to completed once its
// appointment (and biometric capture) finished.
func (s *Service) CompleteProcessing(ctx context.Context, requestID id.RequestID) (*IdentityRequest, error) {
	r, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := r.Transition(StatusCompleted, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.requests.Update(ctx, r); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "persist request completion")
	}
	return r, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
