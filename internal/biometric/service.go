package biometric

import (
	"context"
	"log/slog"

	"civid/internal/appointment"
	"civid/internal/audit"
	"civid/internal/authz"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/sentinel"
	"civid/pkg/requestcontext"
)

// AppointmentDirectory is the slice of the appointment binder the capture
// flow drives: look up the session, then complete it once the record lands.
type AppointmentDirectory interface {
	Get(ctx context.Context, appointmentID id.AppointmentID) (*appointment.Appointment, error)
	Complete(ctx context.Context, appointmentID id.AppointmentID) (*appointment.Appointment, error)
}

// ArtifactStore discards staged biometric artifacts when the record fails to
// persist, so raw images never outlive their database row.
type ArtifactStore interface {
	Discard(ctx context.Context, refs ...string)
}

// Service runs the capture workflow at the enrollment desk.
type Service struct {
	captures     Store
	appointments AppointmentDirectory
	artifacts    ArtifactStore
	auditor      audit.Publisher
	authz        authz.Authorizer
	policy       Policy
	logger       *slog.Logger
}

func NewService(captures Store, appointments AppointmentDirectory, artifacts ArtifactStore, auditor audit.Publisher, authorizer authz.Authorizer, policy Policy, logger *slog.Logger) *Service {
	if auditor == nil {
		auditor = audit.NopPublisher{}
	}
	return &Service{
		captures:     captures,
		appointments: appointments,
		artifacts:    artifacts,
		auditor:      auditor,
		authz:        authorizer,
		policy:       policy,
		logger:       logger,
	}
}

// RecordParams carries one capture session's artifacts and scores.
type RecordParams struct {
	AppointmentID id.AppointmentID
	Fingerprints  []Fingerprint
	FaceQuality   float64
	FaceRef       string
	IrisQuality   *float64
	IrisRef       string
	DocumentRefs  []string
}

// Record persists the capture for a scheduled appointment and completes the
// appointment, which advances the request to completed. A second capture for
// the same appointment is refused with a conflict.
func (s *Service) Record(ctx context.Context, params RecordParams) (*Capture, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}
	if params.AppointmentID.IsNil() {
		return nil, derrors.New(derrors.CodeValidation, "appointment id is required")
	}

	appt, err := s.appointments.Get(ctx, params.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status != appointment.StatusScheduled {
		return nil, derrors.Newf(derrors.CodeConflict, "appointment is %s, capture requires a scheduled appointment", appt.Status)
	}

	now := requestcontext.Now(ctx)
	capture := &Capture{
		ID:            id.NewCaptureID(),
		RequestID:     appt.RequestID,
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		OfficerID:     requestcontext.ActorID(ctx),
		Fingerprints:  params.Fingerprints,
		FaceQuality:   params.FaceQuality,
		FaceRef:       params.FaceRef,
		IrisQuality:   params.IrisQuality,
		IrisRef:       params.IrisRef,
		DocumentRefs:  params.DocumentRefs,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := capture.Validate(s.policy); err != nil {
		return nil, err
	}
	capture.Status = capture.Evaluate(s.policy)

	if err := s.captures.Create(ctx, capture); err != nil {
		s.discardArtifacts(ctx, capture)
		if derrors.Is(err, sentinel.ErrConflict) {
			return nil, derrors.New(derrors.CodeConflict, "a capture already exists for this appointment")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "persist capture")
	}

	if _, err := s.appointments.Complete(ctx, appt.ID); err != nil {
		s.compensate(ctx, capture)
		return nil, err
	}

	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindCaptureRecorded,
		Actor:     capture.OfficerID,
		Subject:   capture.UserID,
		RequestID: capture.RequestID.String(),
		Metadata:  map[string]string{"status": string(capture.Status)},
	})
	s.logger.InfoContext(ctx, "biometric capture recorded",
		"capture_id", capture.ID, "appointment_id", appt.ID, "status", capture.Status)
	return capture, nil
}

// Review resolves a requires_review capture after an officer inspects the
// artifacts: accept promotes it to verified, refuse fails it. Verified and
// failed captures are settled and cannot be reviewed again.
func (s *Service) Review(ctx context.Context, captureID id.CaptureID, accept bool, note string) (*Capture, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}
	capture, err := s.Get(ctx, captureID)
	if err != nil {
		return nil, err
	}
	if capture.Status != StatusRequiresReview {
		return nil, derrors.Newf(derrors.CodeConflict, "capture is %s, only requires_review can be reviewed", capture.Status)
	}

	if accept {
		capture.Status = StatusVerified
	} else {
		capture.Status = StatusFailed
	}
	capture.ReviewNote = note
	capture.UpdatedAt = requestcontext.Now(ctx)

	if err := s.captures.Update(ctx, capture); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "update capture")
	}

	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindCaptureVerified,
		Actor:     requestcontext.ActorID(ctx),
		Subject:   capture.UserID,
		RequestID: capture.RequestID.String(),
		Metadata:  map[string]string{"status": string(capture.Status)},
	})
	return capture, nil
}

// Get returns the capture by id.
func (s *Service) Get(ctx context.Context, captureID id.CaptureID) (*Capture, error) {
	capture, err := s.captures.FindByID(ctx, captureID)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "capture not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "find capture")
	}
	return capture, nil
}

// ForRequest returns the latest capture tied to the request. The credential
// issuer gates on this.
func (s *Service) ForRequest(ctx context.Context, requestID id.RequestID) (*Capture, error) {
	capture, err := s.captures.FindByRequest(ctx, requestID)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "no capture for this request")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "find capture")
	}
	return capture, nil
}

// compensate removes a persisted capture after the appointment failed to
// complete, so the desk can retry the session instead of hitting the
// one-capture-per-appointment conflict. A compensation failure is a
// consistency fault worth paging on.
func (s *Service) compensate(ctx context.Context, capture *Capture) {
	if err := s.captures.Delete(ctx, capture.ID); err != nil {
		s.logger.ErrorContext(ctx, "capture compensation failed to delete record",
			"capture_id", capture.ID, "appointment_id", capture.AppointmentID, "error", err)
	}
	s.discardArtifacts(ctx, capture)
}

func (s *Service) discardArtifacts(ctx context.Context, c *Capture) {
	if s.artifacts == nil {
		return
	}
	refs := make([]string, 0, len(c.DocumentRefs)+2)
	refs = append(refs, c.FaceRef)
	if c.IrisRef != "" {
		refs = append(refs, c.IrisRef)
	}
	refs = append(refs, c.DocumentRefs...)
	s.artifacts.Discard(ctx, refs...)
}
