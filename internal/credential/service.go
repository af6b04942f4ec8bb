package credential

import (
	"context"
	"log/slog"

	"civid/internal/audit"
	"civid/internal/authz"
	"civid/internal/biometric"
	"civid/internal/credential/metrics"
	"civid/internal/notify"
	"civid/internal/request"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/sentinel"
	"civid/pkg/requestcontext"
)

// RequestDirectory is the slice of the request service the issuer reads.
type RequestDirectory interface {
	Get(ctx context.Context, requestID id.RequestID) (*request.IdentityRequest, error)
}

// CaptureGate yields the biometric capture that must be verified before a
// credential can issue.
type CaptureGate interface {
	ForRequest(ctx context.Context, requestID id.RequestID) (*biometric.Capture, error)
}

// Service issues and revokes identity credentials.
type Service struct {
	credentials Store
	requests    RequestDirectory
	captures    CaptureGate
	auditor     audit.Publisher
	notifier    notify.Notifier
	authz       authz.Authorizer
	logger      *slog.Logger
}

func NewService(credentials Store, requests RequestDirectory, captures CaptureGate, auditor audit.Publisher, notifier notify.Notifier, authorizer authz.Authorizer, logger *slog.Logger) *Service {
	if auditor == nil {
		auditor = audit.NopPublisher{}
	}
	return &Service{
		credentials: credentials,
		requests:    requests,
		captures:    captures,
		auditor:     auditor,
		notifier:    notifier,
		authz:       authorizer,
		logger:      logger,
	}
}

// Issue mints a credential for a completed request backed by a verified
// capture. The store enforces the one-active-credential rule atomically, so
// two racing issuances cannot both land.
func (s *Service) Issue(ctx context.Context, requestID id.RequestID) (*Credential, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}
	if requestID.IsNil() {
		return nil, derrors.New(derrors.CodeValidation, "request id is required")
	}

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != request.StatusCompleted {
		metrics.IssueRefused.WithLabelValues("request_not_completed").Inc()
		return nil, derrors.Newf(derrors.CodeConflict, "request is %s, issuance requires completed", req.Status)
	}

	capture, err := s.captures.ForRequest(ctx, requestID)
	if err != nil {
		if derrors.HasCode(err, derrors.CodeNotFound) {
			metrics.IssueRefused.WithLabelValues("no_capture").Inc()
			return nil, derrors.New(derrors.CodeConflict, "no biometric capture recorded for this request")
		}
		return nil, err
	}
	if !capture.Usable() {
		metrics.IssueRefused.WithLabelValues("capture_not_verified").Inc()
		return nil, derrors.Newf(derrors.CodeConflict, "capture is %s, issuance requires verified", capture.Status)
	}

	number, err := NewNumber()
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "generate credential number")
	}

	now := requestcontext.Now(ctx)
	cred := &Credential{
		ID:        id.NewCredentialID(),
		UserID:    req.UserID,
		RequestID: req.ID,
		CaptureID: capture.ID,
		Number:    number,
		Status:    StatusActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(Validity),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.credentials.CreateIfNoneActive(ctx, cred); err != nil {
		if derrors.Is(err, sentinel.ErrConflict) {
			metrics.IssueRefused.WithLabelValues("active_exists").Inc()
			return nil, derrors.New(derrors.CodeConflict, "user already holds an active credential")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "persist credential")
	}
	metrics.Issued.Inc()

	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindCredentialIssued,
		Actor:     requestcontext.ActorID(ctx),
		Subject:   cred.UserID,
		RequestID: cred.RequestID.String(),
		Metadata:  map[string]string{"credential_id": cred.ID.String()},
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, cred.UserID, notify.Event{
			Kind: notify.EventCredentialIssued,
			Data: map[string]string{"number": cred.Number},
		})
	}
	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", cred.ID, "user_id", cred.UserID, "request_id", cred.RequestID)
	return cred, nil
}

// Revoke terminally invalidates a credential. Reissue afterwards means a new
// request through the normal pipeline; old numbers are never resurrected.
func (s *Service) Revoke(ctx context.Context, credentialID id.CredentialID, reason string) (*Credential, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, derrors.New(derrors.CodeValidation, "revocation reason is required")
	}

	cred, err := s.Get(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	officer := requestcontext.ActorID(ctx)
	if err := cred.Revoke(officer, reason, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.credentials.Update(ctx, cred); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "update credential")
	}
	metrics.Revoked.WithLabelValues(reason).Inc()

	s.auditor.Emit(ctx, audit.Event{
		Kind:      audit.KindCredentialRevoked,
		Actor:     officer,
		Subject:   cred.UserID,
		RequestID: cred.RequestID.String(),
		Metadata:  map[string]string{"credential_id": cred.ID.String(), "reason": reason},
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, cred.UserID, notify.Event{
			Kind: notify.EventCredentialRevoked,
			Data: map[string]string{"reason": reason},
		})
	}
	s.logger.InfoContext(ctx, "credential revoked",
		"credential_id", cred.ID, "user_id", cred.UserID, "reason", reason)
	return cred, nil
}

// Get returns the credential by id.
func (s *Service) Get(ctx context.Context, credentialID id.CredentialID) (*Credential, error) {
	cred, err := s.credentials.FindByID(ctx, credentialID)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "credential not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "find credential")
	}
	return cred, nil
}

// Verify checks a credential number's well-formedness and current standing.
// Anyone may call it; it backs the public verification endpoint.
func (s *Service) Verify(ctx context.Context, number string) (*Credential, error) {
	if err := ValidateNumber(number); err != nil {
		return nil, err
	}
	cred, err := s.credentials.FindByNumber(ctx, number)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "credential not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "find credential")
	}
	// Expiry is lazily settled on read. Persisting it frees the
	// one-active-credential slot so the holder can be reissued without a
	// manual revocation first.
	if cred.MarkExpired(requestcontext.Now(ctx)) {
		if err := s.credentials.Update(ctx, cred); err != nil {
			s.logger.WarnContext(ctx, "failed to persist credential expiry",
				"credential_id", cred.ID, "error", err)
		}
	}
	return cred, nil
}

// ActiveForUser returns the user's active credential, if any.
func (s *Service) ActiveForUser(ctx context.Context, userID id.UserID) (*Credential, error) {
	cred, err := s.credentials.FindActiveByUser(ctx, userID)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "user holds no active credential")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "find credential")
	}
	return cred, nil
}

// History lists all credentials ever issued to a user, newest first.
func (s *Service) History(ctx context.Context, userID id.UserID) ([]*Credential, error) {
	if err := s.authz.Require(ctx, requestcontext.RoleOfficer); err != nil {
		return nil, err
	}
	out, err := s.credentials.ListByUser(ctx, userID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list credentials")
	}
	return out, nil
}
