package request

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civid/internal/audit"
	"civid/internal/authz"
	"civid/internal/notify"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/requestcontext"
)

type RequestServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	service *Service
	ctx     context.Context
	officer id.UserID
	citizen id.UserID
}

func (s *RequestServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.service = NewService(s.store, audit.NopPublisher{}, notify.NewLogNotifier(slog.Default()), authz.NewContextAuthorizer(), slog.Default())
	s.officer = id.NewUserID()
	s.citizen = id.NewUserID()

	ctx := requestcontext.WithTime(context.Background(), testNow)
	s.ctx = ctx
}

func (s *RequestServiceSuite) asOfficer() context.Context {
	return requestcontext.WithActor(s.ctx, s.officer, requestcontext.RoleOfficer)
}

func (s *RequestServiceSuite) asCitizen() context.Context {
	return requestcontext.WithActor(s.ctx, s.citizen, requestcontext.RoleCitizen)
}

func TestRequestServiceSuite(t *testing.T) {
	suite.Run(t, new(RequestServiceSuite))
}

func (s *RequestServiceSuite) submitParams() SubmitParams {
	return SubmitParams{
		UserID:      s.citizen,
		FirstName:   "Amina",
		LastName:    "Khelifi",
		DateOfBirth: time.Date(1994, time.March, 12, 0, 0, 0, 0, time.UTC),
		Address:     "12 Rue Didouche",
		WindowFrom:  testNow.AddDate(0, 0, 7),
		WindowTo:    testNow.AddDate(0, 1, 0),
	}
}

func (s *RequestServiceSuite) TestSubmit() {
	s.Run("files a pending request", func() {
		r, err := s.service.Submit(s.asCitizen(), s.submitParams())
		s.Require().NoError(err)
		s.Equal(StatusPending, r.Status)
		s.Equal(s.citizen, r.UserID)
	})

	s.Run("second active request is refused", func() {
		_, err := s.service.Submit(s.asCitizen(), s.submitParams())
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})
}

func (s *RequestServiceSuite) TestResubmitAfterRejection() {
	r, err := s.service.Submit(s.asCitizen(), s.submitParams())
	s.Require().NoError(err)

	_, err = s.service.Decide(s.asOfficer(), r.ID, false, "illegible documents")
	s.Require().NoError(err)

	// Rejection frees the user to file again.
	again, err := s.service.Submit(s.asCitizen(), s.submitParams())
	s.Require().NoError(err)
	s.NotEqual(r.ID, again.ID)
}

func (s *RequestServiceSuite) TestDecide() {
	r, err := s.service.Submit(s.asCitizen(), s.submitParams())
	s.Require().NoError(err)

	s.Run("citizen cannot decide", func() {
		_, err := s.service.Decide(s.asCitizen(), r.ID, true, "")
		s.True(derrors.HasCode(err, derrors.CodeForbidden))
	})

	s.Run("unauthenticated caller cannot decide", func() {
		_, err := s.service.Decide(s.ctx, r.ID, true, "")
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("officer approval lands in awaiting_appointment", func() {
		decided, err := s.service.Decide(s.asOfficer(), r.ID, true, "documents in order")
		s.Require().NoError(err)
		s.Equal(StatusAwaitingAppointment, decided.Status)
		s.Require().NotNil(decided.Decision)
		s.Equal(s.officer, decided.Decision.DecidedBy)
	})

	s.Run("second decision conflicts", func() {
		_, err := s.service.Decide(s.asOfficer(), r.ID, false, "")
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})
}

func (s *RequestServiceSuite) TestAppointmentLifecycleBinding() {
	r, err := s.service.Submit(s.asCitizen(), s.submitParams())
	s.Require().NoError(err)
	_, err = s.service.Decide(s.asOfficer(), r.ID, true, "")
	s.Require().NoError(err)

	apptID := id.NewAppointmentID()

	s.Run("bind moves to processing", func() {
		bound, err := s.service.BindAppointment(s.ctx, r.ID, apptID)
		s.Require().NoError(err)
		s.Equal(StatusProcessing, bound.Status)
		s.Require().NotNil(bound.AppointmentID)
		s.Equal(apptID, *bound.AppointmentID)
	})

	s.Run("unbind rewinds for rebooking", func() {
		unbound, err := s.service.UnbindAppointment(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(StatusAwaitingAppointment, unbound.Status)
		s.Nil(unbound.AppointmentID)
	})

	s.Run("complete requires processing", func() {
		_, err := s.service.CompleteProcessing(s.ctx, r.ID)
		s.True(derrors.HasCode(err, derrors.CodeConflict))

		_, err = s.service.BindAppointment(s.ctx, r.ID, apptID)
		s.Require().NoError(err)
		done, err := s.service.CompleteProcessing(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(StatusCompleted, done.Status)
	})
}

func (s *RequestServiceSuite) TestLookups() {
	r, err := s.service.Submit(s.asCitizen(), s.submitParams())
	s.Require().NoError(err)

	s.Run("active request by user", func() {
		found, err := s.service.ActiveForUser(s.ctx, s.citizen)
		s.Require().NoError(err)
		s.Equal(r.ID, found.ID)
	})

	s.Run("no active request is not found", func() {
		_, err := s.service.ActiveForUser(s.ctx, id.NewUserID())
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})

	s.Run("list by status", func() {
		pending, err := s.service.ListByStatus(s.ctx, StatusPending)
		s.Require().NoError(err)
		s.Len(pending, 1)

		_, err = s.service.ListByStatus(s.ctx, Status("archived"))
		s.True(derrors.HasCode(err, derrors.CodeValidation))
	})
}
