package appointment_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"civid/internal/appointment"
	"civid/internal/appointment/mocks"
	"civid/internal/audit"
	"civid/internal/authz"
	"civid/internal/notify"
	"civid/internal/request"
	"civid/internal/schedule"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/requestcontext"
)

var testNow = time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)

// BinderSuite wires the real request service and slot ledger against
// in-memory stores, so bookings exercise the same state machinery production
// runs.
type BinderSuite struct {
	suite.Suite
	requests      *request.Service
	requestStore  *request.InMemoryStore
	scheduleStore *schedule.InMemoryStore
	slots         *schedule.Service
	store         *appointment.InMemoryStore
	service       *appointment.Service

	ctx      context.Context
	officer  id.UserID
	citizen  id.UserID
	centerID id.CenterID
	monday   time.Time
}

func (s *BinderSuite) SetupTest() {
	s.requestStore = request.NewInMemoryStore()
	s.scheduleStore = schedule.NewInMemoryStore()
	s.store = appointment.NewInMemoryStore()

	authorizer := authz.NewContextAuthorizer()
	notifier := notify.NewLogNotifier(slog.Default())
	s.requests = request.NewService(s.requestStore, audit.NopPublisher{}, notifier, authorizer, slog.Default())
	s.slots = schedule.NewService(s.scheduleStore, nil)
	s.service = appointment.NewService(s.store, s.requests, s.slots, audit.NopPublisher{}, notifier, authorizer, nil, slog.Default())

	s.officer = id.NewUserID()
	s.citizen = id.NewUserID()
	s.centerID = id.NewCenterID()
	s.monday = time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), testNow)

	s.seedLedger(2)
}

func TestBinderSuite(t *testing.T) {
	suite.Run(t, new(BinderSuite))
}

func (s *BinderSuite) seedLedger(capacity int) {
	month := id.MonthOf(s.monday)
	_, err := s.scheduleStore.Swap(s.ctx, s.centerID, month, func(existing *schedule.Ledger) (*schedule.Ledger, error) {
		l := &schedule.Ledger{CenterID: s.centerID, Month: month, CreatedAt: testNow, UpdatedAt: testNow}
		for _, d := range month.Days() {
			l.Days = append(l.Days, schedule.DayEntry{
				Date: d, Capacity: capacity, Opens: "08:00", Closes: "17:00",
				Closed: d.Weekday() == time.Sunday,
			})
		}
		return l, nil
	})
	s.Require().NoError(err)
}

func (s *BinderSuite) asOfficer() context.Context {
	return requestcontext.WithActor(s.ctx, s.officer, requestcontext.RoleOfficer)
}

func (s *BinderSuite) asCitizen() context.Context {
	return requestcontext.WithActor(s.ctx, s.citizen, requestcontext.RoleCitizen)
}

// approvedRequest files and approves a request for the citizen, landing it in
// awaiting_appointment.
func (s *BinderSuite) approvedRequest() *request.IdentityRequest {
	r, err := s.requests.Submit(s.asCitizen(), request.SubmitParams{
		UserID:      s.citizen,
		FirstName:   "Amina",
		LastName:    "Khelifi",
		DateOfBirth: time.Date(1994, time.March, 12, 0, 0, 0, 0, time.UTC),
		WindowFrom:  testNow,
		WindowTo:    testNow.AddDate(0, 1, 0),
	})
	s.Require().NoError(err)
	decided, err := s.requests.Decide(s.asOfficer(), r.ID, true, "")
	s.Require().NoError(err)
	return decided
}

func (s *BinderSuite) bookParams() appointment.BookParams {
	return appointment.BookParams{
		UserID:   s.citizen,
		CenterID: s.centerID,
		Date:     s.monday,
		Slot:     "10:00",
	}
}

func (s *BinderSuite) TestBook() {
	req := s.approvedRequest()

	appt, err := s.service.Book(s.asOfficer(), s.bookParams())
	s.Require().NoError(err)
	s.Equal(appointment.StatusScheduled, appt.Status)
	s.Equal(req.ID, appt.RequestID)
	s.Equal(s.officer, appt.OfficerID)

	s.Run("slot was consumed", func() {
		avail, err := s.slots.AvailableSlots(s.ctx, s.centerID, s.monday)
		s.Require().NoError(err)
		s.Equal(1, avail.Slots())
	})

	s.Run("request moved to processing", func() {
		bound, err := s.requests.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(request.StatusProcessing, bound.Status)
		s.Require().NotNil(bound.AppointmentID)
		s.Equal(appt.ID, *bound.AppointmentID)
	})

	s.Run("user cannot be double-booked", func() {
		_, err := s.service.Book(s.asOfficer(), s.bookParams())
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})
}

func (s *BinderSuite) TestBookPreconditions() {
	s.Run("no active request", func() {
		_, err := s.service.Book(s.asOfficer(), s.bookParams())
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})

	s.Run("pending request is not bookable", func() {
		_, err := s.requests.Submit(s.asCitizen(), request.SubmitParams{
			UserID:      s.citizen,
			FirstName:   "Amina",
			LastName:    "Khelifi",
			DateOfBirth: time.Date(1994, time.March, 12, 0, 0, 0, 0, time.UTC),
			WindowFrom:  testNow,
			WindowTo:    testNow.AddDate(0, 1, 0),
		})
		s.Require().NoError(err)

		_, err = s.service.Book(s.asOfficer(), s.bookParams())
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})
}

func (s *BinderSuite) TestBookClosedAndFullDays() {
	s.approvedRequest()

	s.Run("closed day", func() {
		sunday := time.Date(2026, time.September, 6, 0, 0, 0, 0, time.UTC)
		params := s.bookParams()
		params.Date = sunday
		_, err := s.service.Book(s.asOfficer(), params)
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})

	s.Run("capacity check precedes authorization", func() {
		// Fill the day, then have a citizen try: the answer must be the
		// capacity conflict, not a forbidden.
		for i := 0; i < 2; i++ {
			s.Require().NoError(s.scheduleStore.Reserve(s.ctx, s.centerID, s.monday, schedule.Reservation{
				Slot: "09:00", AppointmentID: id.NewAppointmentID(), UserID: id.NewUserID(),
			}))
		}
		_, err := s.service.Book(s.asCitizen(), s.bookParams())
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})
}

func (s *BinderSuite) TestBookAuthorization() {
	s.approvedRequest()
	_, err := s.service.Book(s.asCitizen(), s.bookParams())
	s.True(derrors.HasCode(err, derrors.CodeForbidden))

	// The failed attempt must not leak a reservation.
	avail, availErr := s.slots.AvailableSlots(s.ctx, s.centerID, s.monday)
	s.Require().NoError(availErr)
	s.Equal(2, avail.Slots())
}

func (s *BinderSuite) TestCancelReleasesSlot() {
	s.approvedRequest()
	appt, err := s.service.Book(s.asOfficer(), s.bookParams())
	s.Require().NoError(err)

	cancelled, err := s.service.Cancel(s.asOfficer(), appt.ID)
	s.Require().NoError(err)
	s.Equal(appointment.StatusCancelled, cancelled.Status)

	avail, err := s.slots.AvailableSlots(s.ctx, s.centerID, s.monday)
	s.Require().NoError(err)
	s.Equal(2, avail.Slots())

	rewound, err := s.requests.Get(s.ctx, appt.RequestID)
	s.Require().NoError(err)
	s.Equal(request.StatusAwaitingAppointment, rewound.Status)

	s.Run("user can be rebooked", func() {
		again, err := s.service.Book(s.asOfficer(), s.bookParams())
		s.Require().NoError(err)
		s.NotEqual(appt.ID, again.ID)
	})
}

func (s *BinderSuite) TestMissKeepsSlot() {
	s.approvedRequest()
	appt, err := s.service.Book(s.asOfficer(), s.bookParams())
	s.Require().NoError(err)

	missed, err := s.service.Miss(s.asOfficer(), appt.ID)
	s.Require().NoError(err)
	s.Equal(appointment.StatusMissed, missed.Status)

	// A no-show burns the slot.
	avail, err := s.slots.AvailableSlots(s.ctx, s.centerID, s.monday)
	s.Require().NoError(err)
	s.Equal(1, avail.Slots())

	rewound, err := s.requests.Get(s.ctx, appt.RequestID)
	s.Require().NoError(err)
	s.Equal(request.StatusAwaitingAppointment, rewound.Status)
}

func (s *BinderSuite) TestLifecycleConflicts() {
	s.approvedRequest()
	appt, err := s.service.Book(s.asOfficer(), s.bookParams())
	s.Require().NoError(err)

	_, err = s.service.Cancel(s.asOfficer(), appt.ID)
	s.Require().NoError(err)

	_, err = s.service.Miss(s.asOfficer(), appt.ID)
	s.True(derrors.HasCode(err, derrors.CodeConflict))

	_, err = s.service.Complete(s.asOfficer(), appt.ID)
	s.True(derrors.HasCode(err, derrors.CodeConflict))
}

// CompensationSuite injects store failures with gomock to verify the booking
// path undoes its reservation when a later step fails.
type CompensationSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockStore     *mocks.MockStore
	mockRequests  *mocks.MockRequestDirectory
	scheduleStore *schedule.InMemoryStore
	slots         *schedule.Service
	service       *appointment.Service

	ctx      context.Context
	officer  id.UserID
	citizen  id.UserID
	centerID id.CenterID
	monday   time.Time
}

func (s *CompensationSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockRequests = mocks.NewMockRequestDirectory(s.ctrl)
	s.scheduleStore = schedule.NewInMemoryStore()
	s.slots = schedule.NewService(s.scheduleStore, nil)
	s.service = appointment.NewService(s.mockStore, s.mockRequests, s.slots,
		audit.NopPublisher{}, nil, authz.NewContextAuthorizer(), nil, slog.Default())

	s.officer = id.NewUserID()
	s.citizen = id.NewUserID()
	s.centerID = id.NewCenterID()
	s.monday = time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	base := requestcontext.WithTime(context.Background(), testNow)
	s.ctx = requestcontext.WithActor(base, s.officer, requestcontext.RoleOfficer)

	month := id.MonthOf(s.monday)
	_, err := s.scheduleStore.Swap(s.ctx, s.centerID, month, func(existing *schedule.Ledger) (*schedule.Ledger, error) {
		l := &schedule.Ledger{CenterID: s.centerID, Month: month, CreatedAt: testNow, UpdatedAt: testNow}
		for _, d := range month.Days() {
			l.Days = append(l.Days, schedule.DayEntry{Date: d, Capacity: 2, Opens: "08:00", Closes: "17:00"})
		}
		return l, nil
	})
	s.Require().NoError(err)
}

func TestCompensationSuite(t *testing.T) {
	suite.Run(t, new(CompensationSuite))
}

func (s *CompensationSuite) awaiting() *request.IdentityRequest {
	return &request.IdentityRequest{
		ID:     id.NewRequestID(),
		UserID: s.citizen,
		Status: request.StatusAwaitingAppointment,
	}
}

func (s *CompensationSuite) remaining() int {
	avail, err := s.slots.AvailableSlots(s.ctx, s.centerID, s.monday)
	s.Require().NoError(err)
	return avail.Slots()
}

func (s *CompensationSuite) TestCreateFailureReleasesSlot() {
	req := s.awaiting()
	s.mockRequests.EXPECT().ActiveForUser(gomock.Any(), s.citizen).Return(req, nil)
	s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(derrors.New(derrors.CodeInternal, "disk full"))

	_, err := s.service.Book(s.ctx, appointment.BookParams{
		UserID: s.citizen, CenterID: s.centerID, Date: s.monday, Slot: "10:00",
	})
	s.Require().Error(err)
	s.Equal(2, s.remaining())
}

func (s *CompensationSuite) TestBindFailureReleasesSlotAndAppointment() {
	req := s.awaiting()
	s.mockRequests.EXPECT().ActiveForUser(gomock.Any(), s.citizen).Return(req, nil)
	s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.mockRequests.EXPECT().BindAppointment(gomock.Any(), req.ID, gomock.Any()).
		Return(nil, derrors.New(derrors.CodeConflict, "request moved underneath"))
	s.mockStore.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.service.Book(s.ctx, appointment.BookParams{
		UserID: s.citizen, CenterID: s.centerID, Date: s.monday, Slot: "10:00",
	})
	s.Require().Error(err)
	s.Equal(2, s.remaining())
}
