package schedule

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/requestcontext"
)

// fakeDirectory serves templates from a map; unknown centers error the way
// the center store translation would.
type fakeDirectory struct {
	centers map[id.CenterID]CenterInfo
}

func (d *fakeDirectory) Center(_ context.Context, centerID id.CenterID) (CenterInfo, error) {
	info, ok := d.centers[centerID]
	if !ok {
		return CenterInfo{}, derrors.New(derrors.CodeNotFound, "center not found")
	}
	return info, nil
}

func (d *fakeDirectory) ActiveCenters(context.Context) ([]CenterInfo, error) {
	out := make([]CenterInfo, 0, len(d.centers))
	for _, info := range d.centers {
		out = append(out, info)
	}
	return out, nil
}

type GeneratorSuite struct {
	suite.Suite
	store     *InMemoryStore
	directory *fakeDirectory
	generator *Generator
	ctx       context.Context
	centerID  id.CenterID
	month     id.Month
}

func (s *GeneratorSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.centerID = id.NewCenterID()
	s.directory = &fakeDirectory{centers: map[id.CenterID]CenterInfo{
		s.centerID: {ID: s.centerID, Template: DefaultTemplate()},
	}}
	s.generator = NewGenerator(s.store, s.directory, slog.Default(), nil)
	s.month = id.Month{Year: 2026, Month: time.September}
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC))
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) TestEnsureMonth() {
	s.Run("covers every calendar day of the month", func() {
		ledger, err := s.generator.EnsureMonth(s.ctx, s.centerID, s.month)
		s.Require().NoError(err)
		s.Len(ledger.Days, 30)

		// 2026-09-06 is a Sunday: closed under the default template.
		day, ok := ledger.Day(time.Date(2026, time.September, 6, 0, 0, 0, 0, time.UTC))
		s.Require().True(ok)
		s.True(day.Closed)

		// 2026-09-07 is a Monday: full service.
		day, ok = ledger.Day(time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC))
		s.Require().True(ok)
		s.Equal(48, day.Capacity)
	})

	s.Run("is idempotent", func() {
		first, err := s.generator.EnsureMonth(s.ctx, s.centerID, s.month)
		s.Require().NoError(err)
		second, err := s.generator.EnsureMonth(s.ctx, s.centerID, s.month)
		s.Require().NoError(err)
		s.Equal(len(first.Days), len(second.Days))
		s.Equal(0, second.ReservationCount())
	})

	s.Run("rejects nil center and zero month", func() {
		_, err := s.generator.EnsureMonth(s.ctx, id.CenterID{}, s.month)
		s.True(derrors.HasCode(err, derrors.CodeValidation))

		_, err = s.generator.EnsureMonth(s.ctx, s.centerID, id.Month{})
		s.True(derrors.HasCode(err, derrors.CodeValidation))
	})
}

func (s *GeneratorSuite) TestRegenerationPreservesReservations() {
	_, err := s.generator.EnsureMonth(s.ctx, s.centerID, s.month)
	s.Require().NoError(err)

	monday := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	res := Reservation{Slot: "10:00", AppointmentID: id.NewAppointmentID(), UserID: id.NewUserID()}
	s.Require().NoError(s.store.Reserve(s.ctx, s.centerID, monday, res))

	s.Run("reservations survive a plain regeneration", func() {
		ledger, err := s.generator.EnsureMonth(s.ctx, s.centerID, s.month)
		s.Require().NoError(err)
		day, ok := ledger.Day(monday)
		s.Require().True(ok)
		s.Equal(1, day.Reserved)
		s.Require().Len(day.Reservations, 1)
		s.Equal(res.AppointmentID, day.Reservations[0].AppointmentID)
	})

	s.Run("template shrink below bookings widens the day", func() {
		tpl := DefaultTemplate()
		tpl[time.Monday] = DayRule{Capacity: 0, Opens: "08:00", Closes: "17:00"}
		s.directory.centers[s.centerID] = CenterInfo{ID: s.centerID, Template: tpl}

		ledger, err := s.generator.EnsureMonth(s.ctx, s.centerID, s.month)
		s.Require().NoError(err)
		day, ok := ledger.Day(monday)
		s.Require().True(ok)
		s.Equal(1, day.Reserved)
		s.Equal(1, day.Capacity)
		s.False(day.Closed)

		// Mondays without bookings follow the shrunk template.
		other, ok := ledger.Day(time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC))
		s.Require().True(ok)
		s.True(other.Closed)
	})
}

func (s *GeneratorSuite) TestPruning() {
	stale := id.Month{Year: 2026, Month: time.June}
	_, err := s.generator.EnsureMonth(s.ctx, s.centerID, stale)
	s.Require().NoError(err)

	_, err = s.generator.EnsureMonth(s.ctx, s.centerID, s.month)
	s.Require().NoError(err)

	// June is older than the previous month (August) relative to the request
	// clock, so the second run removed it.
	_, err = s.store.Ledger(s.ctx, s.centerID, stale)
	s.Require().Error(err)

	// The previous month itself stays within retention.
	previous := id.Month{Year: 2026, Month: time.August}
	_, err = s.generator.EnsureMonth(s.ctx, s.centerID, previous)
	s.Require().NoError(err)
	_, err = s.generator.EnsureMonth(s.ctx, s.centerID, s.month)
	s.Require().NoError(err)
	_, err = s.store.Ledger(s.ctx, s.centerID, previous)
	s.Require().NoError(err)
}

func (s *GeneratorSuite) TestEnsureAll() {
	s.Run("covers every active center", func() {
		otherID := id.NewCenterID()
		s.directory.centers[otherID] = CenterInfo{ID: otherID, Template: DefaultTemplate()}

		s.Require().NoError(s.generator.EnsureAll(s.ctx, s.month, s.month.Next()))

		for _, centerID := range []id.CenterID{s.centerID, otherID} {
			for _, month := range []id.Month{s.month, s.month.Next()} {
				_, err := s.store.Ledger(s.ctx, centerID, month)
				s.Require().NoError(err, "center %s month %s", centerID, month)
			}
		}
	})

	s.Run("one failing center does not block the rest", func() {
		broken := id.NewCenterID()
		s.directory.centers[broken] = CenterInfo{ID: broken, Template: DefaultTemplate()}
		brokenDir := &failingDirectory{inner: s.directory, failFor: broken}
		generator := NewGenerator(s.store, brokenDir, slog.Default(), nil)

		err := generator.EnsureAll(s.ctx, s.month)
		var batch *BatchError
		s.Require().ErrorAs(err, &batch)
		s.Len(batch.Failures, 1)
		s.Equal(broken, batch.Failures[0].CenterID)

		// The healthy center still got its ledger.
		_, lookupErr := s.store.Ledger(s.ctx, s.centerID, s.month)
		s.Require().NoError(lookupErr)
	})
}

type failingDirectory struct {
	inner   *fakeDirectory
	failFor id.CenterID
}

func (d *failingDirectory) Center(ctx context.Context, centerID id.CenterID) (CenterInfo, error) {
	if centerID == d.failFor {
		return CenterInfo{}, derrors.New(derrors.CodeInternal, "directory unavailable")
	}
	return d.inner.Center(ctx, centerID)
}

func (d *failingDirectory) ActiveCenters(ctx context.Context) ([]CenterInfo, error) {
	return d.inner.ActiveCenters(ctx)
}
