package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store    *InMemoryStore
	ctx      context.Context
	centerID id.CenterID
	month    id.Month
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.centerID = id.NewCenterID()
	s.month = id.Month{Year: 2026, Month: time.September}
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) seedLedger(capacity int) *Ledger {
	ledger, err := s.store.Swap(s.ctx, s.centerID, s.month, func(existing *Ledger) (*Ledger, error) {
		l := &Ledger{CenterID: s.centerID, Month: s.month, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		for _, d := range s.month.Days() {
			l.Days = append(l.Days, DayEntry{
				Date: d, Capacity: capacity, Opens: "08:00", Closes: "17:00",
				Closed: capacity == 0,
			})
		}
		return l, nil
	})
	s.Require().NoError(err)
	return ledger
}

func (s *MemoryStoreSuite) reservation() Reservation {
	return Reservation{Slot: "10:00", AppointmentID: id.NewAppointmentID(), UserID: id.NewUserID()}
}

func (s *MemoryStoreSuite) TestReserveAndRelease() {
	s.seedLedger(2)
	day := s.month.First()

	s.Run("reserve consumes a slot", func() {
		s.Require().NoError(s.store.Reserve(s.ctx, s.centerID, day, s.reservation()))
		entry, err := s.store.Day(s.ctx, s.centerID, day)
		s.Require().NoError(err)
		s.Equal(1, entry.Reserved)
		s.Len(entry.Reservations, 1)
	})

	s.Run("exhausted day refuses further reservations", func() {
		s.Require().NoError(s.store.Reserve(s.ctx, s.centerID, day, s.reservation()))
		err := s.store.Reserve(s.ctx, s.centerID, day, s.reservation())
		s.Require().ErrorIs(err, sentinel.ErrCapacityExhausted)
	})

	s.Run("release returns the slot", func() {
		res := s.reservation()
		next := day.AddDate(0, 0, 1)
		s.Require().NoError(s.store.Reserve(s.ctx, s.centerID, next, res))
		s.Require().NoError(s.store.Release(s.ctx, s.centerID, next, res.AppointmentID))
		entry, err := s.store.Day(s.ctx, s.centerID, next)
		s.Require().NoError(err)
		s.Equal(0, entry.Reserved)
		s.Empty(entry.Reservations)
	})

	s.Run("release of unknown appointment is not found", func() {
		err := s.store.Release(s.ctx, s.centerID, day, id.NewAppointmentID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestClosedDay() {
	s.seedLedger(0)
	err := s.store.Reserve(s.ctx, s.centerID, s.month.First(), s.reservation())
	s.Require().ErrorIs(err, sentinel.ErrDayClosed)
}

func (s *MemoryStoreSuite) TestMissingLedger() {
	_, err := s.store.Day(s.ctx, s.centerID, s.month.First())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Reserve(s.ctx, s.centerID, s.month.First(), s.reservation())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentReserve races many goroutines at a small day; exactly
// capacity of them may win and the ledger must account for every winner.
func (s *MemoryStoreSuite) TestConcurrentReserve() {
	const capacity = 5
	const contenders = 50

	s.seedLedger(capacity)
	day := s.month.First()

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		exhausted atomic.Int64
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Reserve(s.ctx, s.centerID, day, s.reservation())
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, sentinel.ErrCapacityExhausted):
				exhausted.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(capacity), succeeded.Load())
	s.Equal(int64(contenders-capacity), exhausted.Load())

	entry, err := s.store.Day(s.ctx, s.centerID, day)
	s.Require().NoError(err)
	s.Equal(capacity, entry.Reserved)
	s.Len(entry.Reservations, capacity)
}

func (s *MemoryStoreSuite) TestDeleteBefore() {
	s.seedLedger(4)

	older := id.Month{Year: 2026, Month: time.June}
	_, err := s.store.Swap(s.ctx, s.centerID, older, func(existing *Ledger) (*Ledger, error) {
		return &Ledger{CenterID: s.centerID, Month: older, CreatedAt: time.Now(), UpdatedAt: time.Now()}, nil
	})
	s.Require().NoError(err)

	removed, err := s.store.DeleteBefore(s.ctx, s.centerID, id.Month{Year: 2026, Month: time.August})
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.Ledger(s.ctx, s.centerID, older)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Ledger(s.ctx, s.centerID, s.month)
	s.Require().NoError(err)
}
