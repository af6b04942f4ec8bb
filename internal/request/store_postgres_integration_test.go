//go:build integration

package request_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civid/internal/request"
	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
	"civid/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *request.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = request.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "identity_requests"))
}

func newStoredRequest(userID id.UserID) *request.IdentityRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	r, err := request.New(id.NewRequestID(), userID, "Amina", "Khelifi",
		time.Date(1994, time.March, 12, 0, 0, 0, 0, time.UTC), "Algiers",
		now, now.AddDate(0, 2, 0), now)
	if err != nil {
		panic(err)
	}
	return r
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	userID := id.NewUserID()
	r := newStoredRequest(userID)
	s.Require().NoError(s.store.CreateIfNoneActive(ctx, r))

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ID, found.ID)
	s.Equal(request.StatusPending, found.Status)
	s.Equal("Amina", found.FirstName)

	active, err := s.store.FindActiveByUser(ctx, userID)
	s.Require().NoError(err)
	s.Equal(r.ID, active.ID)

	_, err = s.store.FindActiveByUser(ctx, id.NewUserID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentOneActive verifies the partial unique index admits exactly one
// live request per user under contention.
func (s *PostgresStoreSuite) TestConcurrentOneActive() {
	ctx := context.Background()
	userID := id.NewUserID()
	const goroutines = 50

	var wg sync.WaitGroup
	var succeeded, conflicted atomic.Int64

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateIfNoneActive(ctx, newStoredRequest(userID))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicted.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(1), succeeded.Load())
	s.Equal(int64(goroutines-1), conflicted.Load())
}

func (s *PostgresStoreSuite) TestRejectionFreesTheUser() {
	ctx := context.Background()
	userID := id.NewUserID()
	r := newStoredRequest(userID)
	s.Require().NoError(s.store.CreateIfNoneActive(ctx, r))

	// A second filing conflicts while the first is live.
	s.ErrorIs(s.store.CreateIfNoneActive(ctx, newStoredRequest(userID)), sentinel.ErrConflict)

	officer := id.NewUserID()
	s.Require().NoError(r.ApplyDecision(false, "incomplete documents", officer, time.Now().UTC()))
	s.Require().NoError(s.store.Update(ctx, r))

	s.Require().NoError(s.store.CreateIfNoneActive(ctx, newStoredRequest(userID)))
}

func (s *PostgresStoreSuite) TestListByStatus() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.CreateIfNoneActive(ctx, newStoredRequest(id.NewUserID())))
	}
	rejected := newStoredRequest(id.NewUserID())
	s.Require().NoError(s.store.CreateIfNoneActive(ctx, rejected))
	s.Require().NoError(rejected.ApplyDecision(false, "refused", id.NewUserID(), time.Now().UTC()))
	s.Require().NoError(s.store.Update(ctx, rejected))

	pending, err := s.store.ListByStatus(ctx, request.StatusPending)
	s.Require().NoError(err)
	s.Len(pending, 3)

	rej, err := s.store.ListByStatus(ctx, request.StatusRejected)
	s.Require().NoError(err)
	s.Len(rej, 1)
}
