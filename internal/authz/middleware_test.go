package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civid/internal/authz"
	id "civid/pkg/domain"
	"civid/pkg/requestcontext"
)

func TestMiddleware(t *testing.T) {
	tokens := authz.NewTokenService("test-signing-key")
	actor := id.NewUserID()

	var gotActor id.UserID
	var gotRole requestcontext.Role
	var gotRequestID string
	handler := authz.Middleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		gotActor = requestcontext.ActorID(ctx)
		gotRole = requestcontext.ActorRole(ctx)
		gotRequestID = requestcontext.RequestID(ctx)
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid bearer token", func(t *testing.T) {
		signed, err := tokens.Generate(actor, requestcontext.RoleOfficer, time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		req.Header.Set("X-Request-Id", "req-42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, actor, gotActor)
		assert.Equal(t, requestcontext.RoleOfficer, gotRole)
		assert.Equal(t, "req-42", gotRequestID)
	})

	t.Run("no token passes through unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, gotActor.IsNil())
		assert.NotEmpty(t, gotRequestID)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
