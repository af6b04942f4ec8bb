package authz_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civid/internal/authz"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/requestcontext"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := authz.NewTokenService("test-signing-key")
	actor := id.NewUserID()

	signed, err := tokens.Generate(actor, requestcontext.RoleOfficer, time.Now())
	require.NoError(t, err)

	parsedActor, role, err := tokens.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, actor, parsedActor)
	assert.Equal(t, requestcontext.RoleOfficer, role)
}

func TestTokenRejections(t *testing.T) {
	tokens := authz.NewTokenService("test-signing-key")
	actor := id.NewUserID()

	t.Run("garbage", func(t *testing.T) {
		_, _, err := tokens.Validate("not.a.token")
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := authz.NewTokenService("a-different-key")
		signed, err := other.Generate(actor, requestcontext.RoleOfficer, time.Now())
		require.NoError(t, err)

		_, _, err = tokens.Validate(signed)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		signed, err := tokens.Generate(actor, requestcontext.RoleOfficer, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		_, _, err = tokens.Validate(signed)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	t.Run("unknown role", func(t *testing.T) {
		signed, err := tokens.Generate(actor, requestcontext.Role("superuser"), time.Now())
		require.NoError(t, err)

		_, _, err = tokens.Validate(signed)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})
}

func TestContextAuthorizer(t *testing.T) {
	authorizer := authz.NewContextAuthorizer()
	actor := id.NewUserID()

	withRole := func(role requestcontext.Role) context.Context {
		return requestcontext.WithActor(context.Background(), actor, role)
	}

	t.Run("unauthenticated", func(t *testing.T) {
		err := authorizer.Require(context.Background(), requestcontext.RoleCitizen)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	t.Run("role hierarchy", func(t *testing.T) {
		cases := []struct {
			actual   requestcontext.Role
			required requestcontext.Role
			allowed  bool
		}{
			{requestcontext.RoleCitizen, requestcontext.RoleCitizen, true},
			{requestcontext.RoleCitizen, requestcontext.RoleOfficer, false},
			{requestcontext.RoleCitizen, requestcontext.RoleAdmin, false},
			{requestcontext.RoleOfficer, requestcontext.RoleCitizen, true},
			{requestcontext.RoleOfficer, requestcontext.RoleOfficer, true},
			{requestcontext.RoleOfficer, requestcontext.RoleAdmin, false},
			{requestcontext.RoleAdmin, requestcontext.RoleCitizen, true},
			{requestcontext.RoleAdmin, requestcontext.RoleOfficer, true},
			{requestcontext.RoleAdmin, requestcontext.RoleAdmin, true},
		}
		for _, tc := range cases {
			err := authorizer.Require(withRole(tc.actual), tc.required)
			if tc.allowed {
				assert.NoError(t, err, "%s requiring %s", tc.actual, tc.required)
			} else {
				assert.True(t, derrors.HasCode(err, derrors.CodeForbidden), "%s requiring %s", tc.actual, tc.required)
			}
		}
	})
}
