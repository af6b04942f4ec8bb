// Package authz is the authorization collaborator: services ask it whether
// the calling actor holds a required role. The HTTP middleware authenticates
// JWTs and stamps the actor into the request context; the context authorizer
// reads it back out. Services never parse tokens themselves.
package authz

import (
	"context"

	derrors "civid/pkg/domain-errors"
	"civid/pkg/requestcontext"
)

// Authorizer answers "may this actor perform an operation requiring role X".
type Authorizer interface {
	Require(ctx context.Context, role requestcontext.Role) error
}

// ContextAuthorizer authorizes against the actor the auth middleware stamped
// into the context. Admin satisfies every role; officer satisfies citizen.
type ContextAuthorizer struct{}

func NewContextAuthorizer() ContextAuthorizer { return ContextAuthorizer{} }

func (ContextAuthorizer) Require(ctx context.Context, role requestcontext.Role) error {
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	if !satisfies(requestcontext.ActorRole(ctx), role) {
		return derrors.Newf(derrors.CodeForbidden, "%s role required", role)
	}
	return nil
}

func satisfies(actual, required requestcontext.Role) bool {
	if actual == required || actual == requestcontext.RoleAdmin {
		return true
	}
	if actual == requestcontext.RoleOfficer && required == requestcontext.RoleCitizen {
		return true
	}
	return false
}
