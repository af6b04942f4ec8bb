package credential

import (
	"context"

	id "civid/pkg/domain"
)

// Store persists credentials. CreateIfNoneActive must atomically enforce the
// one-active-credential-per-user rule, returning ErrConflict when the user
// already holds an active one.
type Store interface {
	CreateIfNoneActive(ctx context.Context, c *Credential) error
	Update(ctx context.Context, c *Credential) error
	FindByID(ctx context.Context, credentialID id.CredentialID) (*Credential, error)
	FindByNumber(ctx context.Context, number string) (*Credential, error)
	FindActiveByUser(ctx context.Context, userID id.UserID) (*Credential, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*Credential, error)
}
