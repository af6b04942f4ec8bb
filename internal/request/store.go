package request

import (
	"context"

	id "civid/pkg/domain"
)

// Store persists identity requests. Implementations return
// sentinel.ErrNotFound for unknown IDs and sentinel.ErrConflict when
// CreateIfNoneActive loses to an existing active request.
type Store interface {
	// CreateIfNoneActive inserts the request only if the user holds no
	// other request in an active state. The check and insert are one
	// atomic operation.
	CreateIfNoneActive(ctx context.Context, r *IdentityRequest) error

	Update(ctx context.Context, r *IdentityRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*IdentityRequest, error)
	FindActiveByUser(ctx context.Context, userID id.UserID) (*IdentityRequest, error)
	ListByStatus(ctx context.Context, status Status) ([]*IdentityRequest, error)
}
