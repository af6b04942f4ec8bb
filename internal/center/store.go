package center

import (
	"context"

	id "civid/pkg/domain"
)

// Store persists centers. Implementations return sentinel.ErrNotFound for
// unknown IDs.
type Store interface {
	Create(ctx context.Context, c *Center) error
	Update(ctx context.Context, c *Center) error
	FindByID(ctx context.Context, centerID id.CenterID) (*Center, error)
	List(ctx context.Context) ([]*Center, error)
	ListActive(ctx context.Context) ([]*Center, error)
}
