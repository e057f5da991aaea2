package room

import (
	"context"

	"github.com/google/uuid"
)

// Catalog is the read-only lookup contract against the hotel/room catalog.
type Catalog interface {
	// FindSnapshot returns the pricing/ownership view of a room.
	FindSnapshot(ctx context.Context, roomID uuid.UUID) (*Snapshot, error)

	// HotelIDsByOwner returns the hotels owned by the given principal.
	HotelIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
}
