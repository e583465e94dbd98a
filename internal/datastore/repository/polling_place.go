package repository

import (
	"context"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
)

// PollingPlaceRepository provides access to the polling_places table.
type PollingPlaceRepository interface {
	// GetByID returns ErrPollingPlaceNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.PollingPlace, error)

	// GetByIDs retrieves multiple polling places keyed by ID.
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*entities.PollingPlace, error)

	// GetByMunicipality retrieves the polling places of a municipality ordered by ID.
	GetByMunicipality(ctx context.Context, municipalityID uint) ([]*entities.PollingPlace, error)

	// GetByZone retrieves the polling places assigned to a zone ordered by ID.
	GetByZone(ctx context.Context, zoneID uint) ([]*entities.PollingPlace, error)

	// GetAll retrieves every polling place ordered by ID.
	GetAll(ctx context.Context) ([]*entities.PollingPlace, error)

	// Create inserts a polling place.
	Create(ctx context.Context, place *entities.PollingPlace) error

	// Update modifies arbitrary columns.
	// Returns ErrPollingPlaceNotFound if not found.
	Update(ctx context.Context, id uint, updates map[string]any) error

	// Count returns the number of polling places.
	Count(ctx context.Context) (int64, error)
}
