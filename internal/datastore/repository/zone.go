package repository

import (
	"context"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/divipola"
)

// ZoneRepository provides access to the zones table.
type ZoneRepository interface {
	// GetByID returns ErrZoneNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Zone, error)

	// GetByIDs retrieves multiple zones keyed by ID. Missing IDs are absent from the map.
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*entities.Zone, error)

	// GetByCode retrieves the zone with the given code in a municipality.
	// Returns ErrZoneNotFound if not found.
	GetByCode(ctx context.Context, municipalityID uint, code divipola.ZoneCode) (*entities.Zone, error)

	// GetByMunicipality retrieves the zones of a municipality ordered by code.
	GetByMunicipality(ctx context.Context, municipalityID uint) ([]*entities.Zone, error)

	// GetAll retrieves every zone ordered by municipality and code.
	GetAll(ctx context.Context) ([]*entities.Zone, error)

	// Create inserts a zone. Returns ErrDuplicateKey when the municipality
	// already has a zone with the same code.
	Create(ctx context.Context, zone *entities.Zone) error

	// Update modifies arbitrary columns.
	// Returns ErrZoneNotFound if not found.
	Update(ctx context.Context, id uint, updates map[string]any) error
}
