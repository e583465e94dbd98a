package repository

import (
	"context"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
)

// TableRepository provides access to the voting_tables table.
type TableRepository interface {
	// GetByID returns ErrTableNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Table, error)

	// GetActiveByPollingPlace retrieves the active tables of a polling place ordered by number.
	GetActiveByPollingPlace(ctx context.Context, pollingPlaceID uint) ([]*entities.Table, error)

	// GetByPollingPlace retrieves all tables of a polling place, active or not, ordered by number.
	GetByPollingPlace(ctx context.Context, pollingPlaceID uint) ([]*entities.Table, error)

	// GetByMunicipality retrieves the tables of a municipality ordered by ID.
	GetByMunicipality(ctx context.Context, municipalityID uint) ([]*entities.Table, error)

	// GetByPollingPlaces retrieves all tables of the given polling places ordered by ID.
	GetByPollingPlaces(ctx context.Context, pollingPlaceIDs []uint) ([]*entities.Table, error)

	// GetAll retrieves every table ordered by ID.
	GetAll(ctx context.Context) ([]*entities.Table, error)

	// Create inserts a table. Returns ErrDuplicateKey when the number is taken.
	Create(ctx context.Context, table *entities.Table) error

	// UpdateVoters sets the registered-voter count of one table.
	// Returns ErrTableNotFound if not found.
	UpdateVoters(ctx context.Context, id uint, voters int64) error

	// SumActiveVoters returns the registered-voter total of a polling place's active tables.
	SumActiveVoters(ctx context.Context, pollingPlaceID uint) (int64, error)

	// MaxNumber returns the highest table number of a polling place, 0 when it has none.
	MaxNumber(ctx context.Context, pollingPlaceID uint) (int, error)
}
