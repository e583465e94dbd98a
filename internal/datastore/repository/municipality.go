package repository

import (
	"context"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
)

// MunicipalityRepository provides access to the municipalities table.
type MunicipalityRepository interface {
	// GetOrCreate retrieves a municipality by (departmentID, code) or creates it.
	GetOrCreate(ctx context.Context, departmentID uint, code, name string) (*entities.Municipality, error)

	// GetByID returns ErrMunicipalityNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Municipality, error)

	// GetByDepartment retrieves the municipalities of a department ordered by code.
	GetByDepartment(ctx context.Context, departmentID uint) ([]*entities.Municipality, error)

	// GetAll retrieves every municipality ordered by department and code.
	GetAll(ctx context.Context) ([]*entities.Municipality, error)

	// UpdatePopulation sets the census population.
	// Returns ErrMunicipalityNotFound if not found.
	UpdatePopulation(ctx context.Context, id uint, population int64) error

	// Update modifies arbitrary columns.
	// Returns ErrMunicipalityNotFound if not found.
	Update(ctx context.Context, id uint, updates map[string]any) error
}
