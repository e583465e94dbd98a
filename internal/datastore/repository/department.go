package repository

import (
	"context"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
)

// DepartmentRepository provides access to the departments table.
type DepartmentRepository interface {
	// GetOrCreate retrieves a department by code or creates it.
	// The name of an existing department is NOT updated.
	GetOrCreate(ctx context.Context, code, name string) (*entities.Department, error)

	// GetByID returns ErrDepartmentNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Department, error)

	// GetByCode returns ErrDepartmentNotFound if not found.
	GetByCode(ctx context.Context, code string) (*entities.Department, error)

	// GetAll retrieves all departments ordered by code.
	GetAll(ctx context.Context) ([]*entities.Department, error)
}
