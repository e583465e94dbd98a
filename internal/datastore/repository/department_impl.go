package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/errors"
)

// departmentRepository implements DepartmentRepository.
type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository creates a new DepartmentRepository.
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) tableName() string {
	return tableDepartments
}

// GetOrCreate retrieves an existing department or creates a new one.
func (r *departmentRepository) GetOrCreate(ctx context.Context, code, name string) (*entities.Department, error) {
	dept, err := r.GetByCode(ctx, code)
	if err == nil {
		return dept, nil
	}
	if !errors.Is(err, ErrDepartmentNotFound) {
		return nil, err
	}

	dept = &entities.Department{Code: code, Name: name}
	if createErr := r.db.WithContext(ctx).Table(r.tableName()).Create(dept).Error; createErr != nil {
		// Another writer may have created it first.
		existing, findErr := r.GetByCode(ctx, code)
		if findErr != nil {
			return nil, translateError(createErr)
		}
		return existing, nil
	}

	return dept, nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id uint) (*entities.Department, error) {
	var dept entities.Department
	err := r.db.WithContext(ctx).Table(r.tableName()).First(&dept, id).Error
	if err != nil {
		return nil, notFound(err, ErrDepartmentNotFound)
	}
	return &dept, nil
}

func (r *departmentRepository) GetByCode(ctx context.Context, code string) (*entities.Department, error) {
	var dept entities.Department
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("code = ?", code).
		First(&dept).Error
	if err != nil {
		return nil, notFound(err, ErrDepartmentNotFound)
	}
	return &dept, nil
}

func (r *departmentRepository) GetAll(ctx context.Context) ([]*entities.Department, error) {
	var depts []*entities.Department
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Order("code ASC").
		Find(&depts).Error
	return depts, err
}
