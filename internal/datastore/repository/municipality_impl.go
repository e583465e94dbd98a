package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/errors"
)

// municipalityRepository implements MunicipalityRepository.
type municipalityRepository struct {
	db *gorm.DB
}

// NewMunicipalityRepository creates a new MunicipalityRepository.
func NewMunicipalityRepository(db *gorm.DB) MunicipalityRepository {
	return &municipalityRepository{db: db}
}

func (r *municipalityRepository) tableName() string {
	return tableMunicipalities
}

func (r *municipalityRepository) getByCode(ctx context.Context, departmentID uint, code string) (*entities.Municipality, error) {
	var m entities.Municipality
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("department_id = ? AND code = ?", departmentID, code).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, ErrMunicipalityNotFound)
	}
	return &m, nil
}

// GetOrCreate retrieves an existing municipality or creates a new one.
func (r *municipalityRepository) GetOrCreate(ctx context.Context, departmentID uint, code, name string) (*entities.Municipality, error) {
	m, err := r.getByCode(ctx, departmentID, code)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, ErrMunicipalityNotFound) {
		return nil, err
	}

	m = &entities.Municipality{DepartmentID: departmentID, Code: code, Name: name, Active: true}
	if createErr := r.db.WithContext(ctx).Table(r.tableName()).Create(m).Error; createErr != nil {
		existing, findErr := r.getByCode(ctx, departmentID, code)
		if findErr != nil {
			return nil, translateError(createErr)
		}
		return existing, nil
	}

	return m, nil
}

func (r *municipalityRepository) GetByID(ctx context.Context, id uint) (*entities.Municipality, error) {
	var m entities.Municipality
	err := r.db.WithContext(ctx).Table(r.tableName()).First(&m, id).Error
	if err != nil {
		return nil, notFound(err, ErrMunicipalityNotFound)
	}
	return &m, nil
}

func (r *municipalityRepository) GetByDepartment(ctx context.Context, departmentID uint) ([]*entities.Municipality, error) {
	var ms []*entities.Municipality
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("department_id = ?", departmentID).
		Order("code ASC").
		Find(&ms).Error
	return ms, err
}

func (r *municipalityRepository) GetAll(ctx context.Context) ([]*entities.Municipality, error) {
	var ms []*entities.Municipality
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Order("department_id ASC, code ASC").
		Find(&ms).Error
	return ms, err
}

func (r *municipalityRepository) UpdatePopulation(ctx context.Context, id uint, population int64) error {
	return r.Update(ctx, id, map[string]any{"population": population})
}

func (r *municipalityRepository) Update(ctx context.Context, id uint, updates map[string]any) error {
	return updateByID(ctx, r.db, r.tableName(), id, updates, ErrMunicipalityNotFound)
}
