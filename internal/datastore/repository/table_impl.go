package repository

import (
	"cmp"
	"context"
	"slices"

	"gorm.io/gorm"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
)

// tableRepository implements TableRepository.
type tableRepository struct {
	db *gorm.DB
}

// NewTableRepository creates a new TableRepository.
func NewTableRepository(db *gorm.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) tableName() string {
	return tableVotingTables
}

func (r *tableRepository) GetByID(ctx context.Context, id uint) (*entities.Table, error) {
	var table entities.Table
	err := r.db.WithContext(ctx).Table(r.tableName()).First(&table, id).Error
	if err != nil {
		return nil, notFound(err, ErrTableNotFound)
	}
	return &table, nil
}

func (r *tableRepository) GetActiveByPollingPlace(ctx context.Context, pollingPlaceID uint) ([]*entities.Table, error) {
	var tables []*entities.Table
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("polling_place_id = ? AND active = ?", pollingPlaceID, true).
		Order("number ASC").
		Find(&tables).Error
	return tables, err
}

func (r *tableRepository) GetByPollingPlace(ctx context.Context, pollingPlaceID uint) ([]*entities.Table, error) {
	var tables []*entities.Table
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("polling_place_id = ?", pollingPlaceID).
		Order("number ASC").
		Find(&tables).Error
	return tables, err
}

func (r *tableRepository) GetByMunicipality(ctx context.Context, municipalityID uint) ([]*entities.Table, error) {
	var tables []*entities.Table
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("municipality_id = ?", municipalityID).
		Order("id ASC").
		Find(&tables).Error
	return tables, err
}

func (r *tableRepository) GetByPollingPlaces(ctx context.Context, pollingPlaceIDs []uint) ([]*entities.Table, error) {
	var tables []*entities.Table
	for _, chunk := range chunkIDs(pollingPlaceIDs) {
		var batch []*entities.Table
		if err := r.db.WithContext(ctx).Table(r.tableName()).
			Where("polling_place_id IN ?", chunk).
			Find(&batch).Error; err != nil {
			return nil, err
		}
		tables = append(tables, batch...)
	}
	slices.SortFunc(tables, func(a, b *entities.Table) int { return cmp.Compare(a.ID, b.ID) })
	return tables, nil
}

func (r *tableRepository) GetAll(ctx context.Context) ([]*entities.Table, error) {
	var tables []*entities.Table
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Order("id ASC").
		Find(&tables).Error
	return tables, err
}

func (r *tableRepository) Create(ctx context.Context, table *entities.Table) error {
	return translateError(r.db.WithContext(ctx).Table(r.tableName()).Create(table).Error)
}

func (r *tableRepository) UpdateVoters(ctx context.Context, id uint, voters int64) error {
	return updateByID(ctx, r.db, r.tableName(), id, map[string]any{"voters": voters}, ErrTableNotFound)
}

func (r *tableRepository) SumActiveVoters(ctx context.Context, pollingPlaceID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Select("COALESCE(SUM(voters), 0)").
		Where("polling_place_id = ? AND active = ?", pollingPlaceID, true).
		Scan(&total).Error
	return total, err
}

func (r *tableRepository) MaxNumber(ctx context.Context, pollingPlaceID uint) (int, error) {
	var maxNumber int
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Select("COALESCE(MAX(number), 0)").
		Where("polling_place_id = ?", pollingPlaceID).
		Scan(&maxNumber).Error
	return maxNumber, err
}
