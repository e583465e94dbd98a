package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
)

// pollingPlaceRepository implements PollingPlaceRepository.
type pollingPlaceRepository struct {
	db *gorm.DB
}

// NewPollingPlaceRepository creates a new PollingPlaceRepository.
func NewPollingPlaceRepository(db *gorm.DB) PollingPlaceRepository {
	return &pollingPlaceRepository{db: db}
}

func (r *pollingPlaceRepository) tableName() string {
	return tablePollingPlaces
}

func (r *pollingPlaceRepository) GetByID(ctx context.Context, id uint) (*entities.PollingPlace, error) {
	var place entities.PollingPlace
	err := r.db.WithContext(ctx).Table(r.tableName()).First(&place, id).Error
	if err != nil {
		return nil, notFound(err, ErrPollingPlaceNotFound)
	}
	return &place, nil
}

func (r *pollingPlaceRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*entities.PollingPlace, error) {
	result := make(map[uint]*entities.PollingPlace, len(ids))
	for _, chunk := range chunkIDs(ids) {
		var places []*entities.PollingPlace
		if err := r.db.WithContext(ctx).Table(r.tableName()).
			Where("id IN ?", chunk).
			Find(&places).Error; err != nil {
			return nil, err
		}
		for _, p := range places {
			result[p.ID] = p
		}
	}
	return result, nil
}

func (r *pollingPlaceRepository) GetByMunicipality(ctx context.Context, municipalityID uint) ([]*entities.PollingPlace, error) {
	var places []*entities.PollingPlace
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("municipality_id = ?", municipalityID).
		Order("id ASC").
		Find(&places).Error
	return places, err
}

func (r *pollingPlaceRepository) GetByZone(ctx context.Context, zoneID uint) ([]*entities.PollingPlace, error) {
	var places []*entities.PollingPlace
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("zone_id = ?", zoneID).
		Order("id ASC").
		Find(&places).Error
	return places, err
}

func (r *pollingPlaceRepository) GetAll(ctx context.Context) ([]*entities.PollingPlace, error) {
	var places []*entities.PollingPlace
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Order("id ASC").
		Find(&places).Error
	return places, err
}

func (r *pollingPlaceRepository) Create(ctx context.Context, place *entities.PollingPlace) error {
	return translateError(r.db.WithContext(ctx).Table(r.tableName()).Create(place).Error)
}

func (r *pollingPlaceRepository) Update(ctx context.Context, id uint, updates map[string]any) error {
	return updateByID(ctx, r.db, r.tableName(), id, updates, ErrPollingPlaceNotFound)
}

func (r *pollingPlaceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(r.tableName()).Count(&count).Error
	return count, err
}
