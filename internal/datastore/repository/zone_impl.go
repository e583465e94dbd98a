package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/divipola"
)

// zoneRepository implements ZoneRepository.
type zoneRepository struct {
	db *gorm.DB
}

// NewZoneRepository creates a new ZoneRepository.
func NewZoneRepository(db *gorm.DB) ZoneRepository {
	return &zoneRepository{db: db}
}

func (r *zoneRepository) tableName() string {
	return tableZones
}

func (r *zoneRepository) GetByID(ctx context.Context, id uint) (*entities.Zone, error) {
	var zone entities.Zone
	err := r.db.WithContext(ctx).Table(r.tableName()).First(&zone, id).Error
	if err != nil {
		return nil, notFound(err, ErrZoneNotFound)
	}
	return &zone, nil
}

func (r *zoneRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*entities.Zone, error) {
	result := make(map[uint]*entities.Zone, len(ids))
	for _, chunk := range chunkIDs(ids) {
		var zones []*entities.Zone
		if err := r.db.WithContext(ctx).Table(r.tableName()).
			Where("id IN ?", chunk).
			Find(&zones).Error; err != nil {
			return nil, err
		}
		for _, z := range zones {
			result[z.ID] = z
		}
	}
	return result, nil
}

func (r *zoneRepository) GetByCode(ctx context.Context, municipalityID uint, code divipola.ZoneCode) (*entities.Zone, error) {
	var zone entities.Zone
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("municipality_id = ? AND code = ?", municipalityID, code).
		First(&zone).Error
	if err != nil {
		return nil, notFound(err, ErrZoneNotFound)
	}
	return &zone, nil
}

func (r *zoneRepository) GetByMunicipality(ctx context.Context, municipalityID uint) ([]*entities.Zone, error) {
	var zones []*entities.Zone
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("municipality_id = ?", municipalityID).
		Order("code ASC").
		Find(&zones).Error
	return zones, err
}

func (r *zoneRepository) GetAll(ctx context.Context) ([]*entities.Zone, error) {
	var zones []*entities.Zone
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Order("municipality_id ASC, code ASC").
		Find(&zones).Error
	return zones, err
}

func (r *zoneRepository) Create(ctx context.Context, zone *entities.Zone) error {
	return translateError(r.db.WithContext(ctx).Table(r.tableName()).Create(zone).Error)
}

func (r *zoneRepository) Update(ctx context.Context, id uint, updates map[string]any) error {
	return updateByID(ctx, r.db, r.tableName(), id, updates, ErrZoneNotFound)
}
