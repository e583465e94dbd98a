package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
)

// captureRepository implements CaptureRepository.
type captureRepository struct {
	db *gorm.DB
}

// NewCaptureRepository creates a new CaptureRepository.
func NewCaptureRepository(db *gorm.DB) CaptureRepository {
	return &captureRepository{db: db}
}

func (r *captureRepository) tableName() string {
	return tableCaptures
}

func (r *captureRepository) Create(ctx context.Context, capture *entities.Capture) error {
	return translateError(r.db.WithContext(ctx).Table(r.tableName()).Create(capture).Error)
}

func (r *captureRepository) GetByTable(ctx context.Context, tableID uint) (*entities.Capture, error) {
	var capture entities.Capture
	err := r.db.WithContext(ctx).Table(r.tableName()).
		Where("table_id = ?", tableID).
		First(&capture).Error
	if err != nil {
		return nil, notFound(err, ErrCaptureNotFound)
	}
	return &capture, nil
}

func (r *captureRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(r.tableName()).Count(&count).Error
	return count, err
}
