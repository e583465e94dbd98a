package repository

import (
	"context"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
)

// CaptureRepository provides access to the table_captures table.
type CaptureRepository interface {
	// Create stores a capture. Returns ErrDuplicateKey when the table
	// already has one; the stored capture is left unchanged.
	Create(ctx context.Context, capture *entities.Capture) error

	// GetByTable returns ErrCaptureNotFound if the table has no capture.
	GetByTable(ctx context.Context, tableID uint) (*entities.Capture, error)

	// Count returns the number of stored captures.
	Count(ctx context.Context) (int64, error)
}
