package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store is the unit of work over the hierarchy tables.
type Store interface {
	Departments() DepartmentRepository
	Municipalities() MunicipalityRepository
	Zones() ZoneRepository
	PollingPlaces() PollingPlaceRepository
	Tables() TableRepository
	Captures() CaptureRepository

	// WithinTx runs fn against a Store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// gormStore implements Store.
type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store over db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Departments() DepartmentRepository {
	return NewDepartmentRepository(s.db)
}

func (s *gormStore) Municipalities() MunicipalityRepository {
	return NewMunicipalityRepository(s.db)
}

func (s *gormStore) Zones() ZoneRepository {
	return NewZoneRepository(s.db)
}

func (s *gormStore) PollingPlaces() PollingPlaceRepository {
	return NewPollingPlaceRepository(s.db)
}

func (s *gormStore) Tables() TableRepository {
	return NewTableRepository(s.db)
}

func (s *gormStore) Captures() CaptureRepository {
	return NewCaptureRepository(s.db)
}

// WithinTx wraps gorm's Transaction, which also rolls back on panic.
// Calling it on a transactional Store opens a savepoint.
func (s *gormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
