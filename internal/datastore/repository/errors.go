package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/caqueta-electoral/divipola/internal/errors"
)

// Sentinel errors for repository operations.
var (
	// ErrDepartmentNotFound indicates the requested department does not exist.
	ErrDepartmentNotFound = errors.NewStd("department not found")

	// ErrMunicipalityNotFound indicates the requested municipality does not exist.
	ErrMunicipalityNotFound = errors.NewStd("municipality not found")

	// ErrZoneNotFound indicates the requested zone does not exist.
	ErrZoneNotFound = errors.NewStd("zone not found")

	// ErrPollingPlaceNotFound indicates the requested polling place does not exist.
	ErrPollingPlaceNotFound = errors.NewStd("polling place not found")

	// ErrTableNotFound indicates the requested voting table does not exist.
	ErrTableNotFound = errors.NewStd("voting table not found")

	// ErrCaptureNotFound indicates no capture exists for the table.
	ErrCaptureNotFound = errors.NewStd("capture not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")
)

// translateError maps driver errors onto repository sentinels. Managers open
// GORM with TranslateError, the message checks cover connections opened without it.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry") {
		return ErrDuplicateKey
	}
	return err
}

// notFound maps gorm.ErrRecordNotFound onto the given sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
