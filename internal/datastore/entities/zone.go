package entities

import (
	"time"

	"github.com/caqueta-electoral/divipola/internal/divipola"
)

// Zone groups polling places of a municipality.
// (MunicipalityID, Code) is unique.
type Zone struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	MunicipalityID uint              `gorm:"not null;uniqueIndex:idx_zone_code,priority:1" json:"municipality_id"`
	Code           divipola.ZoneCode `gorm:"type:varchar(2);not null;uniqueIndex:idx_zone_code,priority:2" json:"code"`
	Name           string            `gorm:"type:varchar(100);not null" json:"name"`
	Label          string            `gorm:"type:varchar(100)" json:"label"`
	Kind           divipola.ZoneKind `gorm:"type:varchar(30);not null" json:"kind"`
	Active         bool              `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Zone) TableName() string {
	return "zones"
}
