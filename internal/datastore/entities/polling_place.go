package entities

import "time"

// PollingPlace is a physical voting site. ZoneID is nil until the census
// reconciler assigns it. Capacity is the declared total of registered voters.
type PollingPlace struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Code           *string   `gorm:"type:varchar(10)" json:"code,omitempty"`
	Name           string    `gorm:"type:varchar(200);not null" json:"name"`
	Address        string    `gorm:"type:varchar(300)" json:"address"`
	MunicipalityID uint      `gorm:"not null;index" json:"municipality_id"`
	ZoneID         *uint     `gorm:"index" json:"zone_id,omitempty"`
	Capacity       int64     `gorm:"not null;default:0" json:"capacity"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (PollingPlace) TableName() string {
	return "polling_places"
}
