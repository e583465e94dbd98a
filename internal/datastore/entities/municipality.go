package entities

import "time"

// Municipality belongs to a department. Population is the registered census
// population reconciled from the census reference.
type Municipality struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DepartmentID uint      `gorm:"not null;uniqueIndex:idx_municipality_code,priority:1" json:"department_id"`
	Code         string    `gorm:"type:varchar(5);not null;uniqueIndex:idx_municipality_code,priority:2" json:"code"`
	Name         string    `gorm:"type:varchar(100);not null;index" json:"name"`
	Population   int64     `gorm:"not null;default:0" json:"population"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Municipality) TableName() string {
	return "municipalities"
}
