package entities

import (
	"fmt"
	"time"
)

// Table is a voting table of a polling place. MunicipalityID is denormalized
// from the polling place for municipality-wide queries.
type Table struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PollingPlaceID uint      `gorm:"not null;uniqueIndex:idx_table_number,priority:1" json:"polling_place_id"`
	Number         int       `gorm:"not null;uniqueIndex:idx_table_number,priority:2" json:"number"`
	MunicipalityID uint      `gorm:"not null;index" json:"municipality_id"`
	Voters         int64     `gorm:"not null;default:0" json:"voters"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Table) TableName() string {
	return "voting_tables"
}

// DisplayNumber renders the table number zero-padded, e.g. "007".
func (t *Table) DisplayNumber() string {
	return FormatTableNumber(t.Number)
}

// FormatTableNumber renders a table number the way polling stations print it.
func FormatTableNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}
