package entities

import "time"

// Capture is the confirmed vote tally of one table. TableID is unique, so a
// table holds at most one capture.
type Capture struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TableID      uint      `gorm:"not null;uniqueIndex" json:"table_id"`
	ValidVotes   int64     `gorm:"not null" json:"valid_votes"`
	BlankVotes   int64     `gorm:"not null" json:"blank_votes"`
	NullVotes    int64     `gorm:"not null" json:"null_votes"`
	Observations string    `gorm:"type:text" json:"observations,omitempty"`
	ConfirmedAt  time.Time `gorm:"not null" json:"confirmed_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (Capture) TableName() string {
	return "table_captures"
}

// TotalVotes is the sum of valid, blank and null votes.
func (c *Capture) TotalVotes() int64 {
	return c.ValidVotes + c.BlankVotes + c.NullVotes
}
