package models

import "time"

// CanteenStatusID is the primary key of the single status row.
const CanteenStatusID uint = 1

// CanteenStatus is a singleton row recording whether the canteen is taking
// orders. Each toggle overwrites the row wholesale, last write wins.
type CanteenStatus struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IsOpen    bool      `gorm:"not null;default:false" json:"is_open"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the CanteenStatus model
func (CanteenStatus) TableName() string {
	return "canteen_statuses"
}
