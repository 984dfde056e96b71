package models

import "time"

// NowServingID is the primary key of the single now-serving row.
const NowServingID uint = 1

// NowServing is a singleton row holding the token number of the order most
// recently marked served. It is overwritten unconditionally on every serve,
// so it is not necessarily the lowest pending token.
type NowServing struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CurrentTokenNumber int       `gorm:"not null;default:0" json:"current_token_number"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name for the NowServing model
func (NowServing) TableName() string {
	return "now_servings"
}
