package models

import "time"

// SessionCounterID is the primary key of the single counter row.
const SessionCounterID uint = 1

// DefaultSessionID is assumed when the counter row has never been written.
const DefaultSessionID = "default"

// SessionCounter is a singleton row holding the token sequence state.
// LastTokenNumber increases by one per issued token within a session;
// SessionID changes only when the admin resets the counter.
type SessionCounter struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	LastTokenNumber int       `gorm:"not null;default:0" json:"last_token_number"`
	SessionID       string    `gorm:"not null" json:"session_id"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the SessionCounter model
func (SessionCounter) TableName() string {
	return "session_counters"
}
