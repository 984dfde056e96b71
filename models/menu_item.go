package models

import (
	"time"

	"gorm.io/gorm"
)

// MenuItem represents a dish the canteen currently offers.
// There is no update-in-place: editing an item means deleting and re-adding it.
type MenuItem struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	Price      int            `gorm:"not null;check:price >= 0" json:"price"` // in rupees, whole units
	ImageS3Key *string        `json:"image_s3_key"`                           // nullable, S3 key for the item photo
	ImageURL   *string        `gorm:"-" json:"image_url,omitempty"`           // computed field, presigned URL for the photo
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}
