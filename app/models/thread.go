package models

import (
	"time"

	"gorm.io/gorm"
)

// Thread is a snippet listing in the marketplace forum. The listing body
// carries a semi-structured metadata block (price, license, tags) that is
// parsed by the listing package; the rest of the forum features live outside
// this service and only the ownership and pricing fields matter here.
type Thread struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`
	Content   string         `gorm:"type:longtext" json:"content"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Thread) TableName() string {
	return "threads"
}
