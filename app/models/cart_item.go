package models

import (
	"time"
)

// CartItem is a candidate purchase: a thread reference with the price
// snapshot taken at add-time. Unique per (user, thread); re-adding refreshes
// the snapshot instead of duplicating.
type CartItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index:ux_cart_items_user_thread,unique,priority:1" json:"user_id"`
	ThreadID   uint      `gorm:"not null;index:ux_cart_items_user_thread,unique,priority:2" json:"thread_id"`
	PriceCents int64     `gorm:"not null;default:0" json:"price_cents"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Thread Thread `gorm:"foreignKey:ThreadID" json:"-"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
