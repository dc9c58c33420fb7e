package models

import (
	"time"
)

// SnippetPurchase is the proof of ownership for a bought snippet. Created
// exactly once per (buyer, thread) at settlement time, never updated or
// deleted; download authorization and "owned" filters read this table.
type SnippetPurchase struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BuyerUserID uint      `gorm:"not null;index:ux_snippet_purchases_buyer_thread,unique,priority:1" json:"buyer_user_id"`
	ThreadID    uint      `gorm:"not null;index:ux_snippet_purchases_buyer_thread,unique,priority:2" json:"thread_id"`
	PriceCents  int64     `gorm:"not null;default:0" json:"price_cents"`
	Currency    string    `gorm:"type:varchar(3);not null" json:"currency"`
	PurchasedAt time.Time `gorm:"autoCreateTime" json:"purchased_at"`

	Thread Thread `gorm:"foreignKey:ThreadID" json:"-"`
}

func (SnippetPurchase) TableName() string {
	return "snippet_purchases"
}
