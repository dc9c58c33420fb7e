package models

import (
	"time"
)

// DefaultCurrency is used when a wallet is auto-provisioned without an
// explicit currency (first balance query). Every other wallet-creating flow
// must pass its currency explicitly.
const DefaultCurrency = "BRL"

// Wallet holds a user's balance in integer minor units. One wallet per user;
// the balance is only ever mutated inside a transaction that holds the row
// lock, and never without a matching WalletTransaction row.
type Wallet struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	BalanceCents int64     `gorm:"not null;default:0" json:"balance_cents"`
	Currency     string    `gorm:"type:varchar(3);not null;default:'BRL'" json:"currency"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// HasFunds reports whether the wallet covers the given amount.
func (w *Wallet) HasFunds(amountCents int64) bool {
	return w.BalanceCents >= amountCents
}
