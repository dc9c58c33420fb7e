package models

import (
	"encoding/json"
	"time"
)

// Transaction type constants
const (
	TransactionTypeDeposit  = "deposit"
	TransactionTypeTransfer = "transfer"
)

// Transaction status constants. Status only ever moves
// pending -> confirmed or pending -> failed.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusConfirmed = "confirmed"
	TransactionStatusFailed    = "failed"
)

// Payment provider tags stored in transaction metadata
const (
	PaymentProviderPix      = "pix"
	PaymentProviderCard     = "card"
	PaymentProviderInternal = "internal"
)

// WalletTransaction is an append-only ledger entry. Deposits start pending
// and are finalized by the PSP webhook or the simulated card charge; internal
// transfers and checkout settlements are created already confirmed since they
// have no pending window.
type WalletTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Type        string    `gorm:"type:varchar(20);not null;index" json:"type"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Currency    string    `gorm:"type:varchar(3);not null" json:"currency"`
	Status      string    `gorm:"type:varchar(20);not null;index" json:"status"`
	FromUserID  *uint     `gorm:"index" json:"from_user_id"`
	ToUserID    *uint     `gorm:"index" json:"to_user_id"`
	ExternalRef string    `gorm:"type:varchar(191);index" json:"external_ref"`
	Metadata    string    `gorm:"type:text" json:"metadata"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// IsFinal reports whether the transaction reached a terminal status.
func (t *WalletTransaction) IsFinal() bool {
	return t.Status == TransactionStatusConfirmed || t.Status == TransactionStatusFailed
}

// TransactionMetadata renders the free-form metadata column. threadID 0 is
// omitted; extra carries provider-specific context keys.
func TransactionMetadata(provider, context string, threadID uint, extra map[string]interface{}) string {
	meta := map[string]interface{}{
		"provider": provider,
		"context":  context,
	}
	if threadID != 0 {
		meta["thread_id"] = threadID
	}
	for k, v := range extra {
		meta[k] = v
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
