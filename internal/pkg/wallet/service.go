package wallet

import (
	"time"

	"github.com/snipmarket/snipmarket/app/models"
	"github.com/snipmarket/snipmarket/app/repository"
)

// Service provides wallet operations.
//
// Money invariants:
// - No balance update without a matching ledger entry
// - The ledger is append-only
// - All money mutations happen inside a DB transaction holding the row lock
type Service struct {
	repos *repository.Repositories
}

// NewService creates a wallet service from an injected repository set.
func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// GetBalance returns the user's wallet, auto-provisioning a zero-balance
// wallet in the default currency if none exists. Never fails for a valid
// user id.
func (s *Service) GetBalance(userID uint) (*models.Wallet, error) {
	return s.repos.Wallet.GetOrCreate(userID, models.DefaultCurrency)
}

// Credit adds amountCents to the user's balance inside the caller's
// transaction scope. The caller holds the row lock, has already reconciled
// currencies, and writes the paired WalletTransaction row in the same unit;
// this primitive does not re-check.
func Credit(txRepos *repository.Repositories, userID uint, amountCents int64) error {
	return txRepos.Wallet.ApplyDelta(userID, amountCents)
}

// Debit removes amountCents from the user's balance. Same caller contract as
// Credit: lock held, funds verified beforehand in the same transaction.
func Debit(txRepos *repository.Repositories, userID uint, amountCents int64) error {
	return txRepos.Wallet.ApplyDelta(userID, -amountCents)
}

// HistoryEntry is a ledger row with usernames resolved for display.
type HistoryEntry struct {
	ID           uint      `json:"id"`
	Type         string    `json:"type"`
	AmountCents  int64     `json:"amount_cents"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	FromUserID   *uint     `json:"from_user_id"`
	ToUserID     *uint     `json:"to_user_id"`
	FromUsername string    `json:"from_username,omitempty"`
	ToUsername   string    `json:"to_username,omitempty"`
	ExternalRef  string    `json:"external_ref,omitempty"`
	Metadata     string    `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const defaultHistoryLimit = 50
const maxHistoryLimit = 200

// History returns the most recent ledger entries touching the user, newest
// first, with from/to usernames resolved.
func (s *Service) History(userID uint, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	txs, err := s.repos.Transaction.ListByUser(userID, limit)
	if err != nil {
		return nil, err
	}

	var ids []uint
	seen := make(map[uint]struct{})
	for _, tx := range txs {
		for _, ref := range []*uint{tx.FromUserID, tx.ToUserID} {
			if ref == nil {
				continue
			}
			if _, ok := seen[*ref]; ok {
				continue
			}
			seen[*ref] = struct{}{}
			ids = append(ids, *ref)
		}
	}
	names, err := s.repos.User.NamesByIDs(ids)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(txs))
	for _, tx := range txs {
		entry := HistoryEntry{
			ID:          tx.ID,
			Type:        tx.Type,
			AmountCents: tx.AmountCents,
			Currency:    tx.Currency,
			Status:      tx.Status,
			FromUserID:  tx.FromUserID,
			ToUserID:    tx.ToUserID,
			ExternalRef: tx.ExternalRef,
			Metadata:    tx.Metadata,
			CreatedAt:   tx.CreatedAt,
		}
		if tx.FromUserID != nil {
			entry.FromUsername = names[*tx.FromUserID]
		}
		if tx.ToUserID != nil {
			entry.ToUsername = names[*tx.ToUserID]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
