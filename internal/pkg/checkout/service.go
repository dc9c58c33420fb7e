package checkout

import (
	"errors"
	"fmt"

	"github.com/snipmarket/snipmarket/app/models"
	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/wallet"
	"gorm.io/gorm"
)

// InsufficientFundsError reports how much the cart needs against the current
// balance. Unwraps to wallet.ErrInsufficientFunds.
type InsufficientFundsError struct {
	NeededCents  int64
	BalanceCents int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %d cents, balance %d cents", e.NeededCents, e.BalanceCents)
}

func (e *InsufficientFundsError) Unwrap() error {
	return wallet.ErrInsufficientFunds
}

// PurchasedItem is one settled cart line.
type PurchasedItem struct {
	ThreadID   uint  `json:"thread_id"`
	SellerID   uint  `json:"seller_id"`
	PriceCents int64 `json:"price_cents"`
}

// Result is the outcome of a successful (or empty-cart no-op) checkout.
type Result struct {
	Purchased  []PurchasedItem `json:"purchased"`
	TotalCents int64           `json:"total_cents"`
	Currency   string          `json:"currency"`
}

// Service settles a user's cart: ownership records, seller credits and one
// consolidated buyer debit, all in a single database transaction.
type Service struct {
	repos *repository.Repositories
}

// NewService creates a checkout service from an injected repository set.
func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// HasPurchased reports whether the buyer owns the snippet. Download
// authorization and "owned" listing filters go through this.
func (s *Service) HasPurchased(buyerUserID, threadID uint) (bool, error) {
	return s.repos.Purchase.Exists(buyerUserID, threadID)
}

// Checkout runs the settlement state machine for the user's cart.
//
// Inside one transaction: the cart rows are locked first (a concurrent add
// blocks until we finish and then lands in an empty cart), then the buyer's
// wallet row. An empty cart is a successful no-op. Funds are checked against
// the nominal cart total before anything is written. Lines whose thread the
// buyer owns, or that the buyer already purchased, are skipped rather than
// charged, which makes retries after a timeout safe. The buyer sees one
// consolidated debit per checkout; each seller gets their own credit line.
func (s *Service) Checkout(userID uint) (*Result, error) {
	result := &Result{Purchased: []PurchasedItem{}}

	err := s.repos.WithTx(func(txRepos *repository.Repositories) error {
		items, err := txRepos.Cart.LockByUser(userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		wallets, err := txRepos.Wallet.LockForUpdate([]uint{userID})
		if err != nil {
			return err
		}
		buyerWallet, ok := wallets[userID]
		if !ok {
			// Checkout never auto-provisions: a user without a wallet
			// cannot have funds.
			return wallet.ErrWalletNotFound
		}
		result.Currency = buyerWallet.Currency

		var nominalTotal int64
		for _, item := range items {
			nominalTotal += item.PriceCents
		}
		if nominalTotal > buyerWallet.BalanceCents {
			return &InsufficientFundsError{
				NeededCents:  nominalTotal,
				BalanceCents: buyerWallet.BalanceCents,
			}
		}

		var chargedTotal int64
		for _, item := range items {
			thread, err := txRepos.Thread.GetByID(item.ThreadID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Listing vanished between add and checkout; skip.
					continue
				}
				return err
			}
			if thread.UserID == userID {
				// Own snippets are never charged.
				continue
			}
			owned, err := txRepos.Purchase.Exists(userID, item.ThreadID)
			if err != nil {
				return err
			}
			if owned {
				continue
			}

			if err := txRepos.Purchase.Create(&models.SnippetPurchase{
				BuyerUserID: userID,
				ThreadID:    item.ThreadID,
				PriceCents:  item.PriceCents,
				Currency:    buyerWallet.Currency,
			}); err != nil {
				return err
			}

			if item.PriceCents > 0 {
				if _, err := txRepos.Wallet.GetOrCreate(thread.UserID, buyerWallet.Currency); err != nil {
					return err
				}
				if err := wallet.Credit(txRepos, thread.UserID, item.PriceCents); err != nil {
					return err
				}
				buyer := userID
				seller := thread.UserID
				if err := txRepos.Transaction.Create(&models.WalletTransaction{
					Type:        models.TransactionTypeTransfer,
					AmountCents: item.PriceCents,
					Currency:    buyerWallet.Currency,
					Status:      models.TransactionStatusConfirmed,
					FromUserID:  &buyer,
					ToUserID:    &seller,
					Metadata:    models.TransactionMetadata(models.PaymentProviderInternal, "snippet_purchase", item.ThreadID, nil),
				}); err != nil {
					return err
				}
				chargedTotal += item.PriceCents
			}

			result.Purchased = append(result.Purchased, PurchasedItem{
				ThreadID:   item.ThreadID,
				SellerID:   thread.UserID,
				PriceCents: item.PriceCents,
			})
		}

		if chargedTotal > 0 {
			if err := wallet.Debit(txRepos, userID, chargedTotal); err != nil {
				return err
			}
			buyer := userID
			if err := txRepos.Transaction.Create(&models.WalletTransaction{
				Type:        models.TransactionTypeTransfer,
				AmountCents: chargedTotal,
				Currency:    buyerWallet.Currency,
				Status:      models.TransactionStatusConfirmed,
				FromUserID:  &buyer,
				ToUserID:    nil,
				Metadata:    models.TransactionMetadata(models.PaymentProviderInternal, "checkout", 0, nil),
			}); err != nil {
				return err
			}
		}
		result.TotalCents = chargedTotal

		// Clear unconditionally while still holding the cart lock.
		return txRepos.Cart.DeleteAllByUser(userID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
