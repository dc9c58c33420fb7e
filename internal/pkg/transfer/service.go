package transfer

import (
	"errors"

	"github.com/snipmarket/snipmarket/app/models"
	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/wallet"
)

var (
	// ErrForbidden means the caller tried to move someone else's money.
	ErrForbidden = errors.New("sender must be the authenticated caller")
	// ErrInvalidTarget means sender and recipient are the same user.
	ErrInvalidTarget = errors.New("cannot transfer to yourself")
)

// Service moves balance directly between two users.
type Service struct {
	repos *repository.Repositories
}

// NewService creates a peer transfer service from an injected repository set.
func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// Transfer debits fromUserID and credits toUserID atomically. Both wallet
// rows are locked in one query ordered by ascending user id, so two transfers
// racing in opposite directions cannot deadlock. The ledger row, the debit
// and the credit all commit together or not at all.
func (s *Service) Transfer(callerUserID, fromUserID, toUserID uint, amountCents int64, currency string) (*models.WalletTransaction, error) {
	if fromUserID != callerUserID {
		return nil, ErrForbidden
	}
	if fromUserID == toUserID {
		return nil, ErrInvalidTarget
	}
	if amountCents <= 0 {
		return nil, wallet.ErrInvalidAmount
	}

	var ledger *models.WalletTransaction
	err := s.repos.WithTx(func(txRepos *repository.Repositories) error {
		// Provision first so the locking query sees both rows.
		if _, err := txRepos.Wallet.GetOrCreate(fromUserID, currency); err != nil {
			return err
		}
		if _, err := txRepos.Wallet.GetOrCreate(toUserID, currency); err != nil {
			return err
		}

		wallets, err := txRepos.Wallet.LockForUpdate([]uint{fromUserID, toUserID})
		if err != nil {
			return err
		}
		sender, ok := wallets[fromUserID]
		if !ok {
			return wallet.ErrWalletNotFound
		}
		if _, ok := wallets[toUserID]; !ok {
			return wallet.ErrWalletNotFound
		}

		if sender.Currency != currency {
			return wallet.ErrCurrencyMismatch
		}
		if !sender.HasFunds(amountCents) {
			return wallet.ErrInsufficientFunds
		}

		from := fromUserID
		to := toUserID
		ledger = &models.WalletTransaction{
			Type:        models.TransactionTypeTransfer,
			AmountCents: amountCents,
			Currency:    currency,
			Status:      models.TransactionStatusConfirmed,
			FromUserID:  &from,
			ToUserID:    &to,
			Metadata:    models.TransactionMetadata(models.PaymentProviderInternal, "peer_transfer", 0, nil),
		}
		if err := txRepos.Transaction.Create(ledger); err != nil {
			return err
		}

		if err := wallet.Debit(txRepos, fromUserID, amountCents); err != nil {
			return err
		}
		return wallet.Credit(txRepos, toUserID, amountCents)
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}
