package payments

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/snipmarket/snipmarket/app/models"
	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/wallet"
	"gorm.io/gorm"
)

var (
	// ErrValidation covers missing or malformed intake input.
	ErrValidation = errors.New("invalid payment input")
	// ErrPaymentMethodNotFound means the card does not exist or belongs to
	// someone else.
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	// ErrTransactionNotFound means the webhook referenced an unknown
	// transaction; surfaced to the sender, never silently dropped.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrRecipientNotFound means the transfer QR target username is unknown.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrUnknownWebhookStatus means the PSP sent a status we do not handle.
	ErrUnknownWebhookStatus = errors.New("unknown webhook status")
)

// Service implements the payment intake adapters: card attach/top-up, PSP
// deposit intents with QR payloads, and webhook confirmation. All balance
// effects funnel through the wallet primitives under row locks.
type Service struct {
	repos     *repository.Repositories
	processor ChargeProcessor
}

// NewService creates a payments service. A nil processor falls back to the
// simulated one.
func NewService(repos *repository.Repositories, processor ChargeProcessor) *Service {
	if processor == nil {
		processor = SimulatedProcessor{}
	}
	return &Service{repos: repos, processor: processor}
}

// AttachCard stores an opaque PSP token plus display metadata. The token is
// never validated against the processor here.
func (s *Service) AttachCard(userID uint, token, brand, last4 string, expMonth, expYear int) (*models.PaymentMethod, error) {
	method := &models.PaymentMethod{
		UserID:     userID,
		Provider:   models.PaymentProviderCard,
		ExternalID: strings.TrimSpace(token),
		Brand:      strings.TrimSpace(brand),
		Last4:      strings.TrimSpace(last4),
		ExpMonth:   expMonth,
		ExpYear:    expYear,
	}
	if method.ExternalID == "" || method.Last4 == "" {
		return nil, ErrValidation
	}
	if err := method.Validate(); err != nil {
		return nil, ErrValidation
	}
	if err := s.repos.PaymentMethod.Create(method); err != nil {
		return nil, err
	}
	return method, nil
}

// ListCards returns the user's attached payment methods.
func (s *Service) ListCards(userID uint) ([]models.PaymentMethod, error) {
	return s.repos.PaymentMethod.ListByUser(userID)
}

// CardTopUp charges the stored card and credits the wallet. The deposit is
// recorded pending first; on an approved charge the wallet provisioning,
// credit and confirmation commit as one unit, and on a declined charge the
// transaction is marked failed with the balance untouched.
func (s *Service) CardTopUp(userID, paymentMethodID uint, amountCents int64, currency string) (*models.WalletTransaction, error) {
	if amountCents <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return nil, ErrValidation
	}

	method, err := s.repos.PaymentMethod.GetByIDForUser(paymentMethodID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, err
	}

	// A currency clash must surface before the card is charged, not after.
	if existing, err := s.repos.Wallet.GetByUserID(userID); err == nil {
		if existing.Currency != currency {
			return nil, wallet.ErrCurrencyMismatch
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	to := userID
	ledger := &models.WalletTransaction{
		Type:        models.TransactionTypeDeposit,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      models.TransactionStatusPending,
		ToUserID:    &to,
		Metadata: models.TransactionMetadata(models.PaymentProviderCard, "card_topup", 0, map[string]interface{}{
			"payment_method_id": method.ID,
			"last4":             method.Last4,
		}),
	}
	if err := s.repos.Transaction.Create(ledger); err != nil {
		return nil, err
	}

	if err := s.processor.Charge(method.ExternalID, amountCents); err != nil {
		if markErr := s.repos.Transaction.MarkFailed(ledger.ID, ""); markErr != nil {
			return nil, markErr
		}
		ledger.Status = models.TransactionStatusFailed
		return ledger, ErrChargeDeclined
	}

	err = s.repos.WithTx(func(txRepos *repository.Repositories) error {
		w, err := txRepos.Wallet.GetOrCreate(userID, currency)
		if err != nil {
			return err
		}
		if w.Currency != currency {
			return wallet.ErrCurrencyMismatch
		}
		if _, err := txRepos.Wallet.LockForUpdate([]uint{userID}); err != nil {
			return err
		}
		if err := wallet.Credit(txRepos, userID, amountCents); err != nil {
			return err
		}
		return txRepos.Transaction.MarkConfirmed(ledger.ID, "sim:"+uuid.NewString())
	})
	if err != nil {
		// The charge went through but the credit did not; leave the row
		// pending so reconciliation can pick it up.
		return nil, err
	}
	ledger.Status = models.TransactionStatusConfirmed
	return ledger, nil
}

// DepositIntent is the result of a QR deposit request: a pending ledger row
// and a scannable payload. The balance is only touched later by the webhook.
type DepositIntent struct {
	Transaction *models.WalletTransaction `json:"transaction"`
	Payload     string                    `json:"payload"`
	QRImage     string                    `json:"qr_image_data_url"`
}

// CreateDepositIntent records a pending deposit and returns the QR payload
// for the PSP flow. No wallet row is created or credited here.
func (s *Service) CreateDepositIntent(userID uint, amountCents int64, currency, method string) (*DepositIntent, error) {
	if amountCents <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	method = strings.ToLower(strings.TrimSpace(method))
	if currency == "" || method == "" {
		return nil, ErrValidation
	}

	ref := uuid.NewString()
	to := userID
	ledger := &models.WalletTransaction{
		Type:        models.TransactionTypeDeposit,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      models.TransactionStatusPending,
		ToUserID:    &to,
		ExternalRef: ref,
		Metadata:    models.TransactionMetadata(method, "qr_deposit", 0, nil),
	}
	if err := s.repos.Transaction.Create(ledger); err != nil {
		return nil, err
	}

	payload := buildDepositPayload(ledger.ID, amountCents, currency, method, ref)
	image, err := qrImageDataURL(payload)
	if err != nil {
		return nil, err
	}
	return &DepositIntent{Transaction: ledger, Payload: payload, QRImage: image}, nil
}

// TransferIntent is a scannable peer-transfer request. Nothing is recorded;
// the scanning client turns it into a transfer call.
type TransferIntent struct {
	ToUserID   uint   `json:"to_user_id"`
	ToUsername string `json:"to_username"`
	Payload    string `json:"payload"`
	QRImage    string `json:"qr_image_data_url"`
}

// CreateTransferIntent resolves the recipient by username and returns the QR
// payload for a peer transfer.
func (s *Service) CreateTransferIntent(toUsername string, amountCents int64, currency string) (*TransferIntent, error) {
	if amountCents <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	toUsername = strings.TrimSpace(toUsername)
	if toUsername == "" {
		return nil, ErrValidation
	}

	recipient, err := s.repos.User.GetByName(toUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	payload := buildTransferPayload(recipient.ID, recipient.Name, amountCents, strings.ToUpper(currency))
	image, err := qrImageDataURL(payload)
	if err != nil {
		return nil, err
	}
	return &TransferIntent{
		ToUserID:   recipient.ID,
		ToUsername: recipient.Name,
		Payload:    payload,
		QRImage:    image,
	}, nil
}

// Webhook statuses accepted from the PSP.
var approvedStatuses = map[string]bool{
	"approved":  true,
	"paid":      true,
	"confirmed": true,
}

var failedStatuses = map[string]bool{
	"failed":    true,
	"declined":  true,
	"cancelled": true,
	"expired":   true,
}

// ConfirmWebhook finalizes a pending deposit from a PSP notification.
// Idempotent: a transaction already confirmed is acknowledged without
// re-crediting, and a failed one is never revived. On approval the wallet is
// auto-provisioned with the transaction's currency and credited atomically
// with the status flip.
func (s *Service) ConfirmWebhook(txID uint, status, providerTxID string) (*models.WalletTransaction, error) {
	status = strings.ToLower(strings.TrimSpace(status))

	var ledger *models.WalletTransaction
	err := s.repos.WithTx(func(txRepos *repository.Repositories) error {
		tx, err := txRepos.Transaction.GetByIDForUpdate(txID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		ledger = tx

		if tx.IsFinal() {
			// Duplicate delivery: acknowledge, credit exactly once.
			return nil
		}

		switch {
		case approvedStatuses[status]:
			if tx.ToUserID == nil {
				return ErrValidation
			}
			w, err := txRepos.Wallet.GetOrCreate(*tx.ToUserID, tx.Currency)
			if err != nil {
				return err
			}
			if w.Currency != tx.Currency {
				// Leave the row pending; crediting would mix currencies.
				return wallet.ErrCurrencyMismatch
			}
			if err := txRepos.Transaction.MarkConfirmed(tx.ID, providerTxID); err != nil {
				return err
			}
			if _, err := txRepos.Wallet.LockForUpdate([]uint{*tx.ToUserID}); err != nil {
				return err
			}
			if err := wallet.Credit(txRepos, *tx.ToUserID, tx.AmountCents); err != nil {
				return err
			}
			tx.Status = models.TransactionStatusConfirmed
			if providerTxID != "" {
				tx.ExternalRef = providerTxID
			}
		case failedStatuses[status]:
			if err := txRepos.Transaction.MarkFailed(tx.ID, providerTxID); err != nil {
				return err
			}
			tx.Status = models.TransactionStatusFailed
			if providerTxID != "" {
				tx.ExternalRef = providerTxID
			}
		default:
			return ErrUnknownWebhookStatus
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}
