package payments

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snipmarket/snipmarket/app/models"
	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/testdb"
	"github.com/snipmarket/snipmarket/internal/pkg/wallet"
)

func newTestService(t *testing.T, processor ChargeProcessor) (*Service, *repository.Repositories) {
	t.Helper()
	repos := repository.NewRepositories(testdb.New(t))
	return NewService(repos, processor), repos
}

func createUser(t *testing.T, repos *repository.Repositories, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", Password: "secret-hash"}
	require.NoError(t, repos.DB().Create(user).Error)
	return user
}

func balanceOf(t *testing.T, repos *repository.Repositories, userID uint) int64 {
	t.Helper()
	w, err := repos.Wallet.GetByUserID(userID)
	require.NoError(t, err)
	return w.BalanceCents
}

func attachTestCard(t *testing.T, svc *Service, userID uint) *models.PaymentMethod {
	t.Helper()
	method, err := svc.AttachCard(userID, "tok_visa_123", "visa", "4242", 12, 2030)
	require.NoError(t, err)
	return method
}

func TestAttachCard_StoresTokenizedCard(t *testing.T) {
	svc, repos := newTestService(t, nil)
	user := createUser(t, repos, "alice")

	method, err := svc.AttachCard(user.ID, "tok_visa_123", "visa", "4242", 12, 2030)
	require.NoError(t, err)

	assert.Equal(t, user.ID, method.UserID)
	assert.Equal(t, "tok_visa_123", method.ExternalID)
	assert.Equal(t, "4242", method.Last4)

	cards, err := svc.ListCards(user.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}

func TestAttachCard_RejectsBadInput(t *testing.T) {
	svc, repos := newTestService(t, nil)
	user := createUser(t, repos, "alice")

	_, err := svc.AttachCard(user.ID, "", "visa", "4242", 0, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AttachCard(user.ID, "tok_x", "visa", "42", 0, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AttachCard(user.ID, "tok_x", "visa", "abcd", 0, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCardTopUp_CreditsWalletOnApproval(t *testing.T) {
	svc, repos := newTestService(t, nil)
	user := createUser(t, repos, "alice")
	method := attachTestCard(t, svc, user.ID)

	ledger, err := svc.CardTopUp(user.ID, method.ID, 2500, "brl")
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusConfirmed, ledger.Status)
	assert.Equal(t, models.TransactionTypeDeposit, ledger.Type)
	assert.Equal(t, int64(2500), ledger.AmountCents)
	assert.Equal(t, "BRL", ledger.Currency)
	assert.Equal(t, int64(2500), balanceOf(t, repos, user.ID))
}

func TestCardTopUp_DeclinedChargeLeavesBalanceUntouched(t *testing.T) {
	declineAll := ChargeProcessorFunc(func(token string, amountCents int64) error {
		return ErrChargeDeclined
	})
	svc, repos := newTestService(t, declineAll)
	user := createUser(t, repos, "alice")
	method := attachTestCard(t, svc, user.ID)

	ledger, err := svc.CardTopUp(user.ID, method.ID, 2500, "BRL")
	assert.ErrorIs(t, err, ErrChargeDeclined)

	require.NotNil(t, ledger)
	assert.Equal(t, models.TransactionStatusFailed, ledger.Status)

	// The failed attempt is in the ledger but no wallet was touched.
	_, err = repos.Wallet.GetByUserID(user.ID)
	assert.Error(t, err)

	stored, err := repos.Transaction.GetByID(ledger.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, stored.Status)
}

func TestCardTopUp_UnknownCard(t *testing.T) {
	svc, repos := newTestService(t, nil)
	user := createUser(t, repos, "alice")

	_, err := svc.CardTopUp(user.ID, 42, 2500, "BRL")
	assert.ErrorIs(t, err, ErrPaymentMethodNotFound)
}

func TestCardTopUp_RejectsForeignCard(t *testing.T) {
	svc, repos := newTestService(t, nil)
	alice := createUser(t, repos, "alice")
	bob := createUser(t, repos, "bob")
	method := attachTestCard(t, svc, alice.ID)

	_, err := svc.CardTopUp(bob.ID, method.ID, 2500, "BRL")
	assert.ErrorIs(t, err, ErrPaymentMethodNotFound)
}

func TestCardTopUp_CurrencyMismatchRejectedBeforeCharge(t *testing.T) {
	charged := false
	processor := ChargeProcessorFunc(func(token string, amountCents int64) error {
		charged = true
		return nil
	})
	svc, repos := newTestService(t, processor)
	user := createUser(t, repos, "alice")
	method := attachTestCard(t, svc, user.ID)

	_, err := repos.Wallet.GetOrCreate(user.ID, "USD")
	require.NoError(t, err)

	_, err = svc.CardTopUp(user.ID, method.ID, 2500, "BRL")
	assert.ErrorIs(t, err, wallet.ErrCurrencyMismatch)
	assert.False(t, charged)

	// No ledger row either: nothing to reconcile for a rejected request.
	txs, err := repos.Transaction.ListByUser(user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, int64(0), balanceOf(t, repos, user.ID))
}

func TestCreateDepositIntent_RecordsPendingWithoutBalanceEffect(t *testing.T) {
	svc, repos := newTestService(t, nil)
	user := createUser(t, repos, "alice")

	intent, err := svc.CreateDepositIntent(user.ID, 5000, "BRL", "pix")
	require.NoError(t, err)

	tx := intent.Transaction
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, models.TransactionTypeDeposit, tx.Type)
	assert.NotEmpty(t, tx.ExternalRef)

	assert.Contains(t, intent.Payload, "pix|deposit|")
	assert.Contains(t, intent.Payload, "amount=5000")
	assert.True(t, strings.HasPrefix(intent.QRImage, "data:image/png;base64,"))

	// No wallet exists until the webhook confirms.
	_, err = repos.Wallet.GetByUserID(user.ID)
	assert.Error(t, err)
}

func TestCreateDepositIntent_RejectsBadInput(t *testing.T) {
	svc, repos := newTestService(t, nil)
	user := createUser(t, repos, "alice")

	_, err := svc.CreateDepositIntent(user.ID, 0, "BRL", "pix")
	assert.ErrorIs(t, err, wallet.ErrInvalidAmount)

	_, err = svc.CreateDepositIntent(user.ID, 100, "", "pix")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateDepositIntent(user.ID, 100, "BRL", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateTransferIntent_ResolvesRecipient(t *testing.T) {
	svc, repos := newTestService(t, nil)
	bob := createUser(t, repos, "bob")

	intent, err := svc.CreateTransferIntent("bob", 750, "brl")
	require.NoError(t, err)

	assert.Equal(t, bob.ID, intent.ToUserID)
	assert.Equal(t, "bob", intent.ToUsername)
	assert.Contains(t, intent.Payload, "user=bob")
	assert.Contains(t, intent.Payload, "amount=750")
	assert.True(t, strings.HasPrefix(intent.QRImage, "data:image/png;base64,"))
}

func TestCreateTransferIntent_UnknownRecipient(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.CreateTransferIntent("nobody", 750, "BRL")
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestConfirmWebhook_ApprovalCreditsOnce(t *testing.T) {
	svc, repos := newTestService(t, nil)
	user := createUser(t, repos, "alice")

	intent, err := svc.CreateDepositIntent(user.ID, 5000, "BRL", "pix")
	require.NoError(t, err)

	tx, err := svc.ConfirmWebhook(intent.Transaction.ID, "approved", "psp-001")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusConfirmed, tx.Status)
	assert.Equal(t, "psp-001", tx.ExternalRef)
	assert.Equal(t, int64(5000), balanceOf(t, repos, user.ID))

	stored, err := repos.Transaction.GetByID(intent.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, "psp-001", stored.ExternalRef)

	// Duplicate delivery is acknowledged without a second credit.
	tx, err = svc.ConfirmWebhook(intent.Transaction.ID, "approved", "psp-001")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusConfirmed, tx.Status)
	assert.Equal(t, int64(5000), balanceOf(t, repos, user.ID))
}

func TestConfirmWebhook_FailureNeverRevives(t *testing.T) {
	svc, repos := newTestService(t, nil)
	user := createUser(t, repos, "alice")

	intent, err := svc.CreateDepositIntent(user.ID, 5000, "BRL", "pix")
	require.NoError(t, err)

	tx, err := svc.ConfirmWebhook(intent.Transaction.ID, "expired", "psp-002")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, tx.Status)
	assert.Equal(t, "psp-002", tx.ExternalRef)

	// A late approval for a failed deposit must not credit anything.
	tx, err = svc.ConfirmWebhook(intent.Transaction.ID, "approved", "psp-002")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, tx.Status)

	_, err = repos.Wallet.GetByUserID(user.ID)
	assert.Error(t, err)
}

func TestConfirmWebhook_UnknownTransaction(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.ConfirmWebhook(9999, "approved", "psp-003")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestConfirmWebhook_UnknownStatus(t *testing.T) {
	svc, repos := newTestService(t, nil)
	user := createUser(t, repos, "alice")

	intent, err := svc.CreateDepositIntent(user.ID, 5000, "BRL", "pix")
	require.NoError(t, err)

	_, err = svc.ConfirmWebhook(intent.Transaction.ID, "on_hold", "psp-004")
	assert.ErrorIs(t, err, ErrUnknownWebhookStatus)

	stored, err := repos.Transaction.GetByID(intent.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, stored.Status)
}

func TestConfirmWebhook_CurrencyMismatchLeavesPending(t *testing.T) {
	svc, repos := newTestService(t, nil)
	user := createUser(t, repos, "alice")

	_, err := repos.Wallet.GetOrCreate(user.ID, "USD")
	require.NoError(t, err)

	intent, err := svc.CreateDepositIntent(user.ID, 5000, "BRL", "pix")
	require.NoError(t, err)

	_, err = svc.ConfirmWebhook(intent.Transaction.ID, "approved", "psp-005")
	assert.ErrorIs(t, err, wallet.ErrCurrencyMismatch)

	stored, err := repos.Transaction.GetByID(intent.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, stored.Status)
	assert.Equal(t, int64(0), balanceOf(t, repos, user.ID))
}
