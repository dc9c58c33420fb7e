package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snipmarket/snipmarket/app/models"
	"github.com/snipmarket/snipmarket/internal/pkg/testdb"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	return NewRepositories(testdb.New(t))
}

func seedUser(t *testing.T, repos *Repositories, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", Password: "secret-hash"}
	require.NoError(t, repos.DB().Create(user).Error)
	return user
}

func TestWalletGetOrCreate_KeepsExistingRow(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "alice")

	first, err := repos.Wallet.GetOrCreate(user.ID, "BRL")
	require.NoError(t, err)
	require.NoError(t, repos.Wallet.ApplyDelta(user.ID, 123))

	// A second call with a different currency must not replace the wallet.
	second, err := repos.Wallet.GetOrCreate(user.ID, "USD")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "BRL", second.Currency)
	assert.Equal(t, int64(123), second.BalanceCents)
}

func TestWalletApplyDelta_UnknownWallet(t *testing.T) {
	repos := newTestRepos(t)

	err := repos.Wallet.ApplyDelta(9999, 100)
	assert.Error(t, err)
}

func TestWalletLockForUpdate_ReturnsRequestedRows(t *testing.T) {
	repos := newTestRepos(t)
	alice := seedUser(t, repos, "alice")
	bob := seedUser(t, repos, "bob")

	_, err := repos.Wallet.GetOrCreate(alice.ID, "BRL")
	require.NoError(t, err)
	_, err = repos.Wallet.GetOrCreate(bob.ID, "BRL")
	require.NoError(t, err)

	err = repos.WithTx(func(tx *Repositories) error {
		wallets, err := tx.Wallet.LockForUpdate([]uint{bob.ID, alice.ID})
		require.NoError(t, err)
		assert.Len(t, wallets, 2)
		assert.Contains(t, wallets, alice.ID)
		assert.Contains(t, wallets, bob.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestTransactionMarkConfirmed_OnlyFromPending(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "alice")

	to := user.ID
	tx := &models.WalletTransaction{
		Type:        models.TransactionTypeDeposit,
		AmountCents: 100,
		Currency:    "BRL",
		Status:      models.TransactionStatusPending,
		ToUserID:    &to,
	}
	require.NoError(t, repos.Transaction.Create(tx))

	require.NoError(t, repos.Transaction.MarkFailed(tx.ID, "psp-1"))

	// A failed transaction never flips to confirmed.
	require.NoError(t, repos.Transaction.MarkConfirmed(tx.ID, "psp-2"))
	stored, err := repos.Transaction.GetByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, stored.Status)
	assert.Equal(t, "psp-1", stored.ExternalRef)
}

func TestFailStalePendingDeposits_SweepsOnlyOldPending(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "alice")

	to := user.ID
	stale := &models.WalletTransaction{
		Type:        models.TransactionTypeDeposit,
		AmountCents: 100,
		Currency:    "BRL",
		Status:      models.TransactionStatusPending,
		ToUserID:    &to,
	}
	require.NoError(t, repos.Transaction.Create(stale))

	confirmed := &models.WalletTransaction{
		Type:        models.TransactionTypeDeposit,
		AmountCents: 200,
		Currency:    "BRL",
		Status:      models.TransactionStatusConfirmed,
		ToUserID:    &to,
	}
	require.NoError(t, repos.Transaction.Create(confirmed))

	swept, err := repos.Transaction.FailStalePendingDeposits(time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	stored, err := repos.Transaction.GetByID(stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, stored.Status)

	kept, err := repos.Transaction.GetByID(confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusConfirmed, kept.Status)
}

func TestCartUpsert_RefreshesSnapshot(t *testing.T) {
	repos := newTestRepos(t)
	seller := seedUser(t, repos, "seller")
	buyer := seedUser(t, repos, "buyer")
	thread := &models.Thread{UserID: seller.ID, Title: "Helper", Content: "price: 10"}
	require.NoError(t, repos.DB().Create(thread).Error)

	first := &models.CartItem{UserID: buyer.ID, ThreadID: thread.ID, PriceCents: 1000}
	require.NoError(t, repos.Cart.Upsert(first))

	second := &models.CartItem{UserID: buyer.ID, ThreadID: thread.ID, PriceCents: 1500}
	require.NoError(t, repos.Cart.Upsert(second))

	items, err := repos.Cart.ListByUser(buyer.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, int64(1500), items[0].PriceCents)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	repos := newTestRepos(t)
	user := seedUser(t, repos, "alice")

	_, err := repos.Wallet.GetOrCreate(user.ID, "BRL")
	require.NoError(t, err)

	sentinel := assert.AnError
	err = repos.WithTx(func(tx *Repositories) error {
		if err := tx.Wallet.ApplyDelta(user.ID, 500); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	w, err := repos.Wallet.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.BalanceCents)
}
