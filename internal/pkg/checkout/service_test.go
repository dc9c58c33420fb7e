package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snipmarket/snipmarket/app/models"
	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/cart"
	"github.com/snipmarket/snipmarket/internal/pkg/testdb"
	"github.com/snipmarket/snipmarket/internal/pkg/wallet"
)

func newTestServices(t *testing.T) (*Service, *cart.Service, *repository.Repositories) {
	t.Helper()
	repos := repository.NewRepositories(testdb.New(t))
	return NewService(repos), cart.NewService(repos), repos
}

func createUser(t *testing.T, repos *repository.Repositories, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", Password: "secret-hash"}
	require.NoError(t, repos.DB().Create(user).Error)
	return user
}

func createThread(t *testing.T, repos *repository.Repositories, sellerID uint, title, content string) *models.Thread {
	t.Helper()
	thread := &models.Thread{UserID: sellerID, Title: title, Content: content}
	require.NoError(t, repos.DB().Create(thread).Error)
	return thread
}

func fundWallet(t *testing.T, repos *repository.Repositories, userID uint, balanceCents int64) {
	t.Helper()
	_, err := repos.Wallet.GetOrCreate(userID, "BRL")
	require.NoError(t, err)
	if balanceCents != 0 {
		require.NoError(t, repos.Wallet.ApplyDelta(userID, balanceCents))
	}
}

func balanceOf(t *testing.T, repos *repository.Repositories, userID uint) int64 {
	t.Helper()
	w, err := repos.Wallet.GetByUserID(userID)
	require.NoError(t, err)
	return w.BalanceCents
}

func TestCheckout_EmptyCartIsNoOp(t *testing.T) {
	svc, _, repos := newTestServices(t)
	buyer := createUser(t, repos, "buyer")
	fundWallet(t, repos, buyer.ID, 1000)

	result, err := svc.Checkout(buyer.ID)
	require.NoError(t, err)

	assert.Empty(t, result.Purchased)
	assert.Equal(t, int64(0), result.TotalCents)
	assert.Equal(t, int64(1000), balanceOf(t, repos, buyer.ID))
}

func TestCheckout_RequiresExistingWallet(t *testing.T) {
	svc, cartSvc, repos := newTestServices(t)
	seller := createUser(t, repos, "seller")
	buyer := createUser(t, repos, "buyer")
	thread := createThread(t, repos, seller.ID, "Helper", "price: 5")

	_, err := cartSvc.AddItem(buyer.ID, thread.ID)
	require.NoError(t, err)

	_, err = svc.Checkout(buyer.ID)
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestCheckout_RejectsInsufficientFunds(t *testing.T) {
	svc, cartSvc, repos := newTestServices(t)
	seller := createUser(t, repos, "seller")
	buyer := createUser(t, repos, "buyer")
	thread := createThread(t, repos, seller.ID, "Helper", "price: 5")
	fundWallet(t, repos, buyer.ID, 0)

	_, err := cartSvc.AddItem(buyer.ID, thread.ID)
	require.NoError(t, err)

	_, err = svc.Checkout(buyer.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	var insufficientErr *InsufficientFundsError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, int64(500), insufficientErr.NeededCents)
	assert.Equal(t, int64(0), insufficientErr.BalanceCents)

	// Nothing written and the cart survives for a retry after top-up.
	items, listErr := repos.Cart.ListByUser(buyer.ID)
	require.NoError(t, listErr)
	assert.Len(t, items, 1)
	owned, ownErr := repos.Purchase.Exists(buyer.ID, thread.ID)
	require.NoError(t, ownErr)
	assert.False(t, owned)
}

func TestCheckout_SettlesPaidAndFreeLines(t *testing.T) {
	svc, cartSvc, repos := newTestServices(t)
	seller := createUser(t, repos, "seller")
	buyer := createUser(t, repos, "buyer")
	paid := createThread(t, repos, seller.ID, "Paid helper", "price: 5")
	free := createThread(t, repos, seller.ID, "Free helper", "price: free")
	fundWallet(t, repos, buyer.ID, 1000)
	fundWallet(t, repos, seller.ID, 0)

	_, err := cartSvc.AddItem(buyer.ID, paid.ID)
	require.NoError(t, err)
	_, err = cartSvc.AddItem(buyer.ID, free.ID)
	require.NoError(t, err)

	result, err := svc.Checkout(buyer.ID)
	require.NoError(t, err)

	assert.Len(t, result.Purchased, 2)
	assert.Equal(t, int64(500), result.TotalCents)
	assert.Equal(t, "BRL", result.Currency)

	assert.Equal(t, int64(500), balanceOf(t, repos, buyer.ID))
	assert.Equal(t, int64(500), balanceOf(t, repos, seller.ID))

	for _, threadID := range []uint{paid.ID, free.ID} {
		owned, err := repos.Purchase.Exists(buyer.ID, threadID)
		require.NoError(t, err)
		assert.True(t, owned)
	}

	items, err := repos.Cart.ListByUser(buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckout_WritesConsolidatedDebitAndSellerCredits(t *testing.T) {
	svc, cartSvc, repos := newTestServices(t)
	sellerA := createUser(t, repos, "seller-a")
	sellerB := createUser(t, repos, "seller-b")
	buyer := createUser(t, repos, "buyer")
	ta := createThread(t, repos, sellerA.ID, "From A", "price: 3")
	tb := createThread(t, repos, sellerB.ID, "From B", "price: 7")
	fundWallet(t, repos, buyer.ID, 2000)

	_, err := cartSvc.AddItem(buyer.ID, ta.ID)
	require.NoError(t, err)
	_, err = cartSvc.AddItem(buyer.ID, tb.ID)
	require.NoError(t, err)

	result, err := svc.Checkout(buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.TotalCents)

	txs, err := repos.Transaction.ListByUser(buyer.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	var debits, credits int
	var debitTotal int64
	for _, tx := range txs {
		require.NotNil(t, tx.FromUserID)
		assert.Equal(t, buyer.ID, *tx.FromUserID)
		assert.Equal(t, models.TransactionStatusConfirmed, tx.Status)
		if tx.ToUserID == nil {
			debits++
			debitTotal = tx.AmountCents
		} else {
			credits++
		}
	}
	assert.Equal(t, 1, debits)
	assert.Equal(t, 2, credits)
	assert.Equal(t, int64(1000), debitTotal)

	assert.Equal(t, int64(300), balanceOf(t, repos, sellerA.ID))
	assert.Equal(t, int64(700), balanceOf(t, repos, sellerB.ID))
}

func TestCheckout_SkipsAlreadyOwnedLines(t *testing.T) {
	svc, cartSvc, repos := newTestServices(t)
	seller := createUser(t, repos, "seller")
	buyer := createUser(t, repos, "buyer")
	thread := createThread(t, repos, seller.ID, "Helper", "price: 5")
	fundWallet(t, repos, buyer.ID, 2000)
	fundWallet(t, repos, seller.ID, 0)

	_, err := cartSvc.AddItem(buyer.ID, thread.ID)
	require.NoError(t, err)
	_, err = svc.Checkout(buyer.ID)
	require.NoError(t, err)

	// Add the same snippet again and check out a second time.
	_, err = cartSvc.AddItem(buyer.ID, thread.ID)
	require.NoError(t, err)

	result, err := svc.Checkout(buyer.ID)
	require.NoError(t, err)

	assert.Empty(t, result.Purchased)
	assert.Equal(t, int64(0), result.TotalCents)
	assert.Equal(t, int64(1500), balanceOf(t, repos, buyer.ID))
	assert.Equal(t, int64(500), balanceOf(t, repos, seller.ID))

	items, err := repos.Cart.ListByUser(buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckout_SkipsVanishedListing(t *testing.T) {
	svc, cartSvc, repos := newTestServices(t)
	seller := createUser(t, repos, "seller")
	buyer := createUser(t, repos, "buyer")
	kept := createThread(t, repos, seller.ID, "Kept", "price: 4")
	gone := createThread(t, repos, seller.ID, "Gone", "price: 6")
	fundWallet(t, repos, buyer.ID, 1000)

	_, err := cartSvc.AddItem(buyer.ID, kept.ID)
	require.NoError(t, err)
	_, err = cartSvc.AddItem(buyer.ID, gone.ID)
	require.NoError(t, err)

	require.NoError(t, repos.DB().Delete(gone).Error)

	result, err := svc.Checkout(buyer.ID)
	require.NoError(t, err)

	require.Len(t, result.Purchased, 1)
	assert.Equal(t, kept.ID, result.Purchased[0].ThreadID)
	assert.Equal(t, int64(400), result.TotalCents)
	assert.Equal(t, int64(600), balanceOf(t, repos, buyer.ID))
}

func TestCheckout_SkipsOwnListing(t *testing.T) {
	svc, cartSvc, repos := newTestServices(t)
	seller := createUser(t, repos, "seller")
	buyer := createUser(t, repos, "buyer")
	other := createThread(t, repos, seller.ID, "Other", "price: 4")
	own := createThread(t, repos, buyer.ID, "Mine", "price: 6")
	fundWallet(t, repos, buyer.ID, 1000)

	_, err := cartSvc.AddItem(buyer.ID, other.ID)
	require.NoError(t, err)

	// A row for the buyer's own snippet can end up in the cart anyway,
	// e.g. when ownership of the thread changes after it was added.
	require.NoError(t, repos.Cart.Upsert(&models.CartItem{
		UserID:     buyer.ID,
		ThreadID:   own.ID,
		PriceCents: 600,
	}))

	result, err := svc.Checkout(buyer.ID)
	require.NoError(t, err)

	require.Len(t, result.Purchased, 1)
	assert.Equal(t, other.ID, result.Purchased[0].ThreadID)
	assert.Equal(t, int64(400), result.TotalCents)
	assert.Equal(t, int64(600), balanceOf(t, repos, buyer.ID))

	owned, err := repos.Purchase.Exists(buyer.ID, own.ID)
	require.NoError(t, err)
	assert.False(t, owned)

	items, err := repos.Cart.ListByUser(buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHasPurchased(t *testing.T) {
	svc, cartSvc, repos := newTestServices(t)
	seller := createUser(t, repos, "seller")
	buyer := createUser(t, repos, "buyer")
	thread := createThread(t, repos, seller.ID, "Helper", "price: 5")
	fundWallet(t, repos, buyer.ID, 1000)

	owned, err := svc.HasPurchased(buyer.ID, thread.ID)
	require.NoError(t, err)
	assert.False(t, owned)

	_, err = cartSvc.AddItem(buyer.ID, thread.ID)
	require.NoError(t, err)
	_, err = svc.Checkout(buyer.ID)
	require.NoError(t, err)

	owned, err = svc.HasPurchased(buyer.ID, thread.ID)
	require.NoError(t, err)
	assert.True(t, owned)
}

func TestCheckout_ProvisionsSellerWallet(t *testing.T) {
	svc, cartSvc, repos := newTestServices(t)
	seller := createUser(t, repos, "seller")
	buyer := createUser(t, repos, "buyer")
	thread := createThread(t, repos, seller.ID, "Helper", "price: 5")
	fundWallet(t, repos, buyer.ID, 1000)
	// Seller has no wallet yet.

	_, err := cartSvc.AddItem(buyer.ID, thread.ID)
	require.NoError(t, err)

	_, err = svc.Checkout(buyer.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(500), balanceOf(t, repos, seller.ID))
}
