package repository

import (
	"time"

	"github.com/snipmarket/snipmarket/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByName(name string) (*models.User, error)
	NamesByIDs(ids []uint) (map[uint]string, error)
}

// ThreadRepository defines the interface for snippet listing lookups
type ThreadRepository interface {
	GetByID(id uint) (*models.Thread, error)
}

// WalletRepository defines the interface for wallet rows. Locking methods
// must be called inside a transaction-scoped repository (see WithTx); the
// lock is held until that transaction commits or rolls back.
type WalletRepository interface {
	GetByUserID(userID uint) (*models.Wallet, error)
	// GetOrCreate provisions a zero-balance wallet for the user if none
	// exists yet. Safe to call repeatedly.
	GetOrCreate(userID uint, currency string) (*models.Wallet, error)
	// LockForUpdate locks the wallet rows of the given users in a single
	// query ordered by ascending user id and returns them keyed by user id.
	LockForUpdate(userIDs []uint) (map[uint]*models.Wallet, error)
	// ApplyDelta adds deltaCents (negative for debits) to the user's
	// balance. Callers must hold the row lock and have verified funds.
	ApplyDelta(userID uint, deltaCents int64) error
}

// TransactionRepository defines the interface for the append-only ledger
type TransactionRepository interface {
	Create(tx *models.WalletTransaction) error
	GetByID(id uint) (*models.WalletTransaction, error)
	// GetByIDForUpdate locks the ledger row; used by the webhook handler so
	// two concurrent confirmations of the same transaction serialize.
	GetByIDForUpdate(id uint) (*models.WalletTransaction, error)
	MarkConfirmed(id uint, externalRef string) error
	MarkFailed(id uint, externalRef string) error
	ListByUser(userID uint, limit int) ([]models.WalletTransaction, error)
	// FailStalePendingDeposits closes deposits stuck in pending since before
	// the cutoff and returns the number of rows touched.
	FailStalePendingDeposits(cutoff time.Time) (int64, error)
}

// PaymentMethodRepository defines the interface for tokenized cards
type PaymentMethodRepository interface {
	Create(method *models.PaymentMethod) error
	GetByIDForUser(id, userID uint) (*models.PaymentMethod, error)
	ListByUser(userID uint) ([]models.PaymentMethod, error)
}

// CartRepository defines the interface for cart line items
type CartRepository interface {
	Upsert(item *models.CartItem) error
	ListByUser(userID uint) ([]models.CartItem, error)
	// LockByUser locks all of the user's cart rows for the remainder of the
	// enclosing transaction, in insertion order.
	LockByUser(userID uint) ([]models.CartItem, error)
	UpdatePrice(id uint, priceCents int64) error
	Delete(userID, threadID uint) error
	DeleteAllByUser(userID uint) error
}

// PurchaseRepository defines the interface for ownership records
type PurchaseRepository interface {
	Create(purchase *models.SnippetPurchase) error
	Exists(buyerUserID, threadID uint) (bool, error)
	ListByBuyer(buyerUserID uint) ([]models.SnippetPurchase, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	db *gorm.DB

	User          UserRepository
	Thread        ThreadRepository
	Wallet        WalletRepository
	Transaction   TransactionRepository
	PaymentMethod PaymentMethodRepository
	Cart          CartRepository
	Purchase      PurchaseRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:            db,
		User:          NewUserRepository(db),
		Thread:        NewThreadRepository(db),
		Wallet:        NewWalletRepository(db),
		Transaction:   NewTransactionRepository(db),
		PaymentMethod: NewPaymentMethodRepository(db),
		Cart:          NewCartRepository(db),
		Purchase:      NewPurchaseRepository(db),
	}
}

// DB exposes the underlying handle, mainly for migrations and test fixtures.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// WithTx runs fn with a repository set bound to one database transaction.
// All row locks taken through that set are held until fn returns; commit and
// rollback happen solely here, so nested calls never auto-commit.
func (r *Repositories) WithTx(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
