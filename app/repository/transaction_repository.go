package repository

import (
	"time"

	"github.com/snipmarket/snipmarket/app/models"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a ledger repository backed by GORM.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(tx *models.WalletTransaction) error {
	return r.db.Create(tx).Error
}

func (r *transactionRepository) GetByID(id uint) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	if err := r.db.First(&tx, id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) GetByIDForUpdate(id uint) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	if err := withRowLock(r.db).First(&tx, id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) MarkConfirmed(id uint, externalRef string) error {
	updates := map[string]interface{}{
		"status": models.TransactionStatusConfirmed,
	}
	if externalRef != "" {
		updates["external_ref"] = externalRef
	}
	return r.db.Model(&models.WalletTransaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Updates(updates).Error
}

func (r *transactionRepository) MarkFailed(id uint, externalRef string) error {
	updates := map[string]interface{}{
		"status": models.TransactionStatusFailed,
	}
	if externalRef != "" {
		updates["external_ref"] = externalRef
	}
	return r.db.Model(&models.WalletTransaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Updates(updates).Error
}

func (r *transactionRepository) ListByUser(userID uint, limit int) ([]models.WalletTransaction, error) {
	var txs []models.WalletTransaction
	err := r.db.
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) FailStalePendingDeposits(cutoff time.Time) (int64, error) {
	result := r.db.Model(&models.WalletTransaction{}).
		Where("type = ? AND status = ? AND created_at < ?",
			models.TransactionTypeDeposit, models.TransactionStatusPending, cutoff).
		Update("status", models.TransactionStatusFailed)
	return result.RowsAffected, result.Error
}
