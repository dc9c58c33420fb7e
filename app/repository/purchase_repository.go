package repository

import (
	"github.com/snipmarket/snipmarket/app/models"
	"gorm.io/gorm"
)

type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository creates an ownership-record repository backed by GORM.
func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(purchase *models.SnippetPurchase) error {
	return r.db.Create(purchase).Error
}

func (r *purchaseRepository) Exists(buyerUserID, threadID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.SnippetPurchase{}).
		Where("buyer_user_id = ? AND thread_id = ?", buyerUserID, threadID).
		Count(&count).Error
	return count > 0, err
}

func (r *purchaseRepository) ListByBuyer(buyerUserID uint) ([]models.SnippetPurchase, error) {
	var purchases []models.SnippetPurchase
	err := r.db.Where("buyer_user_id = ?", buyerUserID).
		Order("purchased_at DESC, id DESC").
		Find(&purchases).Error
	return purchases, err
}
