package repository

import (
	"github.com/snipmarket/snipmarket/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a cart repository backed by GORM.
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Upsert(item *models.CartItem) error {
	// Re-adding an item refreshes its price snapshot instead of erroring.
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "thread_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"price_cents", "updated_at"}),
	}).Create(item).Error; err != nil {
		return err
	}

	return r.db.Where("user_id = ? AND thread_id = ?", item.UserID, item.ThreadID).
		First(item).Error
}

func (r *cartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *cartRepository) LockByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := withRowLock(r.db).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *cartRepository) UpdatePrice(id uint, priceCents int64) error {
	return r.db.Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("price_cents", priceCents).Error
}

func (r *cartRepository) Delete(userID, threadID uint) error {
	// Deleting a non-existent item is not an error.
	return r.db.Where("user_id = ? AND thread_id = ?", userID, threadID).
		Delete(&models.CartItem{}).Error
}

func (r *cartRepository) DeleteAllByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
