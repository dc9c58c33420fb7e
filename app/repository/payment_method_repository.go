package repository

import (
	"github.com/snipmarket/snipmarket/app/models"
	"gorm.io/gorm"
)

type paymentMethodRepository struct {
	db *gorm.DB
}

// NewPaymentMethodRepository creates a payment-method repository backed by GORM.
func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &paymentMethodRepository{db: db}
}

func (r *paymentMethodRepository) Create(method *models.PaymentMethod) error {
	return r.db.Create(method).Error
}

func (r *paymentMethodRepository) GetByIDForUser(id, userID uint) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *paymentMethodRepository) ListByUser(userID uint) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&methods).Error
	return methods, err
}
