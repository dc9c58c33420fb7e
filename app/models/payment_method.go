package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// PaymentMethod stores a tokenized card reference. Only the opaque PSP token
// and display metadata are kept; raw card numbers never touch this system.
type PaymentMethod struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Provider   string    `gorm:"type:varchar(50);not null;default:'card'" json:"provider"`
	ExternalID string    `gorm:"type:varchar(191);not null" json:"external_id" validate:"required"`
	Brand      string    `gorm:"type:varchar(50)" json:"brand"`
	Last4      string    `gorm:"type:varchar(4);not null" json:"last4" validate:"required,len=4,numeric"`
	ExpMonth   int       `gorm:"type:int" json:"exp_month" validate:"omitempty,min=1,max=12"`
	ExpYear    int       `gorm:"type:int" json:"exp_year"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-" validate:"-"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}

func (m *PaymentMethod) Validate() error {
	v := validator.New()

	return v.Struct(m)
}
