package repository

import (
	"github.com/snipmarket/snipmarket/app/models"
	"gorm.io/gorm"
)

type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a thread repository backed by GORM.
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) GetByID(id uint) (*models.Thread, error) {
	var thread models.Thread
	if err := r.db.First(&thread, id).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}
