package repository

import (
	"sort"

	"github.com/snipmarket/snipmarket/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a wallet repository backed by GORM.
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepository) GetOrCreate(userID uint, currency string) (*models.Wallet, error) {
	wallet := &models.Wallet{
		UserID:       userID,
		BalanceCents: 0,
		Currency:     currency,
	}
	// Insert-if-absent; a concurrent insert for the same user loses the race
	// harmlessly and the follow-up read returns the surviving row.
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(wallet).Error; err != nil {
		return nil, err
	}

	var stored models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *walletRepository) LockForUpdate(userIDs []uint) (map[uint]*models.Wallet, error) {
	// One query, deterministic ascending order: two transfers racing in
	// opposite directions always acquire the two locks in the same order.
	ids := append([]uint(nil), userIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var wallets []models.Wallet
	err := withRowLock(r.db).
		Where("user_id IN ?", ids).
		Order("user_id ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, err
	}

	byUser := make(map[uint]*models.Wallet, len(wallets))
	for i := range wallets {
		byUser[wallets[i].UserID] = &wallets[i]
	}
	return byUser, nil
}

func (r *walletRepository) ApplyDelta(userID uint, deltaCents int64) error {
	result := r.db.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Update("balance_cents", gorm.Expr("balance_cents + ?", deltaCents))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
