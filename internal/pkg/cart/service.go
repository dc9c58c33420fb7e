package cart

import (
	"errors"

	"github.com/snipmarket/snipmarket/app/models"
	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/listing"
	"gorm.io/gorm"
)

var (
	// ErrOwnThread means the user tried to put their own snippet in the cart.
	ErrOwnThread = errors.New("cannot add your own snippet to the cart")
	// ErrThreadNotFound means the referenced listing does not exist.
	ErrThreadNotFound = errors.New("thread not found")
)

// Service manages a user's candidate purchases. Prices are snapshotted from
// the parsed listing metadata at add-time and reconciled against live listing
// truth on every read.
type Service struct {
	repos *repository.Repositories
}

// NewService creates a cart service from an injected repository set.
func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// Line is a cart item joined with listing display data.
type Line struct {
	ThreadID   uint   `json:"thread_id"`
	Title      string `json:"title"`
	SellerID   uint   `json:"seller_id"`
	PriceCents int64  `json:"price_cents"`
	PriceLabel string `json:"price_label"`
}

// AddItem snapshots the thread's current parsed price into the user's cart.
// Re-adding refreshes the snapshot rather than erroring or duplicating.
func (s *Service) AddItem(userID, threadID uint) (*models.CartItem, error) {
	thread, err := s.repos.Thread.GetByID(threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, err
	}
	if thread.UserID == userID {
		return nil, ErrOwnThread
	}

	meta := listing.ParseMeta(thread.Content)
	item := &models.CartItem{
		UserID:     userID,
		ThreadID:   threadID,
		PriceCents: meta.PriceCents,
	}
	if err := s.repos.Cart.Upsert(item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns the cart with every snapshot re-validated against the
// live listing metadata. Drifted snapshots are corrected and persisted in the
// same transaction as the read, so the displayed total always reflects
// current listing truth.
func (s *Service) ListItems(userID uint) ([]Line, int64, error) {
	var lines []Line
	var totalCents int64

	err := s.repos.WithTx(func(txRepos *repository.Repositories) error {
		items, err := txRepos.Cart.ListByUser(userID)
		if err != nil {
			return err
		}

		lines = make([]Line, 0, len(items))
		totalCents = 0
		for _, item := range items {
			thread, err := txRepos.Thread.GetByID(item.ThreadID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Listing vanished since add-time; drop the line.
					if err := txRepos.Cart.Delete(userID, item.ThreadID); err != nil {
						return err
					}
					continue
				}
				return err
			}

			meta := listing.ParseMeta(thread.Content)
			if meta.PriceCents != item.PriceCents {
				if err := txRepos.Cart.UpdatePrice(item.ID, meta.PriceCents); err != nil {
					return err
				}
				item.PriceCents = meta.PriceCents
			}

			lines = append(lines, Line{
				ThreadID:   item.ThreadID,
				Title:      thread.Title,
				SellerID:   thread.UserID,
				PriceCents: item.PriceCents,
				PriceLabel: meta.PriceLabel,
			})
			totalCents += item.PriceCents
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return lines, totalCents, nil
}

// RemoveItem deletes the line item. Removing a non-existent item is not an
// error.
func (s *Service) RemoveItem(userID, threadID uint) error {
	return s.repos.Cart.Delete(userID, threadID)
}
