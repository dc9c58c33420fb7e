package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/checkout"
	"github.com/snipmarket/snipmarket/internal/pkg/wallet"
)

// HandleCheckout settles the caller's cart atomically.
func HandleCheckout(c *fiber.Ctx) error {
	userID, ok := requireSessionUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	svc := checkout.NewService(repository.GetGlobalRepositories())
	result, err := svc.Checkout(userID)
	if err != nil {
		var insufficient *checkout.InsufficientFundsError
		if errors.As(err, &insufficient) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":         "insufficient_funds",
				"message":       "wallet balance does not cover the cart total",
				"needed_cents":  insufficient.NeededCents,
				"balance_cents": insufficient.BalanceCents,
			})
		}
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return jsonError(c, fiber.StatusNotFound, "wallet_not_found", "no wallet exists for this user")
		}
		return jsonError(c, fiber.StatusInternalServerError, "checkout_failed", "could not complete checkout")
	}

	return c.JSON(fiber.Map{
		"purchased":   result.Purchased,
		"total_cents": result.TotalCents,
		"currency":    result.Currency,
	})
}

// HandleListPurchases returns the caller's owned snippets; this is the
// authorization source for downloads and "owned" filters.
func HandleListPurchases(c *fiber.Ctx) error {
	userID, ok := requireSessionUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	purchases, err := repository.GetGlobalRepositories().Purchase.ListByBuyer(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "purchases_load_failed", "could not load purchases")
	}
	return c.JSON(fiber.Map{"items": purchases})
}
