package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/wallet"
)

// HandleGetBalance returns (and lazily provisions) a user's wallet balance.
// Public: the pre-auth deposit flow needs it before login completes.
func HandleGetBalance(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userID")
	if err != nil || userID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid user id")
	}

	svc := wallet.NewService(repository.GetGlobalRepositories())
	w, err := svc.GetBalance(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "balance_failed", "could not load wallet balance")
	}

	return c.JSON(fiber.Map{
		"user_id":       w.UserID,
		"balance_cents": w.BalanceCents,
		"currency":      w.Currency,
	})
}

// HandleWalletHistory returns the caller's recent ledger entries with
// usernames resolved.
func HandleWalletHistory(c *fiber.Ctx) error {
	userID, ok := requireSessionUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	limit := c.QueryInt("limit", 0)
	svc := wallet.NewService(repository.GetGlobalRepositories())
	entries, err := svc.History(userID, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "history_failed", "could not load transaction history")
	}

	return c.JSON(fiber.Map{"items": entries})
}
