package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/transfer"
)

// HandlePeerTransfer moves balance from the session user to another user.
func HandlePeerTransfer(c *fiber.Ctx) error {
	callerID, ok := requireSessionUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	var req struct {
		FromUserID  uint   `json:"from_user_id"`
		ToUserID    uint   `json:"to_user_id"`
		AmountCents int64  `json:"amount_cents"`
		Currency    string `json:"currency"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}
	if req.FromUserID == 0 {
		req.FromUserID = callerID
	}

	svc := transfer.NewService(repository.GetGlobalRepositories())
	tx, err := svc.Transfer(callerID, req.FromUserID, req.ToUserID, req.AmountCents, req.Currency)
	if err != nil {
		if errors.Is(err, transfer.ErrForbidden) {
			return jsonError(c, fiber.StatusForbidden, "forbidden", "you can only send from your own wallet")
		}
		if errors.Is(err, transfer.ErrInvalidTarget) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_target", "cannot transfer to yourself")
		}
		if resp, handled := respondMoneyError(c, err); handled {
			return resp
		}
		return jsonError(c, fiber.StatusInternalServerError, "transfer_failed", "could not complete transfer")
	}

	return c.JSON(fiber.Map{"ok": true, "transaction_id": tx.ID})
}
