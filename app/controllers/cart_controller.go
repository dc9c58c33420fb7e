package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/cart"
)

func cartService() *cart.Service {
	return cart.NewService(repository.GetGlobalRepositories())
}

// HandleGetCart returns the caller's cart with prices reconciled against
// live listing metadata.
func HandleGetCart(c *fiber.Ctx) error {
	userID, ok := requireSessionUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	lines, totalCents, err := cartService().ListItems(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "cart_load_failed", "could not load cart")
	}

	return c.JSON(fiber.Map{"items": lines, "total_cents": totalCents})
}

// HandleCartAdd puts a thread in the caller's cart at its current price.
func HandleCartAdd(c *fiber.Ctx) error {
	userID, ok := requireSessionUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}
	threadID, err := parseUintParam(c, "threadID")
	if err != nil || threadID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid thread id")
	}

	item, err := cartService().AddItem(userID, threadID)
	if err != nil {
		if errors.Is(err, cart.ErrOwnThread) {
			return jsonError(c, fiber.StatusBadRequest, "cannot_add_own", "you cannot buy your own snippet")
		}
		if errors.Is(err, cart.ErrThreadNotFound) {
			return jsonError(c, fiber.StatusNotFound, "thread_not_found", "no such listing")
		}
		return jsonError(c, fiber.StatusInternalServerError, "cart_add_failed", "could not add item to cart")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "price_cents": item.PriceCents})
}

// HandleCartRemove deletes a line item; removing an absent item succeeds.
func HandleCartRemove(c *fiber.Ctx) error {
	userID, ok := requireSessionUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}
	threadID, err := parseUintParam(c, "threadID")
	if err != nil || threadID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid thread id")
	}

	if err := cartService().RemoveItem(userID, threadID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "cart_remove_failed", "could not remove item from cart")
	}
	return c.JSON(fiber.Map{"ok": true})
}
