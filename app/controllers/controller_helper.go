package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/snipmarket/snipmarket/internal/pkg/usercontext"
	"github.com/snipmarket/snipmarket/internal/pkg/wallet"
)

// jsonError renders the structured error payload shared by every API
// endpoint: a machine-readable code plus a human message.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// requireSessionUser returns the caller's user id or writes a 401.
func requireSessionUser(c *fiber.Ctx) (uint, bool) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return 0, false
	}
	return userCtx.UserID, true
}

// parseUintParam reads a numeric route parameter.
func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// respondMoneyError maps the shared money-domain sentinels onto HTTP
// responses. Returns false if the error is not one of them.
func respondMoneyError(c *fiber.Ctx, err error) (error, bool) {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount):
		return jsonError(c, fiber.StatusBadRequest, "invalid_amount", "amount must be a positive integer of cents"), true
	case errors.Is(err, wallet.ErrCurrencyMismatch):
		return jsonError(c, fiber.StatusBadRequest, "currency_mismatch", "operation currency does not match the wallet currency"), true
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return jsonError(c, fiber.StatusBadRequest, "insufficient_funds", "wallet balance does not cover this operation"), true
	case errors.Is(err, wallet.ErrWalletNotFound):
		return jsonError(c, fiber.StatusNotFound, "wallet_not_found", "no wallet exists for this user"), true
	}
	return nil, false
}
