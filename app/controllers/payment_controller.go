package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/snipmarket/snipmarket/app/repository"
	"github.com/snipmarket/snipmarket/internal/pkg/payments"
)

func paymentsService() *payments.Service {
	return payments.NewService(repository.GetGlobalRepositories(), nil)
}

// HandleAttachCard stores a tokenized card for the session user.
func HandleAttachCard(c *fiber.Ctx) error {
	userID, ok := requireSessionUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	var req struct {
		Token    string `json:"token"`
		Brand    string `json:"brand"`
		Last4    string `json:"last4"`
		ExpMonth int    `json:"exp_month"`
		ExpYear  int    `json:"exp_year"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}

	method, err := paymentsService().AttachCard(userID, req.Token, req.Brand, req.Last4, req.ExpMonth, req.ExpYear)
	if err != nil {
		if errors.Is(err, payments.ErrValidation) {
			return jsonError(c, fiber.StatusBadRequest, "validation_error", "token and last4 are required")
		}
		return jsonError(c, fiber.StatusInternalServerError, "card_attach_failed", "could not store payment method")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "method": method})
}

// HandleListCards lists the session user's attached payment methods.
func HandleListCards(c *fiber.Ctx) error {
	userID, ok := requireSessionUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	methods, err := paymentsService().ListCards(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "card_list_failed", "could not load payment methods")
	}
	return c.JSON(fiber.Map{"methods": methods})
}

// HandleCardTopUp charges a stored card and credits the caller's wallet.
func HandleCardTopUp(c *fiber.Ctx) error {
	userID, ok := requireSessionUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	var req struct {
		PaymentMethodID uint   `json:"payment_method_id"`
		AmountCents     int64  `json:"amount_cents"`
		Currency        string `json:"currency"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}

	tx, err := paymentsService().CardTopUp(userID, req.PaymentMethodID, req.AmountCents, req.Currency)
	if err != nil {
		if errors.Is(err, payments.ErrChargeDeclined) {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error":          "charge_declined",
				"message":        "the payment provider declined the charge",
				"transaction_id": tx.ID,
			})
		}
		if errors.Is(err, payments.ErrPaymentMethodNotFound) {
			return jsonError(c, fiber.StatusNotFound, "payment_method_not_found", "no such payment method")
		}
		if errors.Is(err, payments.ErrValidation) {
			return jsonError(c, fiber.StatusBadRequest, "validation_error", "amount_cents and currency are required")
		}
		if resp, handled := respondMoneyError(c, err); handled {
			return resp
		}
		return jsonError(c, fiber.StatusInternalServerError, "topup_failed", "could not complete top-up")
	}

	return c.JSON(fiber.Map{"ok": true, "transaction_id": tx.ID, "status": tx.Status})
}

// HandleDepositIntent records a pending QR deposit. Public: the flow is used
// before a session exists, so the target user id comes from the body.
func HandleDepositIntent(c *fiber.Ctx) error {
	var req struct {
		UserID      uint   `json:"user_id"`
		AmountCents int64  `json:"amount_cents"`
		Currency    string `json:"currency"`
		Method      string `json:"method"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}
	if req.UserID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "validation_error", "user_id is required")
	}

	intent, err := paymentsService().CreateDepositIntent(req.UserID, req.AmountCents, req.Currency, req.Method)
	if err != nil {
		if errors.Is(err, payments.ErrValidation) {
			return jsonError(c, fiber.StatusBadRequest, "validation_error", "amount_cents, currency and method are required")
		}
		if resp, handled := respondMoneyError(c, err); handled {
			return resp
		}
		return jsonError(c, fiber.StatusInternalServerError, "deposit_intent_failed", "could not create deposit intent")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"transaction_id":    intent.Transaction.ID,
		"payload":           intent.Payload,
		"qr_image_data_url": intent.QRImage,
	})
}

// HandlePSPWebhook finalizes a pending deposit. Server-to-server endpoint;
// idempotent against duplicate deliveries.
func HandlePSPWebhook(c *fiber.Ctx) error {
	var req struct {
		TransactionID uint   `json:"transaction_id"`
		Status        string `json:"status"`
		ProviderTxID  string `json:"provider_tx_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}

	tx, err := paymentsService().ConfirmWebhook(req.TransactionID, req.Status, req.ProviderTxID)
	if err != nil {
		if errors.Is(err, payments.ErrTransactionNotFound) {
			return jsonError(c, fiber.StatusNotFound, "transaction_not_found", "unknown transaction id")
		}
		if errors.Is(err, payments.ErrUnknownWebhookStatus) {
			return jsonError(c, fiber.StatusBadRequest, "unknown_status", "unrecognized webhook status")
		}
		if resp, handled := respondMoneyError(c, err); handled {
			return resp
		}
		return jsonError(c, fiber.StatusInternalServerError, "webhook_failed", "could not process webhook")
	}

	return c.JSON(fiber.Map{"ok": true, "transaction_id": tx.ID, "status": tx.Status})
}

// HandleTransferQRIntent builds a scannable peer-transfer payload for the
// session user.
func HandleTransferQRIntent(c *fiber.Ctx) error {
	if _, ok := requireSessionUser(c); !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	var req struct {
		ToUsername  string `json:"to_username"`
		AmountCents int64  `json:"amount_cents"`
		Currency    string `json:"currency"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid JSON body")
	}

	intent, err := paymentsService().CreateTransferIntent(req.ToUsername, req.AmountCents, req.Currency)
	if err != nil {
		if errors.Is(err, payments.ErrRecipientNotFound) {
			return jsonError(c, fiber.StatusNotFound, "recipient_not_found", "no user with that username")
		}
		if errors.Is(err, payments.ErrValidation) {
			return jsonError(c, fiber.StatusBadRequest, "validation_error", "to_username and amount_cents are required")
		}
		if resp, handled := respondMoneyError(c, err); handled {
			return resp
		}
		return jsonError(c, fiber.StatusInternalServerError, "transfer_intent_failed", "could not create transfer intent")
	}

	return c.JSON(fiber.Map{
		"to_user_id":        intent.ToUserID,
		"to_username":       intent.ToUsername,
		"payload":           intent.Payload,
		"qr_image_data_url": intent.QRImage,
	})
}
