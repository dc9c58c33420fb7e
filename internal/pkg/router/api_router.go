package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/snipmarket/snipmarket/app/controllers"
	"github.com/snipmarket/snipmarket/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Wallet
	v1.Get("/wallet/:userID/balance", controllers.HandleGetBalance)
	v1.Get("/wallet/transactions", middleware.RequireAPISessionAuth, controllers.HandleWalletHistory)

	// Payment methods and intake
	v1.Post("/payment-methods", middleware.RequireAPISessionAuth, controllers.HandleAttachCard)
	v1.Get("/payment-methods", middleware.RequireAPISessionAuth, controllers.HandleListCards)
	v1.Post("/payments/card", middleware.RequireAPISessionAuth, controllers.HandleCardTopUp)
	v1.Post("/payments/deposit-intent", controllers.HandleDepositIntent)
	v1.Post("/payments/webhook", controllers.HandlePSPWebhook)
	v1.Post("/payments/transfer-qr", middleware.RequireAPISessionAuth, controllers.HandleTransferQRIntent)

	// Peer transfers
	v1.Post("/transfers", middleware.RequireAPISessionAuth, controllers.HandlePeerTransfer)

	// Cart and checkout
	v1.Get("/cart", middleware.RequireAPISessionAuth, controllers.HandleGetCart)
	v1.Post("/cart/:threadID", middleware.RequireAPISessionAuth, controllers.HandleCartAdd)
	v1.Delete("/cart/:threadID", middleware.RequireAPISessionAuth, controllers.HandleCartRemove)
	v1.Post("/checkout", middleware.RequireAPISessionAuth, controllers.HandleCheckout)
	v1.Get("/purchases", middleware.RequireAPISessionAuth, controllers.HandleListPurchases)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
