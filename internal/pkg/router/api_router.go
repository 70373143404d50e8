package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ameibeauty/cards/app/controllers"
	"github.com/ameibeauty/cards/internal/pkg/constants"
	"github.com/ameibeauty/cards/internal/pkg/middleware"
	"github.com/ameibeauty/cards/internal/pkg/ratelimit"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	limiter := ratelimit.NewFromEnv()
	api := app.Group(constants.APIRoute, ratelimit.Middleware(limiter))

	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "amei cards api",
		})
	})

	api.Post(constants.PublishRoute, controllers.HandlePublishCard)
	api.Get(constants.CardRoute, controllers.HandleGetCard)
	api.Put(constants.CardRoute, middleware.RequireCardOwner(), controllers.HandleUpdateCard)
	api.Delete(constants.CardRoute, middleware.RequireCardOwner(), controllers.HandleDeleteCard)
	api.Post(constants.EndorseRoute, controllers.HandleEndorse)
	api.Get(constants.DirectoryRoute, controllers.HandleDirectory)
	api.Post(constants.PaymentCheckoutRoute, controllers.HandlePaymentCheckout)
	api.Post(constants.PaymentWebhookRoute, controllers.HandlePaymentWebhook)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
