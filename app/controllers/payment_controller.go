package controllers

import (
	"errors"
	"log"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ameibeauty/cards/app/repository"
	"github.com/ameibeauty/cards/internal/pkg/database"
	"github.com/ameibeauty/cards/internal/pkg/env"
	"github.com/ameibeauty/cards/internal/pkg/payments"
)

// CheckoutRequest is the body of POST /api/payment/checkout.
type CheckoutRequest struct {
	CardID     string `json:"card_id" validate:"required"`
	SuccessURL string `json:"success_url" validate:"omitempty,url"`
	CancelURL  string `json:"cancel_url" validate:"omitempty,url"`
}

// HandlePaymentCheckout opens a provider checkout session for the paid
// unlock and returns the redirect URL.
func HandlePaymentCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	repo := repository.GetGlobalFactory().GetCardRepository()
	if _, err := repo.GetByID(req.CardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Card not found")
		}
		return internalError(c, "Failed to load card")
	}

	origin := c.Get(fiber.HeaderOrigin)
	if origin == "" {
		origin = env.GetEnv("PUBLIC_DOMAIN", "https://amei.beauty")
	}
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = origin + "/?payment=success&card_id=" + url.QueryEscape(req.CardID)
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = origin + "/?payment=cancelled"
	}

	client := payments.NewStripeClientFromEnv()
	session, err := client.CreateCheckoutSession(c.Context(), payments.CheckoutInput{
		CardID:     req.CardID,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		log.Printf("checkout session creation failed for card %s: %v", req.CardID, err)
		return internalError(c, "Failed to create checkout session")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"checkout_url": session.URL,
		"session_id":   session.ID,
		"card_id":      req.CardID,
		"amount":       payments.DefaultPaymentAmount,
		"currency":     payments.DefaultPaymentCurrency,
	})
}

// HandlePaymentWebhook receives provider-signed event deliveries. Anything
// past the signature check is acknowledged with 200 so the provider does
// not retry failures that are recorded in the ledger instead.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	svc := payments.NewServiceFromDB(database.GetDB())
	err := svc.HandleWebhookEvent(c.Context(), c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrNotConfigured):
			return internalError(c, "Webhook secret not configured")
		case errors.Is(err, payments.ErrInvalidSignature):
			return badRequest(c, "Invalid signature")
		case errors.Is(err, payments.ErrMalformedEvent):
			return badRequest(c, "Malformed event payload")
		default:
			log.Printf("webhook processing failed: %v", err)
			return internalError(c, "Webhook processing failed")
		}
	}
	return c.SendStatus(fiber.StatusOK)
}
