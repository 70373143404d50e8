package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ameibeauty/cards/app/models"
	"github.com/ameibeauty/cards/app/repository"
	"github.com/ameibeauty/cards/internal/pkg/middleware"
	"github.com/ameibeauty/cards/internal/pkg/statistics"
	"github.com/ameibeauty/cards/internal/pkg/token"
	"github.com/ameibeauty/cards/internal/pkg/updatelock"
)

// PublishRequest is the body of POST /api/publish.
type PublishRequest struct {
	ID          string `json:"id"`
	Username    string `json:"username" validate:"omitempty,min=3,max=100"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=150"`
	Profession  string `json:"profession" validate:"max=150"`
}

// CardUpdateRequest is the body of PUT /api/card/:id. Only profile-facing
// fields are caller-writable; lock and payment state never is.
type CardUpdateRequest struct {
	Username    string `json:"username" validate:"omitempty,min=3,max=100"`
	DisplayName string `json:"display_name" validate:"omitempty,min=2,max=150"`
	Profession  string `json:"profession" validate:"max=150"`
}

// HandlePublishCard creates a card or republishes an existing one. A fresh
// owner token appears in the response only when one was minted: on a new
// card, or when a legacy card is upgraded to token auth.
func HandlePublishCard(c *fiber.Ctx) error {
	var req PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	repo := repository.GetGlobalFactory().GetCardRepository()

	if req.Username != "" {
		taken, err := repo.GetByUsername(req.Username)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return internalError(c, "Failed to check username")
		}
		if taken != nil && taken.ID != req.ID {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Username already taken"})
		}
	}

	var existing *models.Card
	if req.ID != "" {
		card, err := repo.GetByID(req.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return internalError(c, "Failed to load card")
		}
		existing = card
	}

	if existing == nil {
		return publishNewCard(c, repo, &req)
	}
	return republishCard(c, repo, existing, &req)
}

func publishNewCard(c *fiber.Ctx, repo repository.CardRepository, req *PublishRequest) error {
	ownerToken, err := token.Generate()
	if err != nil {
		return internalError(c, "Failed to generate owner token")
	}
	digest, err := token.Digest(ownerToken, middleware.AuthSecret())
	if err != nil {
		return internalError(c, "Failed to generate owner token")
	}

	now := time.Now()
	freePeriodEnd := now.AddDate(0, 0, models.FreePeriodDays)
	card := &models.Card{
		ID:                  req.ID,
		Username:            req.Username,
		DisplayName:         req.DisplayName,
		Profession:          req.Profession,
		OwnerTokenDigest:    &digest,
		IsActive:            true,
		FreePeriodEnd:       freePeriodEnd,
		UpdatesEnabledUntil: &freePeriodEnd,
		CanUpdate:           true,
		PaymentStatus:       models.PaymentStatusNone,
	}
	if err := repo.Create(card); err != nil {
		return internalError(c, "Failed to publish card")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":     true,
		"card":        card,
		"owner_token": ownerToken,
		"message":     "Save this token: it is shown once and proves ownership of the card.",
	})
}

func republishCard(c *fiber.Ctx, repo repository.CardRepository, card *models.Card, req *PublishRequest) error {
	var mintedToken string

	cred := card.OwnerCredential()
	if cred.Legacy {
		// Legacy card upgrade: minting a token claims the card for whoever
		// republishes it first, matching the original migration path.
		ownerToken, err := token.Generate()
		if err != nil {
			return internalError(c, "Failed to generate owner token")
		}
		digest, err := token.Digest(ownerToken, middleware.AuthSecret())
		if err != nil {
			return internalError(c, "Failed to generate owner token")
		}
		card.OwnerTokenDigest = &digest
		mintedToken = ownerToken
	} else {
		presented, ok := token.ExtractBearer(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "This card requires authentication. Please provide an Authorization header.",
			})
		}
		if result := middleware.ResolveOwnership(card, presented, middleware.AuthSecret()); !result.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Invalid authentication token",
			})
		}
	}

	card.Username = req.Username
	card.DisplayName = req.DisplayName
	card.Profession = req.Profession
	card.IsActive = true
	card.CanUpdate = updatelock.CanUpdate(card, time.Now())
	if err := repo.Update(card); err != nil {
		return internalError(c, "Failed to publish card")
	}

	resp := fiber.Map{
		"success": true,
		"card":    card,
	}
	if mintedToken != "" {
		resp["owner_token"] = mintedToken
		resp["message"] = "Save this token: it is shown once and proves ownership of the card."
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandleGetCard returns a published card. Reads are open.
func HandleGetCard(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetCardRepository()
	card, err := repo.GetActiveByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Card not found")
		}
		return internalError(c, "Failed to load card")
	}

	endorsements, err := repo.GetRecentEndorsements(card.ID, models.RecentEndorsementLimit)
	if err != nil {
		log.Printf("failed to load endorsements for card %s: %v", card.ID, err)
	} else {
		card.Endorsements = endorsements
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"card": card})
}

// HandleUpdateCard applies a profile update. Ownership was already checked
// by the router middleware; the update lock is evaluated fresh here.
func HandleUpdateCard(c *fiber.Ctx) error {
	var req CardUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	repo := repository.GetGlobalFactory().GetCardRepository()
	card, err := repo.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Card not found")
		}
		return internalError(c, "Failed to load card")
	}

	now := time.Now()
	if !updatelock.CanUpdate(card, now) {
		details := updatelock.Details(card)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":             "updates_locked",
			"message":           "Get 6 endorsements for 6 months free updates, 10 for 12 months + better placement, or pay for 12 months + better placement",
			"endorsement_count": details.EndorsementCount,
			"needed":            details.Needed,
			"payment_option":    details.PaymentOption,
			"payment_amount":    details.PaymentAmount,
			"payment_currency":  details.PaymentCurrency,
		})
	}

	if req.Username != "" && req.Username != card.Username {
		taken, err := repo.GetByUsername(req.Username)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return internalError(c, "Failed to check username")
		}
		if taken != nil && taken.ID != card.ID {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Username already taken"})
		}
		card.Username = req.Username
	}
	if req.DisplayName != "" {
		card.DisplayName = req.DisplayName
	}
	if strings.TrimSpace(req.Profession) != "" {
		card.Profession = req.Profession
	}
	// Refresh the cached mirror while we hold the freshly derived value.
	card.CanUpdate = updatelock.CanUpdate(card, now)

	if err := repo.Update(card); err != nil {
		return internalError(c, "Failed to update card")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "card": card})
}

// HandleDeleteCard unpublishes a card (soft delete).
func HandleDeleteCard(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetCardRepository()
	if err := repo.SoftDelete(c.Params("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Card not found")
		}
		return internalError(c, "Failed to unpublish card")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Card unpublished"})
}

// HandleDirectory lists published cards, featured and well-endorsed first.
func HandleDirectory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	repo := repository.GetGlobalFactory().GetCardRepository()
	cards, err := repo.ListActive(offset, limit)
	if err != nil {
		return internalError(c, "Failed to load directory")
	}
	total, err := repo.CountActive()
	if err != nil {
		return internalError(c, "Failed to load directory")
	}

	stats := statistics.GetStatisticsData()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"cards":  cards,
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"stats": fiber.Map{
			"featured_cards":     stats.FeaturedCards,
			"today_endorsements": stats.TodayEndorsements,
		},
	})
}
