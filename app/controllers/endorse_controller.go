package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ameibeauty/cards/internal/pkg/database"
	"github.com/ameibeauty/cards/internal/pkg/endorse"
)

// EndorseRequest is the body of POST /api/endorse.
type EndorseRequest struct {
	CardID              string `json:"card_id" validate:"required"`
	RecommenderName     string `json:"recommender_name" validate:"max=150"`
	RecommenderWhatsapp string `json:"recommender_whatsapp" validate:"max=50"`
	ShareMethod         string `json:"share_method" validate:"omitempty,oneof=whatsapp instagram facebook link"`
}

// HandleEndorse records a visitor endorsement and reports any unlock the
// new count earned.
func HandleEndorse(c *fiber.Ctx) error {
	var req EndorseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	svc := endorse.NewServiceFromDB(database.GetDB())
	result, err := svc.RecordEndorsement(c.Context(), endorse.RecordInput{
		CardID:              req.CardID,
		RecommenderName:     req.RecommenderName,
		RecommenderWhatsapp: req.RecommenderWhatsapp,
		ShareMethod:         req.ShareMethod,
	})
	if err != nil {
		if errors.Is(err, endorse.ErrCardNotFound) {
			return notFound(c, "Card not found")
		}
		return internalError(c, "Failed to create endorsement")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":           true,
		"endorsement_count": result.NewCount,
		"updates_unlocked":  result.UnlockedMonths > 0,
		"updates_months":    result.UnlockedMonths,
		"featured":          result.Featured,
	})
}
