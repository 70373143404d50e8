package repository

import (
	"github.com/ameibeauty/cards/app/models"
)

// CardRepository defines the interface for card-related database operations
type CardRepository interface {
	Create(card *models.Card) error
	GetByID(id string) (*models.Card, error)
	GetActiveByID(id string) (*models.Card, error)
	GetByUsername(username string) (*models.Card, error)
	Update(card *models.Card) error
	SoftDelete(id string) error
	ListActive(offset, limit int) ([]models.Card, error)
	CountActive() (int64, error)
	GetRecentEndorsements(cardID string, limit int) ([]models.Endorsement, error)
}

// WebhookEventRepository defines read access to the idempotency ledger for
// operator inspection; writes go through the payments processor.
type WebhookEventRepository interface {
	GetByEventID(eventID string) (*models.WebhookEvent, error)
	ListRecent(limit int) ([]models.WebhookEvent, error)
}
