package repository

import (
	"github.com/ameibeauty/cards/app/models"
	"gorm.io/gorm"
)

// webhookEventRepository implements the WebhookEventRepository interface
type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new ledger repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// GetByEventID retrieves a ledger row by its provider-assigned id
func (r *webhookEventRepository) GetByEventID(eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListRecent returns the newest ledger rows for operator inspection
func (r *webhookEventRepository) ListRecent(limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
