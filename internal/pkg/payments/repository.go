package payments

import (
	"time"

	"github.com/ameibeauty/cards/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the webhook processor.
type Repository interface {
	// CreateEventIfNotExists inserts the ledger row unless the provider
	// event id is already recorded. The unique constraint on event_id is
	// the real idempotency guard; the boolean reports whether this call
	// created the row.
	CreateEventIfNotExists(event *models.WebhookEvent) (bool, error)
	MarkEvent(eventID, status, cardID, errorMessage string) error
	GetCard(cardID string) (*models.Card, error)
	SaveCard(card *models.Card) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateEventIfNotExists(event *models.WebhookEvent) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) MarkEvent(eventID, status, cardID, errorMessage string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        status,
		"processed_at":  &now,
		"error_message": errorMessage,
	}
	if cardID != "" {
		updates["card_id"] = cardID
	}
	return r.db.Model(&models.WebhookEvent{}).Where("event_id = ?", eventID).Updates(updates).Error
}

func (r *gormRepository) GetCard(cardID string) (*models.Card, error) {
	var card models.Card
	if err := r.db.Where("id = ?", cardID).First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *gormRepository) SaveCard(card *models.Card) error {
	return r.db.Save(card).Error
}
