package repository

import (
	"github.com/ameibeauty/cards/app/models"
	"gorm.io/gorm"
)

// cardRepository implements the CardRepository interface
type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new card repository instance
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

// Create creates a new card in the database
func (r *cardRepository) Create(card *models.Card) error {
	return r.db.Create(card).Error
}

// GetByID retrieves a card by id regardless of its active state
func (r *cardRepository) GetByID(id string) (*models.Card, error) {
	var card models.Card
	err := r.db.Where("id = ?", id).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// GetActiveByID retrieves a card that has not been unpublished
func (r *cardRepository) GetActiveByID(id string) (*models.Card, error) {
	var card models.Card
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// GetByUsername retrieves a card by its claimed username
func (r *cardRepository) GetByUsername(username string) (*models.Card, error) {
	var card models.Card
	err := r.db.Where("username = ?", username).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// Update persists all card fields
func (r *cardRepository) Update(card *models.Card) error {
	return r.db.Save(card).Error
}

// SoftDelete unpublishes a card; rows are never hard-deleted here
func (r *cardRepository) SoftDelete(id string) error {
	result := r.db.Model(&models.Card{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListActive returns published cards, featured and well-endorsed first
func (r *cardRepository) ListActive(offset, limit int) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.Where("is_active = ?", true).
		Order("is_featured DESC, endorsement_count DESC, published_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&cards).Error
	return cards, err
}

// CountActive returns the number of published cards
func (r *cardRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.Card{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// GetRecentEndorsements returns the newest endorsements for a card
func (r *cardRepository) GetRecentEndorsements(cardID string, limit int) ([]models.Endorsement, error) {
	var endorsements []models.Endorsement
	err := r.db.Where("card_id = ?", cardID).
		Order("shared_at DESC").
		Limit(limit).
		Find(&endorsements).Error
	return endorsements, err
}
