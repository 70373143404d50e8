package endorse

import (
	"github.com/ameibeauty/cards/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the endorsement engine.
type Repository interface {
	// Transaction runs fn against a transactional copy of the repository;
	// rolling back when fn errors.
	Transaction(fn func(Repository) error) error
	// GetCardForUpdate loads a card and takes a row lock inside a
	// transaction so concurrent endorsements serialize per card.
	GetCardForUpdate(cardID string) (*models.Card, error)
	CreateEndorsement(e *models.Endorsement) error
	// TrimEndorsements drops all but the newest keep rows for a card.
	TrimEndorsements(cardID string, keep int) error
	SaveCard(card *models.Card) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an endorsement repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) GetCardForUpdate(cardID string) (*models.Card, error) {
	var card models.Card
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", cardID).
		First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *gormRepository) CreateEndorsement(e *models.Endorsement) error {
	return r.db.Create(e).Error
}

func (r *gormRepository) TrimEndorsements(cardID string, keep int) error {
	var staleIDs []string
	err := r.db.Model(&models.Endorsement{}).
		Where("card_id = ?", cardID).
		Order("shared_at DESC").
		Offset(keep).
		Limit(100).
		Pluck("id", &staleIDs).Error
	if err != nil {
		return err
	}
	if len(staleIDs) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", staleIDs).Delete(&models.Endorsement{}).Error
}

func (r *gormRepository) SaveCard(card *models.Card) error {
	return r.db.Save(card).Error
}
