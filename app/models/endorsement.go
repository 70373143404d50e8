package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ShareMethodWhatsapp  = "whatsapp"
	ShareMethodInstagram = "instagram"
	ShareMethodFacebook  = "facebook"
	ShareMethodLink      = "link"
)

// RecentEndorsementLimit caps the per-card endorsement history; the running
// count on the card keeps growing past it.
const RecentEndorsementLimit = 20

// Endorsement is a lightweight visitor attestation for a card. Rows are
// append-only; overflow beyond RecentEndorsementLimit trims the oldest.
type Endorsement struct {
	ID                  string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	CardID              string    `gorm:"type:varchar(64);not null;index" json:"card_id"`
	RecommenderName     string    `gorm:"type:varchar(150);default:null" json:"recommender_name,omitempty"`
	RecommenderWhatsapp string    `gorm:"type:varchar(50);default:null" json:"recommender_whatsapp,omitempty"`
	SharedVia           string    `gorm:"type:varchar(20);default:'link'" json:"shared_via" validate:"oneof=whatsapp instagram facebook link"`
	SharedAt            time.Time `gorm:"type:timestamp" json:"shared_at"`
	ClickedCount        int       `gorm:"default:0" json:"clicked_count"`
	ConvertedCount      int       `gorm:"default:0" json:"converted_count"`
}

func (e *Endorsement) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.SharedVia == "" {
		e.SharedVia = ShareMethodLink
	}
	return nil
}
