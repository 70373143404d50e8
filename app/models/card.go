package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusNone = "none"
	PaymentStatusPaid = "paid"
)

// FreePeriodDays is the grace window after publishing during which a card
// may always be updated.
const FreePeriodDays = 30

// Card is one published business-card profile. Profile content lives with
// the front end; this side owns activation, ownership and the update lock.
type Card struct {
	ID          string `gorm:"type:varchar(64);primaryKey" json:"id"`
	Username    string `gorm:"type:varchar(100);uniqueIndex;default:null" json:"username,omitempty" validate:"omitempty,min=3,max=100"`
	DisplayName string `gorm:"type:varchar(150)" json:"display_name" validate:"required,min=2,max=150"`
	Profession  string `gorm:"type:varchar(150)" json:"profession" validate:"max=150"`

	// Nil marks a legacy card published before token auth existed. Never
	// serialized; the plaintext token is returned exactly once at publish.
	OwnerTokenDigest *string `gorm:"type:varchar(64);default:null" json:"-"`

	IsActive   bool `gorm:"default:true;index" json:"is_active"`
	IsFeatured bool `gorm:"default:false;index" json:"is_featured"`

	FreePeriodEnd       time.Time  `gorm:"type:timestamp" json:"free_period_end"`
	UpdatesEnabledUntil *time.Time `gorm:"type:timestamp;default:null" json:"updates_enabled_until,omitempty"`
	// Cached mirror of the derived update-lock state; refreshed
	// opportunistically and may transiently lag the derived truth.
	CanUpdate         bool       `gorm:"default:true" json:"can_update"`
	EndorsementCount  int        `gorm:"default:0;index" json:"endorsement_count"`
	LastEndorsementAt *time.Time `gorm:"type:timestamp;default:null" json:"last_endorsement_at,omitempty"`

	PaymentStatus   string     `gorm:"type:varchar(20);default:'none'" json:"payment_status"`
	PaymentDate     *time.Time `gorm:"type:timestamp;default:null" json:"payment_date,omitempty"`
	PaymentAmount   float64    `gorm:"default:0" json:"payment_amount,omitempty"`
	PaymentCurrency string     `gorm:"type:varchar(10)" json:"payment_currency,omitempty"`

	Endorsements []Endorsement `gorm:"foreignKey:CardID" json:"endorsements,omitempty"`
	PublishedAt  time.Time     `gorm:"autoCreateTime" json:"published_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Card) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (c *Card) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// OwnerCredential is the authorization branch of a card: either a stored
// token digest or the explicit legacy marker. Call sites must handle both
// instead of treating a missing digest as a failed verification.
type OwnerCredential struct {
	Legacy bool
	Digest string
}

func (c *Card) OwnerCredential() OwnerCredential {
	if c.OwnerTokenDigest == nil || *c.OwnerTokenDigest == "" {
		return OwnerCredential{Legacy: true}
	}
	return OwnerCredential{Digest: *c.OwnerTokenDigest}
}

// IsPaid reports whether a confirmed payment is on record.
func (c *Card) IsPaid() bool {
	return c.PaymentStatus == PaymentStatusPaid
}
