package models

import "time"

const (
	WebhookStatusProcessing = "processing"
	WebhookStatusProcessed  = "processed"
	WebhookStatusFailed     = "failed"
	WebhookStatusSkipped    = "skipped"
)

// WebhookEvent is the idempotency ledger for payment-provider deliveries.
// The unique index on EventID is the real guard against double processing;
// rows are created once per provider event and never deleted.
type WebhookEvent struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	EventID      string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"event_id"`
	EventType    string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Status       string     `gorm:"type:varchar(20);not null;default:'processing';index" json:"status"`
	CardID       string     `gorm:"type:varchar(64);default:null;index" json:"card_id,omitempty"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	ProcessedAt  *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
