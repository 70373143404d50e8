package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ameibeauty/cards/app/models"
	"github.com/ameibeauty/cards/internal/pkg/env"
	"github.com/ameibeauty/cards/internal/pkg/updatelock"
	"gorm.io/gorm"
)

var (
	// ErrNotConfigured means the webhook secret is missing; the provider
	// should retry once configuration is fixed.
	ErrNotConfigured = errors.New("webhook secret is not configured")
	// ErrInvalidSignature covers a missing or failing signature header.
	// Nothing is written to the ledger in that case.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent means the signed body did not parse as an event.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// Service applies provider payment confirmations to cards exactly once.
type Service struct {
	repo          Repository
	webhookSecret string
	now           func() time.Time
	verify        func(payload []byte, header, secret string) bool
}

// NewService creates a webhook processor from an injected repository.
func NewService(repo Repository, webhookSecret string) *Service {
	return &Service{
		repo:          repo,
		webhookSecret: webhookSecret,
		now:           time.Now,
		verify:        VerifyStripeWebhookSignature,
	}
}

// NewServiceFromDB creates a webhook processor from a GORM DB handle with
// the secret taken from the environment.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), env.GetEnv("STRIPE_WEBHOOK_SECRET", ""))
}

// HandleWebhookEvent verifies, deduplicates and applies one provider
// delivery. Only signature and configuration problems surface as errors;
// processing failures are recorded in the ledger and acknowledged so the
// provider does not retry faults that are not its own.
func (s *Service) HandleWebhookEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	_ = ctx
	if strings.TrimSpace(s.webhookSecret) == "" {
		return ErrNotConfigured
	}
	if !s.verify(payload, signatureHeader, s.webhookSecret) {
		return ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil || event.ID == "" {
		return ErrMalformedEvent
	}

	created, err := s.repo.CreateEventIfNotExists(&models.WebhookEvent{
		EventID:   event.ID,
		EventType: event.Type,
		Status:    models.WebhookStatusProcessing,
	})
	if err != nil {
		return fmt.Errorf("webhook ledger insert failed: %w", err)
	}
	if !created {
		// Redelivery of a known event: the payment effect was already
		// applied (or deliberately skipped), acknowledge and stop.
		return nil
	}

	switch event.Type {
	case EventCheckoutCompleted, EventPaymentSucceeded:
		return s.applyPaidUnlock(&event)
	default:
		return s.repo.MarkEvent(event.ID, models.WebhookStatusSkipped, "", "unhandled event type: "+event.Type)
	}
}

func (s *Service) applyPaidUnlock(event *Event) error {
	cardID, amount, currency := extractPaymentDetails(event)
	if cardID == "" {
		return s.repo.MarkEvent(event.ID, models.WebhookStatusFailed, "", "missing card_id/client_reference_id")
	}

	card, err := s.repo.GetCard(cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.repo.MarkEvent(event.ID, models.WebhookStatusFailed, cardID, "card not found")
		}
		s.markFailed(event.ID, cardID, err)
		return fmt.Errorf("card lookup failed: %w", err)
	}

	now := s.now()
	until := now.AddDate(0, updatelock.PaidMonths, 0)
	card.PaymentStatus = models.PaymentStatusPaid
	card.PaymentDate = &now
	card.PaymentAmount = amount
	card.PaymentCurrency = currency
	card.CanUpdate = true
	card.UpdatesEnabledUntil = &until
	card.IsFeatured = true
	if err := s.repo.SaveCard(card); err != nil {
		s.markFailed(event.ID, cardID, err)
		return fmt.Errorf("paid unlock persist failed: %w", err)
	}

	return s.repo.MarkEvent(event.ID, models.WebhookStatusProcessed, cardID, "")
}

// markFailed is best effort: once the idempotency claim exists, a retry of
// the same event is acknowledged without reprocessing, so the row must not
// stay in processing with no recorded cause.
func (s *Service) markFailed(eventID, cardID string, cause error) {
	if err := s.repo.MarkEvent(eventID, models.WebhookStatusFailed, cardID, cause.Error()); err != nil {
		log.Printf("failed to record webhook failure for %s: %v", eventID, err)
	}
}

// extractPaymentDetails pulls the card reference and amount out of the
// event payload, trying the primary field before the fallback.
func extractPaymentDetails(event *Event) (cardID string, amount float64, currency string) {
	amount = DefaultPaymentAmount
	currency = DefaultPaymentCurrency

	switch event.Type {
	case EventCheckoutCompleted:
		var session checkoutSession
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return "", amount, currency
		}
		cardID = session.ClientReferenceID
		if cardID == "" {
			cardID = session.Metadata["card_id"]
		}
		if session.AmountTotal > 0 {
			amount = float64(session.AmountTotal) / 100
		}
		if session.Currency != "" {
			currency = strings.ToUpper(session.Currency)
		}
	case EventPaymentSucceeded:
		var intent paymentIntent
		if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
			return "", amount, currency
		}
		cardID = intent.Metadata["card_id"]
		if cardID == "" {
			cardID = intent.Metadata["client_reference_id"]
		}
		if intent.Amount > 0 {
			amount = float64(intent.Amount) / 100
		}
		if intent.Currency != "" {
			currency = strings.ToUpper(intent.Currency)
		}
	}
	return cardID, amount, currency
}
