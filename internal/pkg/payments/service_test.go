package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ameibeauty/cards/app/models"
	"gorm.io/gorm"
)

type fakeRepository struct {
	events  map[string]*models.WebhookEvent
	card    *models.Card
	saves   int
	getErr  error
	saveErr error
}

func newFakeRepository(card *models.Card) *fakeRepository {
	return &fakeRepository{events: make(map[string]*models.WebhookEvent), card: card}
}

func (f *fakeRepository) CreateEventIfNotExists(event *models.WebhookEvent) (bool, error) {
	if _, ok := f.events[event.EventID]; ok {
		return false, nil
	}
	f.events[event.EventID] = event
	return true, nil
}

func (f *fakeRepository) MarkEvent(eventID, status, cardID, errorMessage string) error {
	ev, ok := f.events[eventID]
	if !ok {
		return errors.New("event not recorded")
	}
	ev.Status = status
	if cardID != "" {
		ev.CardID = cardID
	}
	ev.ErrorMessage = errorMessage
	now := time.Now()
	ev.ProcessedAt = &now
	return nil
}

func (f *fakeRepository) GetCard(cardID string) (*models.Card, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.card == nil || f.card.ID != cardID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.card, nil
}

func (f *fakeRepository) SaveCard(card *models.Card) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.card = card
	f.saves++
	return nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo, "whsec_test")
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	svc.verify = func(payload []byte, header, secret string) bool { return header == "good" }
	return svc
}

func checkoutPayload(eventID, cardID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":"checkout.session.completed","data":{"object":{"client_reference_id":%q,"amount_total":1000,"currency":"usd"}}}`,
		eventID, cardID,
	))
}

func TestHandleWebhookEventAppliesPaidUnlock(t *testing.T) {
	repo := newFakeRepository(&models.Card{ID: "card-1", PaymentStatus: models.PaymentStatusNone})
	svc := newTestService(repo)

	if err := svc.HandleWebhookEvent(context.Background(), checkoutPayload("evt_1", "card-1"), "good"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	card := repo.card
	if !card.IsPaid() || !card.CanUpdate || !card.IsFeatured {
		t.Fatalf("paid unlock not applied: %+v", card)
	}
	if card.PaymentAmount != 10 || card.PaymentCurrency != "USD" {
		t.Fatalf("unexpected payment details: %v %v", card.PaymentAmount, card.PaymentCurrency)
	}
	want := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	if card.UpdatesEnabledUntil == nil || !card.UpdatesEnabledUntil.Equal(want) {
		t.Fatalf("updates window = %v, want %v", card.UpdatesEnabledUntil, want)
	}
	if repo.events["evt_1"].Status != models.WebhookStatusProcessed {
		t.Fatalf("ledger status = %q, want processed", repo.events["evt_1"].Status)
	}
}

func TestHandleWebhookEventIsIdempotent(t *testing.T) {
	repo := newFakeRepository(&models.Card{ID: "card-1"})
	svc := newTestService(repo)
	payload := checkoutPayload("evt_1", "card-1")

	if err := svc.HandleWebhookEvent(context.Background(), payload, "good"); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	firstSaves := repo.saves
	windowAfterFirst := *repo.card.UpdatesEnabledUntil
	dateAfterFirst := *repo.card.PaymentDate

	if err := svc.HandleWebhookEvent(context.Background(), payload, "good"); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if repo.saves != firstSaves {
		t.Fatalf("redelivery must not touch the card again")
	}
	if !repo.card.UpdatesEnabledUntil.Equal(windowAfterFirst) || !repo.card.PaymentDate.Equal(dateAfterFirst) {
		t.Fatalf("card state changed on redelivery")
	}
}

func TestHandleWebhookEventInvalidSignature(t *testing.T) {
	repo := newFakeRepository(&models.Card{ID: "card-1"})
	svc := newTestService(repo)

	err := svc.HandleWebhookEvent(context.Background(), checkoutPayload("evt_1", "card-1"), "bad")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(repo.events) != 0 {
		t.Fatalf("signature failure must not write to the ledger")
	}
	if repo.saves != 0 {
		t.Fatalf("signature failure must not mutate the card")
	}
}

func TestHandleWebhookEventMissingSecret(t *testing.T) {
	svc := newTestService(newFakeRepository(nil))
	svc.webhookSecret = ""
	if err := svc.HandleWebhookEvent(context.Background(), []byte(`{}`), "good"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestHandleWebhookEventUnknownTypeSkipped(t *testing.T) {
	repo := newFakeRepository(&models.Card{ID: "card-1"})
	svc := newTestService(repo)

	payload := []byte(`{"id":"evt_2","type":"invoice.created","data":{"object":{}}}`)
	if err := svc.HandleWebhookEvent(context.Background(), payload, "good"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.events["evt_2"].Status != models.WebhookStatusSkipped {
		t.Fatalf("ledger status = %q, want skipped", repo.events["evt_2"].Status)
	}
	if repo.saves != 0 {
		t.Fatalf("skipped event must not touch the card")
	}
}

func TestHandleWebhookEventMissingCardReference(t *testing.T) {
	repo := newFakeRepository(&models.Card{ID: "card-1"})
	svc := newTestService(repo)

	payload := []byte(`{"id":"evt_3","type":"checkout.session.completed","data":{"object":{}}}`)
	if err := svc.HandleWebhookEvent(context.Background(), payload, "good"); err != nil {
		t.Fatalf("missing reference must still be acknowledged, got %v", err)
	}
	if repo.events["evt_3"].Status != models.WebhookStatusFailed {
		t.Fatalf("ledger status = %q, want failed", repo.events["evt_3"].Status)
	}
}

func TestHandleWebhookEventUnknownCard(t *testing.T) {
	repo := newFakeRepository(&models.Card{ID: "card-1"})
	svc := newTestService(repo)

	if err := svc.HandleWebhookEvent(context.Background(), checkoutPayload("evt_4", "missing"), "good"); err != nil {
		t.Fatalf("unknown card must still be acknowledged, got %v", err)
	}
	ev := repo.events["evt_4"]
	if ev.Status != models.WebhookStatusFailed || ev.CardID != "missing" {
		t.Fatalf("unexpected ledger row: %+v", ev)
	}
	if repo.saves != 0 {
		t.Fatalf("unknown card must not be mutated")
	}
}

func TestHandleWebhookEventPaymentIntentFallbackMetadata(t *testing.T) {
	repo := newFakeRepository(&models.Card{ID: "card-1"})
	svc := newTestService(repo)

	payload := []byte(`{"id":"evt_5","type":"payment_intent.succeeded","data":{"object":{"metadata":{"client_reference_id":"card-1"},"amount":2500,"currency":"brl"}}}`)
	if err := svc.HandleWebhookEvent(context.Background(), payload, "good"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.card.PaymentAmount != 25 || repo.card.PaymentCurrency != "BRL" {
		t.Fatalf("unexpected payment details: %v %v", repo.card.PaymentAmount, repo.card.PaymentCurrency)
	}
}

func TestHandleWebhookEventPersistFailureRecordedInLedger(t *testing.T) {
	repo := newFakeRepository(&models.Card{ID: "card-1"})
	repo.saveErr = errors.New("connection reset by peer")
	svc := newTestService(repo)

	err := svc.HandleWebhookEvent(context.Background(), checkoutPayload("evt_6", "card-1"), "good")
	if err == nil {
		t.Fatalf("expected persist failure to surface so the delivery is not acknowledged")
	}

	ev := repo.events["evt_6"]
	if ev == nil || ev.Status != models.WebhookStatusFailed {
		t.Fatalf("ledger row must be marked failed, got %+v", ev)
	}
	if ev.CardID != "card-1" || ev.ErrorMessage == "" {
		t.Fatalf("failure cause must be recorded for inspection, got %+v", ev)
	}
}

func TestHandleWebhookEventLookupFailureRecordedInLedger(t *testing.T) {
	repo := newFakeRepository(&models.Card{ID: "card-1"})
	repo.getErr = errors.New("driver: bad connection")
	svc := newTestService(repo)

	err := svc.HandleWebhookEvent(context.Background(), checkoutPayload("evt_7", "card-1"), "good")
	if err == nil {
		t.Fatalf("expected lookup failure to surface")
	}

	ev := repo.events["evt_7"]
	if ev == nil || ev.Status != models.WebhookStatusFailed || ev.ErrorMessage == "" {
		t.Fatalf("ledger row must carry the failure, got %+v", ev)
	}
	if repo.saves != 0 {
		t.Fatalf("no card mutation expected after a lookup failure")
	}
}

func TestHandleWebhookEventMalformedBody(t *testing.T) {
	repo := newFakeRepository(nil)
	svc := newTestService(repo)

	if err := svc.HandleWebhookEvent(context.Background(), []byte("not json"), "good"); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
	if len(repo.events) != 0 {
		t.Fatalf("malformed body must not write to the ledger")
	}
}
