package endorse

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ameibeauty/cards/app/models"
	"github.com/ameibeauty/cards/internal/pkg/updatelock"
	"gorm.io/gorm"
)

// ErrCardNotFound is returned when the endorsed card does not exist.
var ErrCardNotFound = errors.New("card not found")

// Service records endorsements and advances the unlock thresholds.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an endorsement service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates an endorsement service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// RecordEndorsement appends one endorsement, bumps the running count, and
// applies the threshold grants against the new count. The whole step runs
// in one transaction with the card row locked, so a count can only cross
// each threshold once.
func (s *Service) RecordEndorsement(ctx context.Context, in RecordInput) (*Result, error) {
	_ = ctx
	cardID := strings.TrimSpace(in.CardID)
	if cardID == "" {
		return nil, errors.New("card_id is required")
	}

	shareMethod := strings.TrimSpace(in.ShareMethod)
	if shareMethod == "" {
		shareMethod = models.ShareMethodLink
	}

	var result Result
	err := s.repo.Transaction(func(tx Repository) error {
		card, err := tx.GetCardForUpdate(cardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCardNotFound
			}
			return err
		}

		now := s.now()
		endorsement := &models.Endorsement{
			CardID:              card.ID,
			RecommenderName:     strings.TrimSpace(in.RecommenderName),
			RecommenderWhatsapp: strings.TrimSpace(in.RecommenderWhatsapp),
			SharedVia:           shareMethod,
			SharedAt:            now,
		}
		if err := tx.CreateEndorsement(endorsement); err != nil {
			return err
		}
		if err := tx.TrimEndorsements(card.ID, models.RecentEndorsementLimit); err != nil {
			return err
		}

		newCount := card.EndorsementCount + 1
		months, featured := grantForCount(newCount)

		card.EndorsementCount = newCount
		card.LastEndorsementAt = &now
		if months > 0 {
			// Unlock windows replace from now rather than extending what
			// remains; a grant can therefore shorten a longer active window.
			until := now.AddDate(0, months, 0)
			card.UpdatesEnabledUntil = &until
			if featured {
				card.IsFeatured = true
			}
		} else if card.UpdatesEnabledUntil == nil {
			until := card.FreePeriodEnd
			card.UpdatesEnabledUntil = &until
		}
		card.CanUpdate = updatelock.CanUpdate(card, now)

		if err := tx.SaveCard(card); err != nil {
			return err
		}

		result = Result{NewCount: newCount, UnlockedMonths: months, Featured: featured}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// grantForCount maps a just-reached endorsement count to its unlock grant.
// A single call increments by exactly one, so at most one threshold fires.
func grantForCount(count int) (months int, featured bool) {
	switch count {
	case updatelock.ThresholdTwelveMonths:
		return updatelock.MonthsAtTwelve, true
	case updatelock.ThresholdSixMonths:
		return updatelock.MonthsAtSix, false
	default:
		return 0, false
	}
}
