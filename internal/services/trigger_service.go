package services

import (
	"fmt"
	"time"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/internal/repositories"
	"github.com/toothpick/loyalty/pkg/errors"
	"github.com/toothpick/loyalty/pkg/logger"
)

// TriggerService is the rule-based alternative to the fixed earning rates:
// named triggers matched by action type, rate-limited per user and period.
// Frequency state is derived from the ledger itself through the source-ref
// composite, so the ledger stays the single source of truth.
type TriggerService struct {
	triggers *repositories.TriggerRepository
	ledger   *repositories.LedgerRepository
	earning  *EarningService
}

func NewTriggerService(triggers *repositories.TriggerRepository, ledger *repositories.LedgerRepository, earning *EarningService) *TriggerService {
	return &TriggerService{
		triggers: triggers,
		ledger:   ledger,
		earning:  earning,
	}
}

// TriggerContext carries per-event data into evaluation. EventRef, when
// supplied, joins the idempotency composite so replaying the same event
// never double-awards even for caps above one.
type TriggerContext struct {
	EventRef string
	Now      time.Time
}

// Evaluate runs every active trigger matching the action type and returns
// the entries it appended. Triggers that hit their frequency cap or lose the
// idempotency race are skipped, not errors.
func (s *TriggerService) Evaluate(userID uint, actionType string, ctx TriggerContext) ([]models.LedgerEntry, error) {
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	triggers, err := s.triggers.ListActiveByAction(actionType, now)
	if err != nil {
		return nil, err
	}
	if len(triggers) == 0 {
		return nil, nil
	}

	lifetime, err := s.ledger.GetLifetimeEarned(userID)
	if err != nil {
		return nil, err
	}
	tier := TierFor(lifetime)

	var awarded []models.LedgerEntry
	for i := range triggers {
		trigger := &triggers[i]
		if !trigger.ValidAt(now) {
			continue
		}

		prefix := fmt.Sprintf("trigger:%d:u%d", trigger.ID, userID)
		bucket := trigger.PeriodBucket(now)
		var count int64
		if bucket != "" {
			prefix += ":" + bucket
			count, err = s.ledger.CountBySourcePrefix(userID, models.ReasonTrigger, prefix)
			if err != nil {
				return awarded, err
			}
			if count >= int64(trigger.MaxPerPeriod) {
				logger.Debug("trigger frequency cap reached", "trigger_id", trigger.ID,
					"user_id", userID, "bucket", bucket)
				continue
			}
		}

		// The event ref joins the composite directly, never combined with
		// the running count: a replayed event must produce the same ref no
		// matter how many other awards landed in the period meanwhile.
		var ref string
		switch {
		case ctx.EventRef != "":
			ref = prefix + ":" + ctx.EventRef
		case bucket != "":
			ref = fmt.Sprintf("%s:%d", prefix, count)
		default:
			// Unlimited trigger without an event ref: every evaluation is a
			// distinct award.
			ref = fmt.Sprintf("%s:%d", prefix, now.UnixNano())
		}

		points := trigger.BasePoints + tierBonus(trigger, tier)
		if points <= 0 {
			continue
		}

		entry, err := s.earning.Award(userID, models.ReasonTrigger, &ref, points,
			fmt.Sprintf("Trigger '%s' (%s)", trigger.Name, actionType))
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeAlreadyAwarded) {
				continue
			}
			return awarded, err
		}
		awarded = append(awarded, *entry)
	}

	return awarded, nil
}

func tierBonus(t *models.LoyaltyTrigger, tier Tier) int64 {
	switch tier {
	case TierSilver:
		return t.BonusSilver
	case TierGold:
		return t.BonusGold
	case TierPlatinum:
		return t.BonusPlatinum
	default:
		return t.BonusBronze
	}
}

// Admin CRUD passthroughs.

func (s *TriggerService) CreateTrigger(trigger *models.LoyaltyTrigger) error {
	return s.triggers.Create(trigger)
}

func (s *TriggerService) UpdateTrigger(trigger *models.LoyaltyTrigger) error {
	return s.triggers.Update(trigger)
}

func (s *TriggerService) DeactivateTrigger(id uint) error {
	return s.triggers.Deactivate(id)
}

func (s *TriggerService) GetTrigger(id uint) (*models.LoyaltyTrigger, error) {
	return s.triggers.GetByID(id)
}
