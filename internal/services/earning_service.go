package services

import (
	"fmt"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/internal/repositories"
	"github.com/toothpick/loyalty/internal/security"
	"github.com/toothpick/loyalty/pkg/errors"
	"github.com/toothpick/loyalty/pkg/logger"
)

// Notifier receives best-effort loyalty events. Implementations must not
// block; failures are logged, never propagated.
type Notifier interface {
	TierPromoted(userID uint, tier string)
	ReferralCompleted(referrerID, referredUserID uint, points int64)
}

// EarningService computes and appends point-earning entries. The storage
// unique index on (reason, sourceRef) makes every award happen at most once
// per triggering event, even under concurrent replays.
type EarningService struct {
	ledger   *repositories.LedgerRepository
	policy   Policy
	notifier Notifier
}

func NewEarningService(ledger *repositories.LedgerRepository, policy Policy, notifier Notifier) *EarningService {
	return &EarningService{
		ledger:   ledger,
		policy:   policy,
		notifier: notifier,
	}
}

// Award appends one earning entry. sourceRef is the idempotency key and is
// mandatory for purchase and review awards.
func (s *EarningService) Award(userID uint, reason string, sourceRef *string, points int64, description string) (*models.LedgerEntry, error) {
	if points <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidAmount, fmt.Sprintf("award must be positive, got %d", points))
	}
	if (reason == models.ReasonPurchase || reason == models.ReasonReview) && (sourceRef == nil || *sourceRef == "") {
		return nil, errors.New(errors.ErrCodeValidation, "source ref is required for "+reason+" awards")
	}

	before, err := s.ledger.GetLifetimeEarned(userID)
	if err != nil {
		return nil, err
	}

	entry, err := s.ledger.Credit(userID, points, reason, sourceRef, description)
	if err != nil {
		return nil, err
	}

	logger.Info("points awarded", "user_id", userID, "reason", reason, "points", points)
	s.notifyIfPromoted(userID, before, before+points)
	return entry, nil
}

// AwardForPurchase awards floor(orderTotal / divisor) points for a completed
// order. Orders under one divisor earn nothing; that is a no-op, not an
// error. Replays with the same order id fail with ALREADY_AWARDED.
func (s *EarningService) AwardForPurchase(userID uint, orderID string, orderTotal float64) (*models.LedgerEntry, error) {
	if orderID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "order id is required")
	}
	if orderTotal < 0 {
		return nil, errors.New(errors.ErrCodeInvalidAmount, "order total cannot be negative")
	}

	points := int64(orderTotal) / s.policy.PurchaseRateDivisor
	if points <= 0 {
		logger.Debug("order below earn rate, no points", "user_id", userID, "order_id", orderID, "total", orderTotal)
		return nil, nil
	}

	return s.Award(userID, models.ReasonPurchase, &orderID, points,
		fmt.Sprintf("Completed purchase - $%.2f", orderTotal))
}

// AwardForReview awards the flat review bonus once per approved review.
func (s *EarningService) AwardForReview(userID uint, reviewID string) (*models.LedgerEntry, error) {
	if reviewID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "review id is required")
	}
	return s.Award(userID, models.ReasonReview, &reviewID, s.policy.ReviewPoints,
		fmt.Sprintf("Approved review - %d points", s.policy.ReviewPoints))
}

// AwardWelcome grants the one-time signup bonus. The user id itself is the
// idempotency key, so a second call fails with ALREADY_AWARDED.
func (s *EarningService) AwardWelcome(userID uint) (*models.LedgerEntry, error) {
	ref := fmt.Sprintf("user:%d", userID)
	return s.Award(userID, models.ReasonWelcome, &ref, s.policy.WelcomePoints,
		fmt.Sprintf("Welcome bonus - %d points", s.policy.WelcomePoints))
}

// GrantManual applies an admin-supplied delta, positive or negative. It
// always requires a non-empty description and the authorizing admin id; the
// description is recorded with an admin prefix for the audit trail.
func (s *EarningService) GrantManual(userID uint, points int64, description string, adminID uint) (*models.LedgerEntry, error) {
	if points == 0 {
		return nil, errors.New(errors.ErrCodeInvalidAmount, "manual grant must be non-zero")
	}
	if adminID == 0 {
		return nil, errors.New(errors.ErrCodeUnauthorized, "manual grants require an authorizing admin")
	}
	description = security.SanitizeText(description)
	if description == "" {
		return nil, errors.New(errors.ErrCodeValidation, "manual grants require a description")
	}

	before, err := s.ledger.GetLifetimeEarned(userID)
	if err != nil {
		return nil, err
	}

	entry, err := s.ledger.Adjust(userID, points, models.ReasonManual, nil,
		fmt.Sprintf("[admin %d] %s", adminID, description))
	if err != nil {
		return nil, err
	}

	logger.Info("manual grant applied", "user_id", userID, "admin_id", adminID, "points", points)
	if points > 0 {
		s.notifyIfPromoted(userID, before, before+points)
	}
	return entry, nil
}

func (s *EarningService) notifyIfPromoted(userID uint, lifetimeBefore, lifetimeAfter int64) {
	if s.notifier == nil {
		return
	}
	before := TierFor(lifetimeBefore)
	after := TierFor(lifetimeAfter)
	if after > before {
		s.notifier.TierPromoted(userID, after.String())
	}
}
