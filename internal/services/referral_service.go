package services

import (
	"fmt"
	"strings"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/internal/repositories"
	"github.com/toothpick/loyalty/internal/security"
	"github.com/toothpick/loyalty/pkg/errors"
	"github.com/toothpick/loyalty/pkg/logger"
)

// ReferralService records referrer/referred relationships and pays out the
// dual-sided reward when the referred user's first qualifying order lands.
type ReferralService struct {
	referrals *repositories.ReferralRepository
	earning   *EarningService
	policy    Policy
	notifier  Notifier
}

func NewReferralService(referrals *repositories.ReferralRepository, earning *EarningService, policy Policy, notifier Notifier) *ReferralService {
	return &ReferralService{
		referrals: referrals,
		earning:   earning,
		policy:    policy,
		notifier:  notifier,
	}
}

// CreateReferral records a pending relationship at registration time.
func (s *ReferralService) CreateReferral(referrerID, referredUserID uint, code string) (*models.Referral, error) {
	if referrerID == referredUserID {
		return nil, errors.New(errors.ErrCodeSelfReferral, "users cannot refer themselves")
	}
	if referrerID == 0 || referredUserID == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "referrer and referred user ids are required")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, errors.New(errors.ErrCodeValidation, "referral code is required")
	}

	referral := &models.Referral{
		ReferrerID:     referrerID,
		ReferredUserID: referredUserID,
		ReferralCode:   code,
		Status:         models.ReferralStatusPending,
	}
	if err := s.referrals.Create(referral); err != nil {
		return nil, err
	}

	logger.Info("referral created", "referrer_id", referrerID, "referred_id", referredUserID)
	return referral, nil
}

// CompleteOnFirstOrder transitions the referred user's pending referral and
// credits both sides, each award keyed on the referral id so the double
// grant cannot be replayed even if this is called twice for the same order.
// Returns (nil, nil) when the user has no pending referral. Award failures
// are logged, not returned: referral rewards never block order completion.
func (s *ReferralService) CompleteOnFirstOrder(referredUserID uint, orderID string) (*models.Referral, error) {
	if orderID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "order id is required")
	}

	referral, err := s.referrals.CompleteFirstOrder(referredUserID, orderID)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, nil
	}

	s.awardSide(referral.ReferrerID, fmt.Sprintf("referral:%d:referrer", referral.ID),
		"Successful referral - invited user completed their first order")
	s.awardSide(referral.ReferredUserID, fmt.Sprintf("referral:%d:referred", referral.ID),
		"Referral bonus - thanks for joining through an invite")

	if s.notifier != nil {
		s.notifier.ReferralCompleted(referral.ReferrerID, referral.ReferredUserID, s.policy.ReferralPoints)
	}

	logger.Info("referral completed", "referral_id", referral.ID,
		"referrer_id", referral.ReferrerID, "referred_id", referral.ReferredUserID, "order_id", orderID)
	return referral, nil
}

func (s *ReferralService) awardSide(userID uint, sourceRef, description string) {
	_, err := s.earning.Award(userID, models.ReasonReferral, &sourceRef, s.policy.ReferralPoints, description)
	if err != nil && !errors.HasCode(err, errors.ErrCodeAlreadyAwarded) {
		logger.Warn("referral reward not applied", "user_id", userID, "source_ref", sourceRef, "error", err)
	}
}

// Stats summarizes a referrer's funnel plus their recent relationships.
func (s *ReferralService) Stats(referrerID uint) (*repositories.ReferralStats, []models.Referral, error) {
	stats, err := s.referrals.Stats(referrerID)
	if err != nil {
		return nil, nil, err
	}
	recent, err := s.referrals.ListByReferrer(referrerID, 10)
	if err != nil {
		return nil, nil, err
	}
	return stats, recent, nil
}

// IssueCode generates a fresh referral code. Persisting it on the user is
// the account subsystem's concern.
func (s *ReferralService) IssueCode() string {
	return security.GenerateSecureCode(8)
}
