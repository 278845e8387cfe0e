package services

import (
	"fmt"
	"math"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/internal/repositories"
	"github.com/toothpick/loyalty/pkg/errors"
	"github.com/toothpick/loyalty/pkg/logger"
)

// RedemptionService converts points into order discounts. A redemption may
// use fewer points than requested when the discount cap clamps it; callers
// must finalize the order with the returned values, not the request.
type RedemptionService struct {
	ledger *repositories.LedgerRepository
	policy Policy
}

func NewRedemptionService(ledger *repositories.LedgerRepository, policy Policy) *RedemptionService {
	return &RedemptionService{
		ledger: ledger,
		policy: policy,
	}
}

// RedemptionResult reports what was actually applied.
type RedemptionResult struct {
	DiscountAmount float64
	PointsUsed     int64
}

// RedeemForDiscount validates in order: minimum, balance, discount cap. When
// the cap clamps the discount, pointsUsed is recomputed from the capped
// discount rounding down, so the user is never over-credited. The debit uses
// the order id as its idempotency key: one redemption per order.
func (s *RedemptionService) RedeemForDiscount(userID uint, requestedPoints int64, orderTotal float64, orderID string) (*RedemptionResult, error) {
	if orderID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "order id is required")
	}
	if requestedPoints <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidAmount, fmt.Sprintf("redemption must be positive, got %d", requestedPoints))
	}
	if orderTotal <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidAmount, "order total must be positive")
	}

	if requestedPoints < s.policy.MinRedemption {
		return nil, errors.New(errors.ErrCodeBelowMinRedemption,
			fmt.Sprintf("minimum %d points per redemption, got %d", s.policy.MinRedemption, requestedPoints))
	}

	balance, err := s.ledger.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	if balance < requestedPoints {
		return nil, errors.New(errors.ErrCodeInsufficientPoints,
			fmt.Sprintf("insufficient points: have %d, need %d", balance, requestedPoints))
	}

	pointsUsed := requestedPoints
	discount := float64(requestedPoints) * s.policy.PointsToCurrency

	maxDiscount := orderTotal * s.policy.MaxDiscountPercent
	if discount > maxDiscount {
		// Clamp down to the most points whose discount stays within the cap.
		pointsUsed = int64(math.Floor(maxDiscount / s.policy.PointsToCurrency))
		if pointsUsed <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidAmount, "order total too small for a point discount")
		}
		discount = float64(pointsUsed) * s.policy.PointsToCurrency
	}

	_, err = s.ledger.Debit(userID, pointsUsed, models.ReasonRedemption, &orderID,
		fmt.Sprintf("Discount applied - $%.2f", discount))
	if err != nil {
		return nil, err
	}

	logger.Info("points redeemed", "user_id", userID, "order_id", orderID,
		"points_used", pointsUsed, "discount", discount)

	return &RedemptionResult{
		DiscountAmount: discount,
		PointsUsed:     pointsUsed,
	}, nil
}
