package services

// Policy carries every earning and redemption constant. It is injected into
// each engine at construction time so tests can exercise multiple rate
// regimes without process-wide mutation.
type Policy struct {
	// PurchaseRateDivisor is the currency spend that earns one point
	// (floor division; an order under one divisor earns nothing).
	PurchaseRateDivisor int64
	// ReviewPoints is the flat award for an approved review.
	ReviewPoints int64
	// WelcomePoints is the one-time signup bonus.
	WelcomePoints int64
	// ReferralPoints is awarded to each side of a completed referral.
	ReferralPoints int64
	// MinRedemption is the minimum points per discount redemption.
	MinRedemption int64
	// PointsToCurrency converts one point into currency units.
	PointsToCurrency float64
	// MaxDiscountPercent caps the discount as a fraction of the order total.
	MaxDiscountPercent float64
}

// DefaultPolicy returns the production defaults: 1 point per $100 spent,
// 5 points per review, 10 welcome points, 20 points per referral side,
// 50-point redemption minimum at $0.50 per point, discounts capped at half
// the order total.
func DefaultPolicy() Policy {
	return Policy{
		PurchaseRateDivisor: 100,
		ReviewPoints:        5,
		WelcomePoints:       10,
		ReferralPoints:      20,
		MinRedemption:       50,
		PointsToCurrency:    0.5,
		MaxDiscountPercent:  0.5,
	}
}
