package services

import (
	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/internal/repositories"
	"github.com/toothpick/loyalty/internal/security"
	"github.com/toothpick/loyalty/pkg/errors"
	"gorm.io/gorm"
)

// Loyalty is the inbound surface handed to the API layer. It owns the
// engine wiring; callers never touch repositories directly.
type Loyalty struct {
	Earning    *EarningService
	Redemption *RedemptionService
	Referrals  *ReferralService
	Claims     *ClaimService
	Triggers   *TriggerService

	ledger      *repositories.LedgerRepository
	adminSecret string
}

// NewLoyalty wires every engine against one database handle. notifier may
// be nil to disable outbound notifications; adminSecret signs the admin
// tokens accepted by GrantManualWithToken.
func NewLoyalty(db *gorm.DB, policy Policy, adminSecret string, notifier Notifier) *Loyalty {
	ledger := repositories.NewLedgerRepository(db)
	earning := NewEarningService(ledger, policy, notifier)

	return &Loyalty{
		Earning:     earning,
		Redemption:  NewRedemptionService(ledger, policy),
		Referrals:   NewReferralService(repositories.NewReferralRepository(db), earning, policy, notifier),
		Claims:      NewClaimService(db, ledger, repositories.NewRewardItemRepository(db), repositories.NewClaimRepository(db)),
		Triggers:    NewTriggerService(repositories.NewTriggerRepository(db), ledger, earning),
		ledger:      ledger,
		adminSecret: adminSecret,
	}
}

// BalanceAndTier is the combined account summary.
type BalanceAndTier struct {
	Balance        int64
	LifetimeEarned int64
	Tier           string
	NextThreshold  int64
}

// GetBalanceAndTier returns the spendable balance plus the tier derived
// from lifetime earned points.
func (l *Loyalty) GetBalanceAndTier(userID uint) (*BalanceAndTier, error) {
	balance, err := l.ledger.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	lifetime, err := l.ledger.GetLifetimeEarned(userID)
	if err != nil {
		return nil, err
	}
	return &BalanceAndTier{
		Balance:        balance,
		LifetimeEarned: lifetime,
		Tier:           TierFor(lifetime).String(),
		NextThreshold:  NextThreshold(lifetime),
	}, nil
}

// GetHistory pages through a user's ledger, newest first.
func (l *Loyalty) GetHistory(userID uint, limit int, cursor uint, filter repositories.HistoryFilter) ([]models.LedgerEntry, uint, error) {
	return l.ledger.GetHistory(userID, limit, cursor, filter)
}

// GrantManualWithToken verifies a signed admin token and applies the grant
// on behalf of the admin it identifies.
func (l *Loyalty) GrantManualWithToken(token string, userID uint, points int64, description string) (*models.LedgerEntry, error) {
	claims, err := security.ValidateAdminToken(token, l.adminSecret)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnauthorized, "invalid admin token")
	}
	return l.Earning.GrantManual(userID, points, description, claims.AdminID)
}
