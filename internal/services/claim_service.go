package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/internal/repositories"
	"github.com/toothpick/loyalty/internal/security"
	"github.com/toothpick/loyalty/pkg/errors"
	"github.com/toothpick/loyalty/pkg/logger"
	"github.com/toothpick/loyalty/pkg/utils"
	"gorm.io/gorm"
)

// ClaimService exchanges points for catalog rewards. The stock decrement,
// claim insert and ledger debit share one transaction: all or nothing.
type ClaimService struct {
	db     *gorm.DB
	ledger *repositories.LedgerRepository
	items  *repositories.RewardItemRepository
	claims *repositories.ClaimRepository
}

func NewClaimService(db *gorm.DB, ledger *repositories.LedgerRepository, items *repositories.RewardItemRepository, claims *repositories.ClaimRepository) *ClaimService {
	return &ClaimService{
		db:     db,
		ledger: ledger,
		items:  items,
		claims: claims,
	}
}

// Claim validates eligibility in order (available, expiry, role, stock,
// balance) and then atomically consumes stock and debits points. The claim
// id is generated up front so the debit entry can reference it inside the
// same transaction. Returned claims are pending; fulfillment happens
// downstream.
func (s *ClaimService) Claim(userID uint, userRole string, rewardItemID uint, userNotes string) (*models.RewardClaim, error) {
	item, err := s.items.GetByID(rewardItemID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !item.Available {
		return nil, errors.New(errors.ErrCodeItemUnavailable, "reward item is not available")
	}
	if item.Expired(now) {
		return nil, errors.New(errors.ErrCodeExpired, "reward item has expired")
	}
	if !item.EligibleForRole(userRole) {
		return nil, errors.New(errors.ErrCodeRoleIneligible, "reward item is not available for role "+userRole)
	}
	if !item.InStock() {
		return nil, errors.New(errors.ErrCodeOutOfStock, "reward item is out of stock")
	}

	balance, err := s.ledger.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	if balance < item.Cost {
		return nil, errors.New(errors.ErrCodeInsufficientPoints,
			fmt.Sprintf("insufficient points: have %d, need %d", balance, item.Cost))
	}

	claim := &models.RewardClaim{
		ID:             uuid.NewString(),
		UserID:         userID,
		RewardItemID:   item.ID,
		PointsDeducted: item.Cost,
		Status:         models.ClaimStatusPending,
		TrackingCode:   trackingCode(item.Type),
		UserNotes:      security.SanitizeText(userNotes),
		Metadata:       "{}",
	}

	unlock := s.ledger.LockUser(userID)
	defer unlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if item.QuantityRemaining != nil {
			if err := s.items.DecrementStockIn(tx, item.ID); err != nil {
				return err
			}
		}
		if err := s.claims.CreateIn(tx, claim); err != nil {
			return err
		}
		ref := "claim:" + claim.ID
		_, err := s.ledger.DebitIn(tx, userID, item.Cost, models.ReasonCatalogClaim, &ref,
			fmt.Sprintf("Claimed reward '%s' - %d points", item.Title, item.Cost))
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("reward claimed", "user_id", userID, "item_id", item.ID,
		"claim_id", claim.ID, "points", item.Cost)
	return claim, nil
}

// ListCatalog returns catalog items claimable by the given role.
func (s *ClaimService) ListCatalog(role string, filter repositories.CatalogFilter) ([]models.RewardItem, error) {
	return s.items.ListAvailable(role, filter, time.Now())
}

// ListUserClaims returns a user's claims, optionally filtered by status.
func (s *ClaimService) ListUserClaims(userID uint, status string, limit int) ([]models.RewardClaim, error) {
	return s.claims.ListByUser(userID, status, limit)
}

// Fulfill marks a pending claim fulfilled.
func (s *ClaimService) Fulfill(claimID, adminNotes string) (*models.RewardClaim, error) {
	claim, err := s.claims.Transition(claimID, models.ClaimStatusFulfilled, security.SanitizeText(adminNotes))
	if err != nil {
		return nil, err
	}
	logger.Info("claim fulfilled", "claim_id", claimID)
	return claim, nil
}

// Reject marks a pending claim rejected and refunds its points with an
// offsetting entry; the original debit is never edited. The transition and
// the refund share one transaction: a claim can never end up terminally
// rejected with the refund lost.
func (s *ClaimService) Reject(claimID, reason string) (*models.RewardClaim, error) {
	existing, err := s.claims.GetByID(claimID)
	if err != nil {
		return nil, err
	}

	unlock := s.ledger.LockUser(existing.UserID)
	defer unlock()

	var claim *models.RewardClaim
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		claim, txErr = s.claims.TransitionIn(tx, claimID, models.ClaimStatusRejected, security.SanitizeText(reason))
		if txErr != nil {
			return txErr
		}

		ref := "claim:" + claim.ID + ":refund"
		_, txErr = s.ledger.CreditIn(tx, claim.UserID, claim.PointsDeducted, models.ReasonManual, &ref,
			fmt.Sprintf("Refund for rejected claim %s", claim.TrackingCode))
		if txErr != nil && !errors.HasCode(txErr, errors.ErrCodeAlreadyAwarded) {
			return txErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("claim rejected", "claim_id", claimID, "refunded", claim.PointsDeducted)
	return claim, nil
}

func trackingCode(itemType string) string {
	prefix := strings.ToUpper(itemType)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return prefix + "-" + utils.GenerateTrackingCode(6)
}
