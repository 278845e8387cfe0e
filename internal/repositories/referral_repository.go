package repositories

import (
	stderrors "errors"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/pkg/errors"
	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Create inserts a pending referral. The unique (referrer, referred) index
// turns a replay into DUPLICATE_REFERRAL.
func (r *ReferralRepository) Create(referral *models.Referral) error {
	if err := r.db.Create(referral).Error; err != nil {
		if isDuplicate(err) {
			return errors.Wrap(err, errors.ErrCodeDuplicateReferral, "user was already referred by this referrer")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create referral")
	}
	return nil
}

// CompleteFirstOrder transitions the unique pending referral for the
// referred user to completed and marks rewards claimed, under the user's
// in-process lock plus a row lock where the dialect supports one.
// Returns (nil, nil) when no pending referral exists; most orders are
// not first orders of a referred user. A concurrent duplicate call observes
// no pending row and also returns nil.
func (r *ReferralRepository) CompleteFirstOrder(referredUserID uint, orderID string) (*models.Referral, error) {
	unlock := accountLocks.lock(referredUserID)
	defer unlock()

	var completed *models.Referral
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var referral models.Referral
		err := forUpdate(tx).
			Where("referred_user_id = ? AND status = ?", referredUserID, models.ReferralStatusPending).
			First(&referral).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to look up pending referral")
		}

		now := tx.NowFunc()
		referral.Status = models.ReferralStatusCompleted
		referral.FirstOrderID = &orderID
		referral.RewardsClaimed = true
		referral.RewardsClaimedAt = &now

		// Guarded update: only one concurrent completion can flip the row.
		result := tx.Model(&models.Referral{}).
			Where("id = ? AND status = ?", referral.ID, models.ReferralStatusPending).
			Updates(map[string]interface{}{
				"status":             referral.Status,
				"first_order_id":     referral.FirstOrderID,
				"rewards_claimed":    true,
				"rewards_claimed_at": referral.RewardsClaimedAt,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to complete referral")
		}
		if result.RowsAffected == 0 {
			return nil
		}
		completed = &referral
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// GetByReferred returns the referral record where the user is the referred
// side, if any.
func (r *ReferralRepository) GetByReferred(referredUserID uint) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.Where("referred_user_id = ?", referredUserID).First(&referral).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get referral")
	}
	return &referral, nil
}

// ListByReferrer returns a referrer's relationships, newest first.
func (r *ReferralRepository) ListByReferrer(referrerID uint, limit int) ([]models.Referral, error) {
	if limit <= 0 {
		limit = 50
	}
	var referrals []models.Referral
	err := r.db.Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&referrals).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list referrals")
	}
	return referrals, nil
}

// ReferralStats summarizes a referrer's funnel.
type ReferralStats struct {
	Total     int64
	Completed int64
	Pending   int64
}

func (r *ReferralRepository) Stats(referrerID uint) (*ReferralStats, error) {
	stats := &ReferralStats{}

	base := func() *gorm.DB {
		return r.db.Model(&models.Referral{}).Where("referrer_id = ?", referrerID)
	}
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count referrals")
	}
	if err := base().Where("status = ?", models.ReferralStatusCompleted).Count(&stats.Completed).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count completed referrals")
	}
	if err := base().Where("status = ?", models.ReferralStatusPending).Count(&stats.Pending).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count pending referrals")
	}
	return stats, nil
}
