package repositories

import (
	stderrors "errors"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/pkg/errors"
	"gorm.io/gorm"
)

type ClaimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// CreateIn inserts a claim inside a caller-managed transaction, alongside
// the stock decrement and ledger debit.
func (r *ClaimRepository) CreateIn(tx *gorm.DB, claim *models.RewardClaim) error {
	if err := tx.Create(claim).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create claim")
	}
	return nil
}

func (r *ClaimRepository) GetByID(id string) (*models.RewardClaim, error) {
	var claim models.RewardClaim
	err := r.db.Where("id = ?", id).First(&claim).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "claim not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get claim")
	}
	return &claim, nil
}

// ListByUser returns a user's claims, newest first.
func (r *ClaimRepository) ListByUser(userID uint, status string, limit int) ([]models.RewardClaim, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var claims []models.RewardClaim
	if err := query.Order("created_at DESC").Limit(limit).Find(&claims).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list claims")
	}
	return claims, nil
}

// Transition moves a pending claim to a terminal status. The guarded update
// makes double-processing a no-op signalled as INVALID_CLAIM_STATE.
func (r *ClaimRepository) Transition(id, toStatus, adminNotes string) (*models.RewardClaim, error) {
	return r.TransitionIn(r.db, id, toStatus, adminNotes)
}

// TransitionIn is Transition inside a caller-managed transaction, so the
// status flip can share a commit with its side effects (the reject refund).
func (r *ClaimRepository) TransitionIn(tx *gorm.DB, id, toStatus, adminNotes string) (*models.RewardClaim, error) {
	var claim models.RewardClaim
	err := tx.Where("id = ?", id).First(&claim).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "claim not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get claim")
	}

	now := tx.NowFunc()
	result := tx.Model(&models.RewardClaim{}).
		Where("id = ? AND status = ?", id, models.ClaimStatusPending).
		Updates(map[string]interface{}{
			"status":       toStatus,
			"admin_notes":  adminNotes,
			"processed_at": &now,
		})
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to transition claim")
	}
	if result.RowsAffected == 0 {
		return nil, errors.New(errors.ErrCodeInvalidClaimState,
			"claim is not pending; it was already "+claim.Status)
	}

	claim.Status = toStatus
	claim.AdminNotes = adminNotes
	claim.ProcessedAt = &now
	return &claim, nil
}
