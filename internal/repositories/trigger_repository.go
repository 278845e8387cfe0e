package repositories

import (
	stderrors "errors"
	"time"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/pkg/errors"
	"gorm.io/gorm"
)

type TriggerRepository struct {
	db *gorm.DB
}

func NewTriggerRepository(db *gorm.DB) *TriggerRepository {
	return &TriggerRepository{db: db}
}

// ListActiveByAction returns triggers matching an action type whose validity
// window contains now.
func (r *TriggerRepository) ListActiveByAction(actionType string, now time.Time) ([]models.LoyaltyTrigger, error) {
	var triggers []models.LoyaltyTrigger
	err := r.db.Where("action_type = ? AND active = ?", actionType, true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Order("id ASC").
		Find(&triggers).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list triggers")
	}
	return triggers, nil
}

func (r *TriggerRepository) GetByID(id uint) (*models.LoyaltyTrigger, error) {
	var trigger models.LoyaltyTrigger
	err := r.db.First(&trigger, id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "trigger not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get trigger")
	}
	return &trigger, nil
}

func (r *TriggerRepository) Create(trigger *models.LoyaltyTrigger) error {
	if err := r.db.Create(trigger).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create trigger")
	}
	return nil
}

func (r *TriggerRepository) Update(trigger *models.LoyaltyTrigger) error {
	if err := r.db.Save(trigger).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update trigger")
	}
	return nil
}

// Deactivate turns a trigger off without deleting its history.
func (r *TriggerRepository) Deactivate(id uint) error {
	result := r.db.Model(&models.LoyaltyTrigger{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to deactivate trigger")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "trigger not found")
	}
	return nil
}
