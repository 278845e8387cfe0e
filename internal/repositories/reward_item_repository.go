package repositories

import (
	stderrors "errors"
	"time"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/pkg/errors"
	"gorm.io/gorm"
)

type RewardItemRepository struct {
	db *gorm.DB
}

func NewRewardItemRepository(db *gorm.DB) *RewardItemRepository {
	return &RewardItemRepository{db: db}
}

// CatalogFilter narrows ListAvailable results.
type CatalogFilter struct {
	Type     string
	MaxCost  int64
	Featured bool
}

func (r *RewardItemRepository) GetByID(id uint) (*models.RewardItem, error) {
	var item models.RewardItem
	err := r.db.First(&item, id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "reward item not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get reward item")
	}
	return &item, nil
}

// ListAvailable returns claimable catalog items, featured first then
// cheapest first. Role filtering happens in memory; the role set is a JSON
// column and catalogs are small.
func (r *RewardItemRepository) ListAvailable(role string, filter CatalogFilter, now time.Time) ([]models.RewardItem, error) {
	query := r.db.Where("available = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Where("quantity_remaining IS NULL OR quantity_remaining > 0")

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.MaxCost > 0 {
		query = query.Where("cost <= ?", filter.MaxCost)
	}
	if filter.Featured {
		query = query.Where("featured = ?", true)
	}

	var items []models.RewardItem
	if err := query.Order("featured DESC, cost ASC, title ASC").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list reward items")
	}

	if role == "" {
		return items, nil
	}
	eligible := items[:0]
	for _, item := range items {
		if item.EligibleForRole(role) {
			eligible = append(eligible, item)
		}
	}
	return eligible, nil
}

// DecrementStockIn consumes one unit of tracked stock inside a
// caller-managed transaction. The guarded update is what keeps stock from
// going negative under contention: of N racing claims against one unit,
// exactly one update matches.
func (r *RewardItemRepository) DecrementStockIn(tx *gorm.DB, itemID uint) error {
	result := tx.Model(&models.RewardItem{}).
		Where("id = ? AND quantity_remaining > 0", itemID).
		UpdateColumn("quantity_remaining", gorm.Expr("quantity_remaining - 1"))
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to decrement stock")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeOutOfStock, "reward item is out of stock")
	}
	return nil
}

// Create and Update back the admin import tooling.
func (r *RewardItemRepository) Create(item *models.RewardItem) error {
	if err := r.db.Create(item).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create reward item")
	}
	return nil
}

func (r *RewardItemRepository) Update(item *models.RewardItem) error {
	if err := r.db.Save(item).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update reward item")
	}
	return nil
}
