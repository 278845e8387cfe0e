package repositories

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository is the append-only store of signed point entries and the
// source of truth for balances. Every mutation locks the user's account row,
// appends exactly one entry and updates the materialized balance in the same
// transaction, so the balance can never diverge from the entry sum.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// HistoryFilter narrows GetHistory results.
type HistoryFilter struct {
	Reason string
	Since  time.Time
}

// Credit appends a positive entry. A duplicate (reason, sourceRef) pair
// fails with ALREADY_AWARDED and leaves the balance untouched.
func (r *LedgerRepository) Credit(userID uint, points int64, reason string, sourceRef *string, description string) (*models.LedgerEntry, error) {
	if points <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidAmount, fmt.Sprintf("credit must be positive, got %d", points))
	}
	return r.mutate(userID, points, reason, sourceRef, description, true)
}

// Debit appends a negative entry after verifying the balance covers it.
func (r *LedgerRepository) Debit(userID uint, points int64, reason string, sourceRef *string, description string) (*models.LedgerEntry, error) {
	if points <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidAmount, fmt.Sprintf("debit must be positive, got %d", points))
	}
	return r.mutate(userID, -points, reason, sourceRef, description, true)
}

// Adjust appends a signed entry without the insufficient-balance check.
// Used for manual admin corrections, which may push a balance negative.
func (r *LedgerRepository) Adjust(userID uint, delta int64, reason string, sourceRef *string, description string) (*models.LedgerEntry, error) {
	if delta == 0 {
		return nil, errors.New(errors.ErrCodeInvalidAmount, "adjustment delta must be non-zero")
	}
	return r.mutate(userID, delta, reason, sourceRef, description, false)
}

func (r *LedgerRepository) mutate(userID uint, delta int64, reason string, sourceRef *string, description string, enforceBalance bool) (*models.LedgerEntry, error) {
	unlock := accountLocks.lock(userID)
	defer unlock()

	var entry *models.LedgerEntry
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = r.apply(tx, userID, delta, reason, sourceRef, description, enforceBalance)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// LockUser takes the in-process lock for a user. Callers composing their own
// transaction (the claim flow) hold it across the whole validate-then-write
// sequence.
func (r *LedgerRepository) LockUser(userID uint) func() {
	return accountLocks.lock(userID)
}

// DebitIn appends a negative entry inside a caller-managed transaction. The
// caller must hold the user lock via LockUser.
func (r *LedgerRepository) DebitIn(tx *gorm.DB, userID uint, points int64, reason string, sourceRef *string, description string) (*models.LedgerEntry, error) {
	if points <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidAmount, fmt.Sprintf("debit must be positive, got %d", points))
	}
	return r.apply(tx, userID, -points, reason, sourceRef, description, true)
}

// CreditIn appends a positive entry inside a caller-managed transaction. The
// caller must hold the user lock via LockUser.
func (r *LedgerRepository) CreditIn(tx *gorm.DB, userID uint, points int64, reason string, sourceRef *string, description string) (*models.LedgerEntry, error) {
	if points <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidAmount, fmt.Sprintf("credit must be positive, got %d", points))
	}
	return r.apply(tx, userID, points, reason, sourceRef, description, true)
}

// apply is the single mutation path: ensure the account row exists, lock it,
// check funds, append the entry, update the materialized balance.
func (r *LedgerRepository) apply(tx *gorm.DB, userID uint, delta int64, reason string, sourceRef *string, description string, enforceBalance bool) (*models.LedgerEntry, error) {
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.Account{UserID: userID}).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to ensure loyalty account")
	}

	var account models.Account
	if err := forUpdate(tx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock loyalty account")
	}

	if enforceBalance && delta < 0 && account.Balance+delta < 0 {
		return nil, errors.New(errors.ErrCodeInsufficientPoints,
			fmt.Sprintf("insufficient points: have %d, need %d", account.Balance, -delta))
	}

	entry := &models.LedgerEntry{
		UserID:      userID,
		Points:      delta,
		Reason:      reason,
		SourceRef:   sourceRef,
		Description: description,
	}
	if err := tx.Create(entry).Error; err != nil {
		if isDuplicate(err) {
			return nil, errors.Wrap(err, errors.ErrCodeAlreadyAwarded,
				fmt.Sprintf("points already recorded for %s %s", reason, derefRef(sourceRef)))
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to append ledger entry")
	}

	updates := map[string]interface{}{"balance": account.Balance + delta}
	if delta > 0 {
		updates["lifetime_earned"] = account.LifetimeEarned + delta
	}
	if err := tx.Model(&models.Account{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to update balance")
	}

	return entry, nil
}

// GetBalance returns the user's spendable balance. Unknown users have a zero
// balance, not an error.
func (r *LedgerRepository) GetBalance(userID uint) (int64, error) {
	var account models.Account
	err := r.db.Where("user_id = ?", userID).First(&account).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get balance")
	}
	return account.Balance, nil
}

// GetLifetimeEarned returns the sum of all positive entries for the user.
func (r *LedgerRepository) GetLifetimeEarned(userID uint) (int64, error) {
	var account models.Account
	err := r.db.Where("user_id = ?", userID).First(&account).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get lifetime earned")
	}
	return account.LifetimeEarned, nil
}

// SumEntries recomputes the balance from the entries themselves. Used by
// reconciliation and tests to verify the materialized balance.
func (r *LedgerRepository) SumEntries(userID uint) (int64, error) {
	var sum int64
	err := r.db.Model(&models.LedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to sum ledger entries")
	}
	return sum, nil
}

// GetHistory returns up to limit entries newest first. A zero cursor starts
// from the top; the returned cursor restarts the scan after the last entry,
// or is zero when the history is exhausted.
func (r *LedgerRepository) GetHistory(userID uint, limit int, cursor uint, filter HistoryFilter) ([]models.LedgerEntry, uint, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.db.Where("user_id = ?", userID)
	if cursor > 0 {
		query = query.Where("id < ?", cursor)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}

	var entries []models.LedgerEntry
	if err := query.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get ledger history")
	}

	var next uint
	if len(entries) == limit {
		next = entries[len(entries)-1].ID
	}
	return entries, next, nil
}

// CountBySourcePrefix counts a user's entries whose source ref starts with
// the given prefix. Trigger frequency caps are derived from this instead of
// a separate counter table.
func (r *LedgerRepository) CountBySourcePrefix(userID uint, reason, prefix string) (int64, error) {
	var count int64
	err := r.db.Model(&models.LedgerEntry{}).
		Where("user_id = ? AND reason = ? AND source_ref LIKE ?", userID, reason, prefix+"%").
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count trigger activations")
	}
	return count, nil
}

// HasEntry reports whether an entry with the given idempotency key exists.
func (r *LedgerRepository) HasEntry(reason, sourceRef string) (bool, error) {
	var count int64
	err := r.db.Model(&models.LedgerEntry{}).
		Where("reason = ? AND source_ref = ?", reason, sourceRef).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check ledger entry")
	}
	return count > 0, nil
}

// isDuplicate recognizes unique-constraint violations across the postgres
// and sqlite dialects.
func isDuplicate(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

func derefRef(ref *string) string {
	if ref == nil {
		return "<none>"
	}
	return *ref
}
