package models

import (
	"time"
)

// LedgerEntry is one immutable signed-point record attributable to exactly
// one triggering event. A user's balance is the sum of their entries;
// corrections are new offsetting entries, never edits.
type LedgerEntry struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"not null;index:idx_ledger_user_created"`
	Points      int64     `gorm:"not null"`
	Reason      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_ledger_reason_source"`
	SourceRef   *string   `gorm:"type:varchar(255);uniqueIndex:idx_ledger_reason_source"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_ledger_user_created"`
}

// Entry reasons. Positive points for the earning reasons, negative for
// redemption and catalog_claim. Manual can go either way.
const (
	ReasonPurchase     = "purchase"
	ReasonReview       = "review"
	ReasonReferral     = "referral"
	ReasonRedemption   = "redemption"
	ReasonManual       = "manual"
	ReasonCatalogClaim = "catalog_claim"
	ReasonWelcome      = "welcome"
	ReasonTrigger      = "trigger"
)

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Account is the materialized per-user balance. It is only ever written in
// the same transaction that appends a ledger entry, under a row lock, so it
// cannot diverge from the entry sum. LifetimeEarned accumulates positive
// entries only and drives tier calculation.
type Account struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         uint      `gorm:"uniqueIndex;not null"`
	Balance        int64     `gorm:"not null;default:0"`
	LifetimeEarned int64     `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Account) TableName() string {
	return "loyalty_accounts"
}
