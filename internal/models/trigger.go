package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// LoyaltyTrigger is a configurable, rate-limited earning rule evaluated
// against named user actions. Frequency state is derived from existing
// ledger entries via the source-ref composite, not a separate counter table.
type LoyaltyTrigger struct {
	ID            uint       `gorm:"primaryKey"`
	Name          string     `gorm:"type:varchar(100);not null"`
	Description   string     `gorm:"type:text"`
	ActionType    string     `gorm:"type:varchar(100);not null;index"`
	BasePoints    int64      `gorm:"not null"`
	BonusBronze   int64      `gorm:"not null;default:0"`
	BonusSilver   int64      `gorm:"not null;default:0"`
	BonusGold     int64      `gorm:"not null;default:0"`
	BonusPlatinum int64      `gorm:"not null;default:0"`
	Frequency     string     `gorm:"type:varchar(20);not null;default:'unlimited'"`
	MaxPerPeriod  int        `gorm:"not null;default:1"`
	Active        bool       `gorm:"not null;default:true;index"`
	StartsAt      *time.Time `gorm:"default:NULL"`
	EndsAt        *time.Time `gorm:"default:NULL"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime"`
}

const (
	FrequencyOnce      = "once"
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyUnlimited = "unlimited"
)

func (LoyaltyTrigger) TableName() string {
	return "loyalty_triggers"
}

// BeforeSave validates the frequency domain and reward amounts.
func (t *LoyaltyTrigger) BeforeSave(tx *gorm.DB) error {
	validFrequencies := map[string]bool{
		FrequencyOnce:      true,
		FrequencyDaily:     true,
		FrequencyWeekly:    true,
		FrequencyMonthly:   true,
		FrequencyUnlimited: true,
	}
	if !validFrequencies[t.Frequency] {
		return gorm.ErrInvalidData
	}
	if t.BasePoints < 0 || t.MaxPerPeriod < 1 {
		return gorm.ErrInvalidData
	}
	return nil
}

// ValidAt reports whether the trigger may fire at the given time.
func (t *LoyaltyTrigger) ValidAt(now time.Time) bool {
	if !t.Active {
		return false
	}
	if t.StartsAt != nil && now.Before(*t.StartsAt) {
		return false
	}
	if t.EndsAt != nil && now.After(*t.EndsAt) {
		return false
	}
	return true
}

// PeriodBucket returns the deterministic period component of the trigger's
// idempotency source ref: the same user action re-evaluated within one
// period produces the same bucket. Unlimited triggers have no bucket; their
// dedup relies on a caller-supplied event ref.
func (t *LoyaltyTrigger) PeriodBucket(now time.Time) string {
	now = now.UTC()
	switch t.Frequency {
	case FrequencyOnce:
		return "once"
	case FrequencyDaily:
		return now.Format("2006-01-02")
	case FrequencyWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case FrequencyMonthly:
		return now.Format("2006-01")
	default:
		return ""
	}
}
