package models

import (
	"time"

	"gorm.io/gorm"
)

// Referral records a referrer/referred relationship created at registration
// time. Status only moves pending -> completed; rewards are granted at most
// once per relationship.
type Referral struct {
	ID               uint       `gorm:"primaryKey"`
	ReferrerID       uint       `gorm:"not null;index:idx_referral_pair,unique;index"`
	ReferredUserID   uint       `gorm:"not null;index:idx_referral_pair,unique;index"`
	ReferralCode     string     `gorm:"type:varchar(16);not null;index"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	RewardsClaimed   bool       `gorm:"not null;default:false"`
	FirstOrderID     *string    `gorm:"type:varchar(255)"`
	RewardsClaimedAt *time.Time `gorm:"default:NULL"`
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
}

const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
	ReferralStatusExpired   = "expired"
)

// BeforeSave rejects self-referrals and unknown statuses at the model layer.
func (r *Referral) BeforeSave(tx *gorm.DB) error {
	if r.ReferrerID == r.ReferredUserID {
		return gorm.ErrInvalidData
	}

	validStatuses := map[string]bool{
		ReferralStatusPending:   true,
		ReferralStatusCompleted: true,
		ReferralStatusExpired:   true,
	}
	if !validStatuses[r.Status] {
		return gorm.ErrInvalidData
	}

	// rewardsClaimed only after completion
	if r.RewardsClaimed && r.Status != ReferralStatusCompleted {
		return gorm.ErrInvalidData
	}

	return nil
}

func (Referral) TableName() string {
	return "referrals"
}
