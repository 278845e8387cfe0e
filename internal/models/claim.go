package models

import (
	"time"
)

// RewardClaim is the result of redeeming a catalog item. The ID is a uuid
// generated before insert so the debiting ledger entry can reference it in
// the same transaction. Fulfillment of physical/service rewards happens
// downstream.
type RewardClaim struct {
	ID             string     `gorm:"type:varchar(36);primaryKey"`
	UserID         uint       `gorm:"not null;index:idx_claim_user_status"`
	RewardItemID   uint       `gorm:"not null;index"`
	RewardItem     RewardItem `gorm:"foreignKey:RewardItemID"`
	PointsDeducted int64      `gorm:"not null"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_claim_user_status"`
	TrackingCode   string     `gorm:"type:varchar(32);index"`
	UserNotes      string     `gorm:"type:text"`
	AdminNotes     string     `gorm:"type:text"`
	Metadata       string     `gorm:"type:text;default:'{}'"`
	ProcessedAt    *time.Time `gorm:"default:NULL"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index"`
}

const (
	ClaimStatusPending   = "pending"
	ClaimStatusFulfilled = "fulfilled"
	ClaimStatusRejected  = "rejected"
)

func (RewardClaim) TableName() string {
	return "reward_claims"
}
