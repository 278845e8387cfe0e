package models

import (
	"encoding/json"
	"time"
)

// RewardItem is a catalog entry purchasable with points. Stock
// (QuantityRemaining) is nil for untracked items and never goes negative;
// the claim path decrements it with a guarded update.
type RewardItem struct {
	ID                uint       `gorm:"primaryKey"`
	Title             string     `gorm:"type:varchar(255);not null"`
	Description       string     `gorm:"type:text"`
	Cost              int64      `gorm:"not null"`
	Type              string     `gorm:"type:varchar(20);not null;index"`
	Category          string     `gorm:"type:varchar(100);default:'general'"`
	RolesEligible     string     `gorm:"type:text;default:'[\"all\"]'"` // JSON array of role names
	Available         bool       `gorm:"not null;default:true;index"`
	QuantityRemaining *int64     `gorm:"default:NULL"`
	Featured          bool       `gorm:"not null;default:false"`
	ExpiresAt         *time.Time `gorm:"default:NULL"`
	CreatedAt         time.Time  `gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime"`
}

const (
	RewardTypeUpgrade  = "upgrade"
	RewardTypeDiscount = "discount"
	RewardTypeProduct  = "product"
	RewardTypeService  = "service"
)

// RoleAll marks an item claimable by any role.
const RoleAll = "all"

func (RewardItem) TableName() string {
	return "reward_items"
}

// Roles parses the RolesEligible JSON column. A malformed column is treated
// as universally eligible rather than blocking claims.
func (i *RewardItem) Roles() []string {
	var roles []string
	if err := json.Unmarshal([]byte(i.RolesEligible), &roles); err != nil || len(roles) == 0 {
		return []string{RoleAll}
	}
	return roles
}

// SetRoles stores the eligible role set as JSON.
func (i *RewardItem) SetRoles(roles []string) {
	if len(roles) == 0 {
		roles = []string{RoleAll}
	}
	data, err := json.Marshal(roles)
	if err != nil {
		data = []byte(`["all"]`)
	}
	i.RolesEligible = string(data)
}

// EligibleForRole reports whether the given role may claim this item.
func (i *RewardItem) EligibleForRole(role string) bool {
	for _, r := range i.Roles() {
		if r == RoleAll || r == role {
			return true
		}
	}
	return false
}

// Expired reports whether the item's claim window has closed.
func (i *RewardItem) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !i.ExpiresAt.After(now)
}

// InStock reports whether stock allows one more claim. Untracked stock is
// always in stock.
func (i *RewardItem) InStock() bool {
	return i.QuantityRemaining == nil || *i.QuantityRemaining > 0
}
