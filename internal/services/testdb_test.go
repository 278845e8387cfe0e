package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/toothpick/loyalty/internal/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupDB opens a per-test in-memory database with the production schema.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	// One connection: concurrent test goroutines exercise the application
	// locks and guards, not sqlite's writer contention.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = db.AutoMigrate(
		&models.Account{},
		&models.LedgerEntry{},
		&models.Referral{},
		&models.RewardItem{},
		&models.RewardClaim{},
		&models.LoyaltyTrigger{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// recordingNotifier captures loyalty events for assertions.
type recordingNotifier struct {
	promotions []string
	referrals  []uint
}

func (n *recordingNotifier) TierPromoted(userID uint, tier string) {
	n.promotions = append(n.promotions, fmt.Sprintf("u%d:%s", userID, tier))
}

func (n *recordingNotifier) ReferralCompleted(referrerID, referredUserID uint, points int64) {
	n.referrals = append(n.referrals, referrerID, referredUserID)
}

// newLoyalty wires a full engine stack against a fresh test database.
func newLoyalty(t *testing.T, policy Policy) (*Loyalty, *gorm.DB, *recordingNotifier) {
	t.Helper()
	db := setupDB(t)
	notifier := &recordingNotifier{}
	return NewLoyalty(db, policy, "test-secret-at-least-32-characters!!", notifier), db, notifier
}

func entryCount(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.LedgerEntry{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	return count
}
