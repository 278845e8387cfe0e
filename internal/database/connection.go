package database

import (
	"fmt"
	"time"

	"github.com/toothpick/loyalty/internal/config"
	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// Unique-violation detection in the ledger relies on translated errors
		TranslateError:         true,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Pool sized for a request/worker-pool deployment: per-user row locks
	// are held only for the duration of a validate-then-write transaction,
	// so connections turn over quickly.
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetMaxOpenConns(200)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected successfully")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.Account{},
		&models.LedgerEntry{},
		&models.Referral{},
		&models.RewardItem{},
		&models.RewardClaim{},
		&models.LoyaltyTrigger{},
		&models.NotificationChannel{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// SeedRewards installs a starter catalog when the table is empty.
func SeedRewards(db *gorm.DB) error {
	var count int64
	db.Model(&models.RewardItem{}).Count(&count)
	if count > 0 {
		return nil
	}

	logger.Info("Seeding default reward catalog...")

	limited := int64(25)
	items := []models.RewardItem{
		{Title: "10% discount voucher", Description: "One-time 10% discount on your next order", Cost: 100, Type: models.RewardTypeDiscount, Category: "discounts", Available: true, Featured: true},
		{Title: "Free shipping upgrade", Description: "Free express shipping on one order", Cost: 150, Type: models.RewardTypeUpgrade, Category: "shipping", Available: true},
		{Title: "Premium toothbrush kit", Description: "Limited-stock product reward", Cost: 500, Type: models.RewardTypeProduct, Category: "products", Available: true, QuantityRemaining: &limited},
		{Title: "Priority support month", Description: "30 days of priority support", Cost: 300, Type: models.RewardTypeService, Category: "services", Available: true},
	}
	for i := range items {
		items[i].SetRoles([]string{models.RoleAll})
	}

	return db.Create(&items).Error
}

// SeedTriggers installs the default earning rules when none exist.
func SeedTriggers(db *gorm.DB) error {
	var count int64
	db.Model(&models.LoyaltyTrigger{}).Count(&count)
	if count > 0 {
		return nil
	}

	logger.Info("Seeding default loyalty triggers...")

	triggers := []models.LoyaltyTrigger{
		{Name: "Daily engagement", Description: "Open the app once a day", ActionType: "DAILY_LOGIN", BasePoints: 2, BonusGold: 1, BonusPlatinum: 2, Frequency: models.FrequencyDaily, MaxPerPeriod: 1, Active: true},
		{Name: "Profile completed", Description: "One-time bonus for completing the profile", ActionType: "PROFILE_COMPLETED", BasePoints: 15, Frequency: models.FrequencyOnce, MaxPerPeriod: 1, Active: true},
		{Name: "Monthly newsletter", Description: "Engage with the monthly newsletter", ActionType: "NEWSLETTER_CLICK", BasePoints: 5, BonusSilver: 2, BonusGold: 5, BonusPlatinum: 10, Frequency: models.FrequencyMonthly, MaxPerPeriod: 1, Active: true},
	}

	return db.Create(&triggers).Error
}
