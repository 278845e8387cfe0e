// loyaltyctl is the operations entry point for the loyalty ledger: it runs
// migrations, seeds defaults and exposes the engine operations for admin and
// support use. The customer-facing API layer consumes the same services
// facade from its own process.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/toothpick/loyalty/internal/config"
	"github.com/toothpick/loyalty/internal/database"
	"github.com/toothpick/loyalty/internal/notifications"
	"github.com/toothpick/loyalty/internal/repositories"
	"github.com/toothpick/loyalty/internal/security"
	"github.com/toothpick/loyalty/internal/services"
	"github.com/toothpick/loyalty/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logger.Init()
	defer logger.Sync()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
	}

	// mint-token needs no database
	if command == "mint-token" {
		mintToken(cfg, args)
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	var notifier services.Notifier
	if cfg.NotificationsEnabled && cfg.TelegramBotToken != "" {
		tn, err := notifications.NewTelegramNotifier(cfg.TelegramBotToken, notifications.NewChatResolver(db))
		if err != nil {
			logger.Warn("Notifications disabled", "error", err)
		} else {
			notifier = tn
		}
	}

	loyalty := services.NewLoyalty(db, cfg.Policy(), cfg.AdminTokenSecret, notifier)

	switch command {
	case "migrate":
		if err := database.AutoMigrate(db); err != nil {
			logger.Fatal("Migration failed", err)
		}
		if err := database.SeedRewards(db); err != nil {
			logger.Warn("Failed to seed reward catalog", "error", err)
		}
		if err := database.SeedTriggers(db); err != nil {
			logger.Warn("Failed to seed loyalty triggers", "error", err)
		}
		fmt.Println("migrations complete")

	case "balance":
		fs := flag.NewFlagSet("balance", flag.ExitOnError)
		userID := fs.Uint("user", 0, "user id")
		fs.Parse(args)
		summary, err := loyalty.GetBalanceAndTier(uint(*userID))
		if err != nil {
			logger.Fatal("Failed to get balance", err)
		}
		fmt.Printf("user %d: balance=%d lifetime=%d tier=%s next_tier_at=%d\n",
			*userID, summary.Balance, summary.LifetimeEarned, summary.Tier, summary.NextThreshold)

	case "history":
		fs := flag.NewFlagSet("history", flag.ExitOnError)
		userID := fs.Uint("user", 0, "user id")
		limit := fs.Int("limit", 20, "entries per page")
		cursor := fs.Uint("cursor", 0, "pagination cursor from previous page")
		reason := fs.String("reason", "", "filter by reason")
		fs.Parse(args)
		entries, next, err := loyalty.GetHistory(uint(*userID), *limit, uint(*cursor), repositories.HistoryFilter{Reason: *reason})
		if err != nil {
			logger.Fatal("Failed to get history", err)
		}
		for _, e := range entries {
			fmt.Printf("%6d  %-14s %+6d  %s  %s\n", e.ID, e.Reason, e.Points,
				e.CreatedAt.Format(time.RFC3339), e.Description)
		}
		if next > 0 {
			fmt.Printf("next cursor: %d\n", next)
		}

	case "grant":
		fs := flag.NewFlagSet("grant", flag.ExitOnError)
		userID := fs.Uint("user", 0, "user id")
		points := fs.Int64("points", 0, "points delta, may be negative")
		desc := fs.String("desc", "", "grant description")
		token := fs.String("token", "", "admin token (see mint-token)")
		fs.Parse(args)
		entry, err := loyalty.GrantManualWithToken(*token, uint(*userID), *points, *desc)
		if err != nil {
			logger.Fatal("Manual grant failed", err)
		}
		fmt.Printf("granted %+d points to user %d (entry %d)\n", entry.Points, *userID, entry.ID)

	case "fulfill-claim":
		fs := flag.NewFlagSet("fulfill-claim", flag.ExitOnError)
		claimID := fs.String("claim", "", "claim id")
		notes := fs.String("notes", "", "fulfillment notes")
		fs.Parse(args)
		claim, err := loyalty.Claims.Fulfill(*claimID, *notes)
		if err != nil {
			logger.Fatal("Failed to fulfill claim", err)
		}
		fmt.Printf("claim %s fulfilled (%s)\n", claim.ID, claim.TrackingCode)

	case "link-chat":
		fs := flag.NewFlagSet("link-chat", flag.ExitOnError)
		userID := fs.Uint("user", 0, "user id")
		chatID := fs.Int64("chat", 0, "telegram chat id")
		fs.Parse(args)
		if err := notifications.LinkChat(db, uint(*userID), *chatID); err != nil {
			logger.Fatal("Failed to link chat", err)
		}
		fmt.Printf("user %d linked to chat %d\n", *userID, *chatID)

	case "reject-claim":
		fs := flag.NewFlagSet("reject-claim", flag.ExitOnError)
		claimID := fs.String("claim", "", "claim id")
		reason := fs.String("reason", "", "rejection reason")
		fs.Parse(args)
		claim, err := loyalty.Claims.Reject(*claimID, *reason)
		if err != nil {
			logger.Fatal("Failed to reject claim", err)
		}
		fmt.Printf("claim %s rejected, %d points refunded\n", claim.ID, claim.PointsDeducted)

	default:
		usage()
		os.Exit(2)
	}
}

func mintToken(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("mint-token", flag.ExitOnError)
	adminID := fs.Uint("admin", 0, "admin id the token identifies")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	fs.Parse(args)
	if *adminID == 0 {
		logger.Fatal("mint-token requires -admin", fmt.Errorf("admin id is zero"))
	}
	token, err := security.GenerateAdminToken(uint(*adminID), cfg.AdminTokenSecret, *ttl)
	if err != nil {
		logger.Fatal("Failed to mint token", err)
	}
	fmt.Println(token)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: loyaltyctl <command> [flags]

commands:
  migrate         run migrations and seed default catalog/triggers
  balance         -user N
  history         -user N [-limit N] [-cursor N] [-reason R]
  grant           -user N -points P -desc TEXT -token TOKEN
  fulfill-claim   -claim ID [-notes TEXT]
  reject-claim    -claim ID -reason TEXT
  link-chat       -user N -chat CHATID
  mint-token      -admin N [-ttl DUR]`)
}
