package services

import (
	"testing"
	"time"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/internal/repositories"
	"github.com/toothpick/loyalty/internal/security"
	"github.com/toothpick/loyalty/pkg/errors"
)

func TestLoyalty_GetBalanceAndTier(t *testing.T) {
	loyalty, _, _ := newLoyalty(t, DefaultPolicy())

	summary, err := loyalty.GetBalanceAndTier(1)
	if err != nil {
		t.Fatalf("GetBalanceAndTier() error = %v", err)
	}
	if summary.Balance != 0 || summary.Tier != "bronze" || summary.NextThreshold != 1000 {
		t.Errorf("fresh user summary = %+v", summary)
	}

	if _, err := loyalty.Earning.GrantManual(1, 1200, "test balance", 7); err != nil {
		t.Fatalf("seed balance: %v", err)
	}
	if _, err := loyalty.Redemption.RedeemForDiscount(1, 400, 10000, "order-1"); err != nil {
		t.Fatalf("RedeemForDiscount() error = %v", err)
	}

	summary, err = loyalty.GetBalanceAndTier(1)
	if err != nil {
		t.Fatalf("GetBalanceAndTier() error = %v", err)
	}
	if summary.Balance != 800 {
		t.Errorf("balance = %d, want 800", summary.Balance)
	}
	// Spending never demotes: tier follows lifetime earned
	if summary.LifetimeEarned != 1200 || summary.Tier != "silver" || summary.NextThreshold != 5000 {
		t.Errorf("summary = %+v, want silver at 1200 lifetime", summary)
	}
}

func TestLoyalty_GrantManualWithToken(t *testing.T) {
	const secret = "test-secret-at-least-32-characters!!"
	loyalty, _, _ := newLoyalty(t, DefaultPolicy())

	token, err := security.GenerateAdminToken(42, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAdminToken() error = %v", err)
	}

	entry, err := loyalty.GrantManualWithToken(token, 1, 75, "goodwill credit")
	if err != nil {
		t.Fatalf("GrantManualWithToken() error = %v", err)
	}
	if entry.Description != "[admin 42] goodwill credit" {
		t.Errorf("description = %q, want token admin id in audit prefix", entry.Description)
	}

	// Wrong-secret tokens are rejected before touching the ledger
	forged, err := security.GenerateAdminToken(42, "another-secret-also-32-characters!!!", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAdminToken() error = %v", err)
	}
	if _, err := loyalty.GrantManualWithToken(forged, 1, 75, "forged"); !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Fatalf("forged token error = %v, want UNAUTHORIZED", err)
	}

	summary, _ := loyalty.GetBalanceAndTier(1)
	if summary.Balance != 75 {
		t.Errorf("balance = %d, want 75", summary.Balance)
	}
}

func TestLoyalty_GetHistory(t *testing.T) {
	loyalty, _, _ := newLoyalty(t, DefaultPolicy())

	if _, err := loyalty.Earning.AwardForPurchase(1, "order-1", 300); err != nil {
		t.Fatalf("AwardForPurchase() error = %v", err)
	}
	if _, err := loyalty.Earning.AwardForReview(1, "review-1"); err != nil {
		t.Fatalf("AwardForReview() error = %v", err)
	}

	entries, cursor, err := loyalty.GetHistory(1, 10, 0, repositories.HistoryFilter{})
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 2 || cursor != 0 {
		t.Fatalf("history = %d entries with cursor %d, want 2 and 0", len(entries), cursor)
	}
	if entries[0].Reason != models.ReasonReview || entries[1].Reason != models.ReasonPurchase {
		t.Errorf("history order = [%s %s], want newest first", entries[0].Reason, entries[1].Reason)
	}
}
