package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/pkg/errors"
)

func TestReferrals_SelfReferralRejected(t *testing.T) {
	loyalty, _, _ := newLoyalty(t, DefaultPolicy())

	_, err := loyalty.Referrals.CreateReferral(1, 1, "ABCD1234")
	if !errors.HasCode(err, errors.ErrCodeSelfReferral) {
		t.Fatalf("CreateReferral(1,1) error = %v, want SELF_REFERRAL", err)
	}
}

func TestReferrals_CreateValidation(t *testing.T) {
	loyalty, _, _ := newLoyalty(t, DefaultPolicy())

	if _, err := loyalty.Referrals.CreateReferral(0, 2, "ABCD1234"); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("zero referrer error = %v, want VALIDATION_ERROR", err)
	}
	if _, err := loyalty.Referrals.CreateReferral(1, 2, "  "); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("blank code error = %v, want VALIDATION_ERROR", err)
	}

	referral, err := loyalty.Referrals.CreateReferral(1, 2, " abcd1234 ")
	if err != nil {
		t.Fatalf("CreateReferral() error = %v", err)
	}
	if referral.ReferralCode != "ABCD1234" {
		t.Errorf("code = %q, want normalized ABCD1234", referral.ReferralCode)
	}
	if referral.Status != models.ReferralStatusPending {
		t.Errorf("status = %q, want pending", referral.Status)
	}
}

func TestReferrals_DuplicatePairRejected(t *testing.T) {
	loyalty, _, _ := newLoyalty(t, DefaultPolicy())

	if _, err := loyalty.Referrals.CreateReferral(1, 2, "ABCD1234"); err != nil {
		t.Fatalf("CreateReferral() error = %v", err)
	}
	_, err := loyalty.Referrals.CreateReferral(1, 2, "ABCD1234")
	if !errors.HasCode(err, errors.ErrCodeDuplicateReferral) {
		t.Fatalf("duplicate error = %v, want DUPLICATE_REFERRAL", err)
	}
}

func TestReferrals_CompleteAwardsBothSidesOnce(t *testing.T) {
	loyalty, db, notifier := newLoyalty(t, DefaultPolicy())

	if _, err := loyalty.Referrals.CreateReferral(1, 2, "ABCD1234"); err != nil {
		t.Fatalf("CreateReferral() error = %v", err)
	}

	referral, err := loyalty.Referrals.CompleteOnFirstOrder(2, "order-1")
	if err != nil {
		t.Fatalf("CompleteOnFirstOrder() error = %v", err)
	}
	if referral == nil || referral.Status != models.ReferralStatusCompleted {
		t.Fatalf("referral = %+v, want completed", referral)
	}

	// Replaying the completion must not grant again
	again, err := loyalty.Referrals.CompleteOnFirstOrder(2, "order-2")
	if err != nil {
		t.Fatalf("replay error = %v", err)
	}
	if again != nil {
		t.Errorf("replay returned %+v, want nil", again)
	}

	referrer, _ := loyalty.GetBalanceAndTier(1)
	referred, _ := loyalty.GetBalanceAndTier(2)
	if referrer.Balance != 20 {
		t.Errorf("referrer balance = %d, want 20", referrer.Balance)
	}
	if referred.Balance != 20 {
		t.Errorf("referred balance = %d, want 20", referred.Balance)
	}

	// Exactly one referral entry per side
	if got := entryCount(t, db, 1); got != 1 {
		t.Errorf("referrer entry count = %d, want 1", got)
	}
	if got := entryCount(t, db, 2); got != 1 {
		t.Errorf("referred entry count = %d, want 1", got)
	}

	if len(notifier.referrals) != 2 || notifier.referrals[0] != 1 || notifier.referrals[1] != 2 {
		t.Errorf("notifications = %v, want one event for pair (1,2)", notifier.referrals)
	}
}

func TestReferrals_ConcurrentCompletionAwardsOnce(t *testing.T) {
	loyalty, db, _ := newLoyalty(t, DefaultPolicy())

	if _, err := loyalty.Referrals.CreateReferral(1, 2, "ABCD1234"); err != nil {
		t.Fatalf("CreateReferral() error = %v", err)
	}

	// Two first-order events for the same referred user land at once; the
	// completion must happen exactly once with one grant per side.
	const racers = 2
	results := make([]*models.Referral, racers)
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = loyalty.Referrals.CompleteOnFirstOrder(2, fmt.Sprintf("order-%d", i+1))
		}(i)
	}
	wg.Wait()

	var completed int
	for i := 0; i < racers; i++ {
		if errs[i] != nil {
			t.Errorf("racer %d: error = %v", i+1, errs[i])
		}
		if results[i] != nil {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("completions = %d, want exactly 1", completed)
	}

	referrer, _ := loyalty.GetBalanceAndTier(1)
	referred, _ := loyalty.GetBalanceAndTier(2)
	if referrer.Balance != 20 || referred.Balance != 20 {
		t.Errorf("balances = %d/%d, want 20/20", referrer.Balance, referred.Balance)
	}
	if got := entryCount(t, db, 1); got != 1 {
		t.Errorf("referrer entry count = %d, want 1", got)
	}
	if got := entryCount(t, db, 2); got != 1 {
		t.Errorf("referred entry count = %d, want 1", got)
	}
}

func TestReferrals_CompleteWithoutReferral(t *testing.T) {
	loyalty, _, _ := newLoyalty(t, DefaultPolicy())

	referral, err := loyalty.Referrals.CompleteOnFirstOrder(9, "order-1")
	if err != nil {
		t.Fatalf("CompleteOnFirstOrder() error = %v", err)
	}
	if referral != nil {
		t.Errorf("referral = %+v for unreferred user, want nil", referral)
	}
}

func TestReferrals_Stats(t *testing.T) {
	loyalty, _, _ := newLoyalty(t, DefaultPolicy())

	for _, referred := range []uint{2, 3} {
		if _, err := loyalty.Referrals.CreateReferral(1, referred, "ABCD1234"); err != nil {
			t.Fatalf("CreateReferral(%d) error = %v", referred, err)
		}
	}
	if _, err := loyalty.Referrals.CompleteOnFirstOrder(2, "order-1"); err != nil {
		t.Fatalf("CompleteOnFirstOrder() error = %v", err)
	}

	stats, recent, err := loyalty.Referrals.Stats(1)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 2 || stats.Completed != 1 || stats.Pending != 1 {
		t.Errorf("stats = %+v, want total 2 / completed 1 / pending 1", stats)
	}
	if len(recent) != 2 {
		t.Errorf("recent = %d referrals, want 2", len(recent))
	}
}

func TestReferrals_IssueCode(t *testing.T) {
	loyalty, _, _ := newLoyalty(t, DefaultPolicy())

	code := loyalty.Referrals.IssueCode()
	if len(code) != 8 {
		t.Errorf("code %q has length %d, want 8", code, len(code))
	}
	if code == loyalty.Referrals.IssueCode() {
		t.Error("consecutive codes are identical")
	}
}
