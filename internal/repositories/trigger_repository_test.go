package repositories

import (
	"testing"
	"time"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/pkg/errors"
)

func TestTriggers_ListActiveByAction(t *testing.T) {
	repo := NewTriggerRepository(setupDB(t))
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	triggers := []*models.LoyaltyTrigger{
		{Name: "Daily Login", ActionType: "login", BasePoints: 2, Frequency: models.FrequencyDaily, MaxPerPeriod: 1, Active: true},
		{Name: "Inactive", ActionType: "login", BasePoints: 2, Frequency: models.FrequencyDaily, MaxPerPeriod: 1, Active: false},
		{Name: "Not Started", ActionType: "login", BasePoints: 2, Frequency: models.FrequencyDaily, MaxPerPeriod: 1, Active: true, StartsAt: &future},
		{Name: "Ended", ActionType: "login", BasePoints: 2, Frequency: models.FrequencyDaily, MaxPerPeriod: 1, Active: true, EndsAt: &past},
		{Name: "Other Action", ActionType: "signup", BasePoints: 10, Frequency: models.FrequencyOnce, MaxPerPeriod: 1, Active: true},
	}
	for _, trigger := range triggers {
		if err := repo.Create(trigger); err != nil {
			t.Fatalf("Create(%s) error = %v", trigger.Name, err)
		}
	}

	active, err := repo.ListActiveByAction("login", now)
	if err != nil {
		t.Fatalf("ListActiveByAction() error = %v", err)
	}
	if len(active) != 1 || active[0].Name != "Daily Login" {
		t.Errorf("active triggers = %+v, want only Daily Login", active)
	}
}

func TestTriggers_Deactivate(t *testing.T) {
	repo := NewTriggerRepository(setupDB(t))

	trigger := &models.LoyaltyTrigger{
		Name: "Daily Login", ActionType: "login", BasePoints: 2,
		Frequency: models.FrequencyDaily, MaxPerPeriod: 1, Active: true,
	}
	if err := repo.Create(trigger); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Deactivate(trigger.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	stored, err := repo.GetByID(trigger.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Active {
		t.Error("trigger still active after Deactivate")
	}

	if err := repo.Deactivate(999); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("Deactivate(999) error = %v, want NOT_FOUND", err)
	}
}

func TestTriggers_CreateRejectsBadFrequency(t *testing.T) {
	repo := NewTriggerRepository(setupDB(t))

	err := repo.Create(&models.LoyaltyTrigger{
		Name: "Bad", ActionType: "login", BasePoints: 2,
		Frequency: "hourly", MaxPerPeriod: 1, Active: true,
	})
	if err == nil {
		t.Fatal("Create() accepted an unknown frequency")
	}
}
