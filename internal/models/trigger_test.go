package models

import (
	"testing"
	"time"
)

func TestLoyaltyTrigger_PeriodBucket(t *testing.T) {
	at := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		frequency string
		want      string
	}{
		{name: "Once", frequency: FrequencyOnce, want: "once"},
		{name: "Daily", frequency: FrequencyDaily, want: "2026-08-30"},
		{name: "Weekly", frequency: FrequencyWeekly, want: "2026-W35"},
		{name: "Monthly", frequency: FrequencyMonthly, want: "2026-08"},
		{name: "Unlimited has no bucket", frequency: FrequencyUnlimited, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := &LoyaltyTrigger{Frequency: tt.frequency}
			if got := trigger.PeriodBucket(at); got != tt.want {
				t.Errorf("PeriodBucket() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoyaltyTrigger_PeriodBucketStable(t *testing.T) {
	// Two evaluations within the same day must land in the same bucket.
	trigger := &LoyaltyTrigger{Frequency: FrequencyDaily}
	morning := time.Date(2026, 8, 30, 0, 1, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	if trigger.PeriodBucket(morning) != trigger.PeriodBucket(evening) {
		t.Error("same-day evaluations produced different buckets")
	}
}

func TestLoyaltyTrigger_ValidAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		trigger LoyaltyTrigger
		want    bool
	}{
		{
			name:    "Active without window",
			trigger: LoyaltyTrigger{Active: true},
			want:    true,
		},
		{
			name:    "Inactive",
			trigger: LoyaltyTrigger{Active: false},
			want:    false,
		},
		{
			name:    "Not started yet",
			trigger: LoyaltyTrigger{Active: true, StartsAt: &future},
			want:    false,
		},
		{
			name:    "Already ended",
			trigger: LoyaltyTrigger{Active: true, EndsAt: &past},
			want:    false,
		},
		{
			name:    "Inside window",
			trigger: LoyaltyTrigger{Active: true, StartsAt: &past, EndsAt: &future},
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.trigger.ValidAt(now); got != tt.want {
				t.Errorf("ValidAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoyaltyTrigger_BeforeSave(t *testing.T) {
	tests := []struct {
		name    string
		trigger LoyaltyTrigger
		wantErr bool
	}{
		{
			name:    "Valid daily trigger",
			trigger: LoyaltyTrigger{Name: "daily login", ActionType: "LOGIN", BasePoints: 5, Frequency: FrequencyDaily, MaxPerPeriod: 1},
			wantErr: false,
		},
		{
			name:    "Unknown frequency",
			trigger: LoyaltyTrigger{Name: "x", ActionType: "X", BasePoints: 5, Frequency: "hourly", MaxPerPeriod: 1},
			wantErr: true,
		},
		{
			name:    "Negative base points",
			trigger: LoyaltyTrigger{Name: "x", ActionType: "X", BasePoints: -5, Frequency: FrequencyDaily, MaxPerPeriod: 1},
			wantErr: true,
		},
		{
			name:    "Zero cap",
			trigger: LoyaltyTrigger{Name: "x", ActionType: "X", BasePoints: 5, Frequency: FrequencyDaily, MaxPerPeriod: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trigger.BeforeSave(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("BeforeSave() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
