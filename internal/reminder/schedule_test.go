package reminder

import (
	"testing"
	"time"

	"github.com/adamavenir/storytime/internal/types"
)

func TestNextFire(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	cases := []struct {
		name string
		now  time.Time
		at   string
		want time.Time
	}{
		{"later today", time.Date(2026, 1, 10, 9, 30, 0, 0, loc), "20:00", time.Date(2026, 1, 10, 20, 0, 0, 0, loc)},
		{"exactly now rolls over", time.Date(2026, 1, 10, 20, 0, 0, 0, loc), "20:00", time.Date(2026, 1, 11, 20, 0, 0, 0, loc)},
		{"already passed", time.Date(2026, 1, 10, 21, 0, 0, 0, loc), "07:15", time.Date(2026, 1, 11, 7, 15, 0, 0, loc)},
		{"month end", time.Date(2026, 1, 31, 23, 0, 0, 0, loc), "20:00", time.Date(2026, 2, 1, 20, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextFire(tc.now, tc.at)
			if err != nil {
				t.Fatalf("next fire: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestParseClockRejectsBadInput(t *testing.T) {
	for _, at := range []string{"", "8pm", "24:00", "12:60", "12:3:4", "aa:bb"} {
		if _, _, err := ParseClock(at); err == nil {
			t.Fatalf("expected error for %q", at)
		}
	}
}

func TestMonthCountAndLastSent(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	history := []types.ReminderRecord{
		{ID: "feb", Status: types.ReminderStatusSent, SentAt: time.Date(2026, 2, 28, 20, 0, 0, 0, time.UTC).Unix()},
		{ID: "a", Status: types.ReminderStatusSent, SentAt: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC).Unix()},
		{ID: "b", Status: types.ReminderStatusFailed, SentAt: time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC).Unix()},
		{ID: "c", Status: types.ReminderStatusSent, SentAt: time.Date(2026, 3, 19, 20, 0, 0, 0, time.UTC).Unix()},
		{ID: "d", Status: types.ReminderStatusSuppressed, SentAt: time.Date(2026, 3, 20, 20, 0, 0, 0, time.UTC).Unix()},
		{ID: "last-year", Status: types.ReminderStatusSent, SentAt: time.Date(2025, 3, 5, 20, 0, 0, 0, time.UTC).Unix()},
	}
	if got := MonthCount(history, now); got != 2 {
		t.Fatalf("expected 2 reminders this month, got %d", got)
	}
	last, ok := LastSent(history)
	if !ok || last.ID != "last-year" {
		t.Fatalf("expected last delivered record in append order, got %+v", last)
	}
	if _, ok := LastSent(nil); ok {
		t.Fatalf("expected no last reminder for empty history")
	}
}

func TestMessagesPool(t *testing.T) {
	if len(Messages) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(Messages))
	}
	seen := map[string]bool{}
	for _, msg := range Messages {
		if msg == "" || seen[msg] {
			t.Fatalf("expected distinct non-empty messages")
		}
		seen[msg] = true
	}
}
