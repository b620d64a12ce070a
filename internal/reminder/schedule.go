package reminder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adamavenir/storytime/internal/types"
)

// ParseClock parses a 24-hour "HH:MM" wall-clock time.
func ParseClock(at string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(at), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", at)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", at)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", at)
	}
	return hour, minute, nil
}

// NextFire returns the first time strictly after now that falls on the daily
// wall-clock time at, in now's location.
func NextFire(now time.Time, at string) (time.Time, error) {
	hour, minute, err := ParseClock(at)
	if err != nil {
		return time.Time{}, err
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next, nil
}

// MonthCount counts reminders delivered during now's calendar month.
func MonthCount(history []types.ReminderRecord, now time.Time) int {
	year, month := now.Year(), now.Month()
	count := 0
	for _, record := range history {
		if record.Status != types.ReminderStatusSent {
			continue
		}
		sent := time.Unix(record.SentAt, 0).In(now.Location())
		if sent.Year() == year && sent.Month() == month {
			count++
		}
	}
	return count
}

// LastSent returns the most recent delivered reminder, if any.
func LastSent(history []types.ReminderRecord) (types.ReminderRecord, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Status == types.ReminderStatusSent {
			return history[i], true
		}
	}
	return types.ReminderRecord{}, false
}
