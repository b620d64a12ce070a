// Package reminder sends the daily story-time SMS.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/db"
	"github.com/adamavenir/storytime/internal/types"
	"github.com/gen2brain/beeep"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds scheduler options.
type Config struct {
	Home       core.Home
	At         string
	Recipients []string
	Sender     Sender
	Logger     *zap.Logger

	// Pick chooses a message index in [0, n). Defaults to math/rand.
	Pick func(n int) int
	// Notify shows a desktop notification. Defaults to beeep.
	Notify func(title, body string) error
	Now    func() time.Time
}

// Scheduler fires one reminder per day at a fixed wall-clock time.
type Scheduler struct {
	home       core.Home
	at         string
	recipients []string
	sender     Sender
	logger     *zap.Logger
	pick       func(n int) int
	notify     func(title, body string) error
	now        func() time.Time
}

// Dispatch summarizes one firing.
type Dispatch struct {
	Message    string                 `json:"message"`
	Suppressed bool                   `json:"suppressed"`
	Records    []types.ReminderRecord `json:"records"`
}

// New creates a scheduler. The fire time is validated up front.
func New(cfg Config) (*Scheduler, error) {
	if cfg.At == "" {
		cfg.At = "20:00"
	}
	if _, _, err := ParseClock(cfg.At); err != nil {
		return nil, err
	}
	if cfg.Sender == nil || len(cfg.Recipients) == 0 {
		return nil, fmt.Errorf("scheduler: %w", core.ErrReminderNotConfigured)
	}
	s := &Scheduler{
		home:       cfg.Home,
		at:         cfg.At,
		recipients: cfg.Recipients,
		sender:     cfg.Sender,
		logger:     cfg.Logger,
		pick:       cfg.Pick,
		notify:     cfg.Notify,
		now:        cfg.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.pick == nil {
		s.pick = rand.IntN
	}
	if s.notify == nil {
		s.notify = func(title, body string) error { return beeep.Notify(title, body, "") }
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Run fires reminders until ctx is cancelled. Only one Run may hold the
// data directory at a time.
func (s *Scheduler) Run(ctx context.Context) error {
	lock, err := acquireLock(s.home.Dir)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer releaseLock(lock)

	for {
		now := s.now()
		next, err := NextFire(now, s.at)
		if err != nil {
			return err
		}
		s.logger.Info("next reminder scheduled", zap.Time("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if _, err := s.SendOnce(ctx); err != nil {
			s.logger.Warn("reminder dispatch failed", zap.Error(err))
		}
	}
}

// SendOnce sends today's reminder to every recipient unless reminders are
// opted out. Every attempt, including a suppressed one, is recorded in the
// reminder history.
func (s *Scheduler) SendOnce(ctx context.Context) (Dispatch, error) {
	settings, err := core.ReadSettings(s.home)
	if err != nil {
		return Dispatch{}, fmt.Errorf("read settings: %w", err)
	}

	message := Messages[s.pick(len(Messages))]
	if settings.SMSOptOut {
		record := types.ReminderRecord{
			ID:      uuid.NewString(),
			Message: message,
			Status:  types.ReminderStatusSuppressed,
			SentAt:  s.now().Unix(),
		}
		s.logger.Info("reminder suppressed by opt-out")
		if err := db.AppendReminder(s.home.RemindersPath(), record); err != nil {
			return Dispatch{}, err
		}
		return Dispatch{Message: message, Suppressed: true, Records: []types.ReminderRecord{record}}, nil
	}

	dispatch := Dispatch{Message: message}
	var errs []error
	for _, to := range s.recipients {
		record := types.ReminderRecord{
			ID:      uuid.NewString(),
			Message: message,
			To:      to,
			Status:  types.ReminderStatusSent,
		}
		sid, sendErr := s.sender.Send(ctx, to, message)
		record.SentAt = s.now().Unix()
		if sendErr != nil {
			msg := sendErr.Error()
			record.Status = types.ReminderStatusFailed
			record.Error = &msg
			errs = append(errs, sendErr)
			s.logger.Warn("reminder not delivered", zap.String("to", to), zap.Error(sendErr))
		} else {
			if sid != "" {
				record.SID = &sid
			}
			s.logger.Info("reminder sent", zap.String("to", to), zap.String("sid", sid))
		}
		if err := db.AppendReminder(s.home.RemindersPath(), record); err != nil {
			errs = append(errs, err)
		}
		dispatch.Records = append(dispatch.Records, record)
	}

	if settings.DesktopNotify {
		if err := s.notify("Story time", message); err != nil {
			s.logger.Debug("desktop notification failed", zap.Error(err))
		}
	}
	return dispatch, errors.Join(errs...)
}
