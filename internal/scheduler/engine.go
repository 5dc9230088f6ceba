package scheduler

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/trungtd/schedassist/internal/storage"
)

const (
	defaultCheckInterval = 5 * time.Second
	defaultRepeatDelay   = 60 * time.Second
	alertFeedLimit       = 8
	// floor for the adaptive sleep so a deadline on the current
	// second cannot spin the loop
	minSleep = 500 * time.Millisecond
	// grace window for the reserved auto-close-on-unacknowledged
	// feature; only the PendingAutoMark branch below reads it
	autoMarkDelay = 5 * time.Minute
)

// Notifier delivers one notification. Failures are non-fatal to the
// engine.
type Notifier interface {
	Notify(title, body string) error
}

type Config struct {
	CheckInterval time.Duration
	RepeatDelay   time.Duration
}

// Engine is the reminder poll loop. It holds no event state across
// ticks: every decision is a function of the freshly read store and
// the current instant.
type Engine struct {
	storage       storage.Storage
	notifier      Notifier
	alerts        *AlertFeed
	checkInterval time.Duration
	repeatDelay   time.Duration
	now           func() time.Time
}

func New(stor storage.Storage, notifier Notifier, config Config) *Engine {
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaultCheckInterval
	}
	if config.RepeatDelay <= 0 {
		config.RepeatDelay = defaultRepeatDelay
	}
	return &Engine{
		storage:       stor,
		notifier:      notifier,
		alerts:        NewAlertFeed(alertFeedLimit),
		checkInterval: config.CheckInterval,
		repeatDelay:   config.RepeatDelay,
		now:           time.Now,
	}
}

// Alerts is the pull accessor for the UI-facing alert feed.
func (e *Engine) Alerts() []Alert {
	return e.alerts.Recent()
}

// Start runs the poll loop until ctx is cancelled. The sleep between
// ticks is adaptive and the cancellation wakes it immediately.
func (e *Engine) Start(ctx context.Context) error {
	log.Info("reminder engine started")
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("reminder engine stopped")
			return nil
		case <-timer.C:
		}
		timer.Reset(e.Tick(ctx))
	}
}

// Tick evaluates every event once and returns the delay until the
// next wake-up: the nearest upcoming deadline, clamped between
// minSleep and the poll interval.
func (e *Engine) Tick(ctx context.Context) time.Duration {
	now := e.now()
	events, err := e.storage.ListEvents(ctx)
	if err != nil {
		log.Errorf("failed to list events: %v", err)
		return e.checkInterval
	}
	log.Debugf("checking %d events at %s", len(events), now.Format("15:04:05"))

	wake := e.checkInterval
	for _, ev := range events {
		delay, err := e.evaluate(ctx, ev, now)
		if err != nil {
			// the event keeps its state this tick; self-corrects next tick
			log.Errorf("failed to process event %q: %v", ev.ID, err)
			continue
		}
		if delay > 0 && delay < wake {
			wake = delay
		}
	}
	if wake < minSleep {
		wake = minSleep
	}
	return wake
}

func (e *Engine) evaluate(ctx context.Context, ev storage.Event, now time.Time) (time.Duration, error) {
	if ev.Stopped {
		return 0, nil
	}

	next := ev.BaseRemind()
	if ev.NextNotify != nil {
		next = *ev.NextNotify
	}
	until := next.Sub(now)

	// Reserved auto-close branch: nothing sets PendingAutoMark yet,
	// but a fired-and-unacknowledged event flagged by a future control
	// path closes here once its grace deadline passes.
	if ev.PendingAutoMark && until <= 0 {
		log.Infof("auto-marking event %q", ev.ID)
		return 0, e.finalize(ctx, ev.ID)
	}

	maxFires := ev.Importance.MaxFires()
	if until <= 0 && ev.RepeatCount < maxFires {
		e.fire(ev)

		count := ev.RepeatCount + 1
		if err := e.storage.UpdateField(ctx, ev.ID, storage.FieldRepeatCount, count); err != nil {
			return 0, err
		}
		if count < maxFires {
			// re-nag the same occurrence shortly
			return 0, e.storage.UpdateField(ctx, ev.ID, storage.FieldNextNotify, now.Add(e.repeatDelay))
		}
		if ev.Cadence.IsRecurring() {
			return 0, e.reschedule(ctx, ev)
		}
		return 0, e.finalize(ctx, ev.ID)
	}

	if until > 0 {
		if until > e.checkInterval {
			return e.checkInterval, nil
		}
		if until < minSleep {
			return minSleep, nil
		}
		return until, nil
	}
	return 0, nil
}

func (e *Engine) fire(ev storage.Event) {
	title := fmt.Sprintf("%s (%s)", ev.Title, ev.Importance)
	location := ev.Location
	if location == "" {
		location = "-"
	}
	body := fmt.Sprintf("starts at %s, %s", ev.StartTime.Format("15:04 02/01/2006"), location)
	if err := e.notifier.Notify(title, body); err != nil {
		log.Errorf("failed to send notification for event %q: %v", ev.ID, err)
	}
	e.alerts.Push(Alert{
		Title:      ev.Title,
		Time:       ev.StartTime,
		Location:   ev.Location,
		Importance: ev.Importance,
	})
	log.Infof("notification fired for event %q", ev.ID)
}

// reschedule rolls a recurring event onto its next occurrence as if it
// were newly created.
func (e *Engine) reschedule(ctx context.Context, ev storage.Event) error {
	newStart := ev.Cadence.NextOccurrence(ev.StartTime)
	next := storage.FloorToMinute(newStart.Add(-time.Duration(ev.RemindBefore) * time.Minute))
	for _, patch := range []struct {
		field string
		value interface{}
	}{
		{storage.FieldStartTime, newStart},
		{storage.FieldRepeatCount, 0},
		{storage.FieldNotified, false},
		{storage.FieldNextNotify, next},
		{storage.FieldPendingAutoMark, false},
	} {
		if err := e.storage.UpdateField(ctx, ev.ID, patch.field, patch.value); err != nil {
			return fmt.Errorf("failed to reschedule: %w", err)
		}
	}
	log.Infof("event %q rescheduled to %s", ev.ID, newStart)
	return nil
}

// finalize deactivates a finished occurrence; the engine never
// deletes.
func (e *Engine) finalize(ctx context.Context, id string) error {
	for _, patch := range []struct {
		field string
		value interface{}
	}{
		{storage.FieldNotified, true},
		{storage.FieldStopped, true},
		{storage.FieldNextNotify, nil},
		{storage.FieldPendingAutoMark, false},
	} {
		if err := e.storage.UpdateField(ctx, id, patch.field, patch.value); err != nil {
			return fmt.Errorf("failed to finalize: %w", err)
		}
	}
	return nil
}
