package app

import (
	"context"
	"time"

	"github.com/trungtd/schedassist/internal/parser"
	"github.com/trungtd/schedassist/internal/storage"
)

type App struct {
	Storage storage.Storage
	Parser  *parser.Parser
}

func New(stor storage.Storage, p *parser.Parser) *App {
	return &App{Storage: stor, Parser: p}
}

// CreateFromText parses a free-form phrase and persists the resulting
// event. A parse failure is returned as-is so the caller can ask the
// user to rephrase; nothing is ever stored with a guessed time.
func (a *App) CreateFromText(ctx context.Context, raw string) (storage.Event, error) {
	draft, err := a.Parser.Parse(raw, time.Now())
	if err != nil {
		return storage.Event{}, err
	}
	return a.CreateEvent(ctx, draft)
}

func (a *App) CreateEvent(ctx context.Context, draft parser.Draft) (storage.Event, error) {
	e := draft.Event()
	if e.Importance == "" {
		e.Importance = storage.ImportanceNormal
	}
	if err := a.Storage.AddEvent(ctx, &e); err != nil {
		return storage.Event{}, err
	}
	return e, nil
}

func (a *App) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	return a.Storage.GetEvent(ctx, id)
}

func (a *App) ListEvents(ctx context.Context) ([]storage.Event, error) {
	return a.Storage.ListEvents(ctx)
}

func (a *App) RemoveEvent(ctx context.Context, id string) error {
	return a.Storage.RemoveEvent(ctx, id)
}

// EditEvent replaces the event's content and resets its notification
// state, as if it had just been created.
func (a *App) EditEvent(ctx context.Context, id string, draft parser.Draft) error {
	e := draft.Event()
	if e.Importance == "" {
		e.Importance = storage.ImportanceNormal
	}
	return a.Storage.UpdateEvent(ctx, id, e)
}

// StopEvent deactivates the event without deleting it.
func (a *App) StopEvent(ctx context.Context, id string) error {
	return a.Storage.UpdateField(ctx, id, storage.FieldStopped, true)
}

// ResumeEvent re-opens a stopped event with all counters reset; the
// engine recomputes the notification instant on its next tick.
func (a *App) ResumeEvent(ctx context.Context, id string) error {
	for _, patch := range []struct {
		field string
		value interface{}
	}{
		{storage.FieldStopped, false},
		{storage.FieldRepeatCount, 0},
		{storage.FieldNotified, false},
		{storage.FieldPendingAutoMark, false},
		{storage.FieldNextNotify, nil},
	} {
		if err := a.Storage.UpdateField(ctx, id, patch.field, patch.value); err != nil {
			return err
		}
	}
	return nil
}

// AcknowledgeEvent is the manual mark-as-notified action.
func (a *App) AcknowledgeEvent(ctx context.Context, id string) error {
	for _, patch := range []struct {
		field string
		value interface{}
	}{
		{storage.FieldNotified, true},
		{storage.FieldStopped, true},
		{storage.FieldNextNotify, nil},
		{storage.FieldPendingAutoMark, false},
	} {
		if err := a.Storage.UpdateField(ctx, id, patch.field, patch.value); err != nil {
			return err
		}
	}
	return nil
}
