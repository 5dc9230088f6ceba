package storage

import (
	"context"
	"errors"
)

var (
	ErrDuplicateEventID = errors.New("event with same ID exists")
	ErrNotFoundEvent    = errors.New("event not found")
	ErrInvalidField     = errors.New("field is not updatable")
)

// Mutable fields accepted by UpdateField. Anything else is rejected
// with ErrInvalidField before reaching the backend.
const (
	FieldTitle           = "title"
	FieldStartTime       = "start_time"
	FieldEndTime         = "end_time"
	FieldLocation        = "location"
	FieldRemindBefore    = "remind_before"
	FieldCadence         = "cadence"
	FieldImportance      = "importance"
	FieldNotified        = "notified"
	FieldRepeatCount     = "repeat_count"
	FieldStopped         = "is_stopped"
	FieldNextNotify      = "next_notify"
	FieldPendingAutoMark = "pending_auto_mark"
)

var mutableFields = map[string]struct{}{
	FieldTitle:           {},
	FieldStartTime:       {},
	FieldEndTime:         {},
	FieldLocation:        {},
	FieldRemindBefore:    {},
	FieldCadence:         {},
	FieldImportance:      {},
	FieldNotified:        {},
	FieldRepeatCount:     {},
	FieldStopped:         {},
	FieldNextNotify:      {},
	FieldPendingAutoMark: {},
}

// CheckField validates a field name against the allow-list.
func CheckField(field string) error {
	if _, ok := mutableFields[field]; !ok {
		return ErrInvalidField
	}
	return nil
}

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	AddEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	// ListEvents returns every event ordered by start time ascending.
	ListEvents(ctx context.Context) ([]Event, error)
	UpdateEvent(ctx context.Context, id string, e Event) error
	// UpdateField patches a single allow-listed column atomically.
	UpdateField(ctx context.Context, id string, field string, value interface{}) error
	RemoveEvent(ctx context.Context, id string) error
}
