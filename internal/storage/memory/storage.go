package memorystorage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trungtd/schedassist/internal/storage"
)

type Storage struct {
	mu   sync.RWMutex
	data map[string]storage.Event
}

func New() *Storage {
	return &Storage{data: make(map[string]storage.Event)}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	} else if _, ok := s.data[e.ID]; ok {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, storage.ErrDuplicateEventID)
	}
	s.data[e.ID] = *e
	return nil
}

func (s *Storage) GetEvent(_ context.Context, id string) (storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok {
		return storage.Event{}, fmt.Errorf("failed to get event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return e, nil
}

func (s *Storage) ListEvents(_ context.Context) ([]storage.Event, error) {
	s.mu.RLock()
	events := make([]storage.Event, 0, len(s.data))
	for _, e := range s.data {
		events = append(events, e)
	}
	s.mu.RUnlock()
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

func (s *Storage) UpdateEvent(_ context.Context, id string, e storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	e.ID = id
	s.data[id] = e
	return nil
}

func (s *Storage) UpdateField(_ context.Context, id string, field string, value interface{}) error {
	if err := storage.CheckField(field); err != nil {
		return fmt.Errorf("failed to update field %q: %w", field, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[id]
	if !ok {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	if err := setField(&e, field, value); err != nil {
		return err
	}
	s.data[id] = e
	return nil
}

func (s *Storage) RemoveEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	delete(s.data, id)
	return nil
}

func setField(e *storage.Event, field string, value interface{}) error {
	mismatch := func() error {
		return fmt.Errorf("unexpected value type %T for field %q: %w", value, field, storage.ErrInvalidField)
	}
	switch field {
	case storage.FieldTitle:
		v, ok := value.(string)
		if !ok {
			return mismatch()
		}
		e.Title = v
	case storage.FieldStartTime:
		v, ok := value.(time.Time)
		if !ok {
			return mismatch()
		}
		e.StartTime = v
	case storage.FieldEndTime:
		switch v := value.(type) {
		case nil:
			e.EndTime = nil
		case *time.Time:
			e.EndTime = v
		case time.Time:
			e.EndTime = &v
		default:
			return mismatch()
		}
	case storage.FieldLocation:
		v, ok := value.(string)
		if !ok {
			return mismatch()
		}
		e.Location = v
	case storage.FieldRemindBefore:
		v, ok := value.(int)
		if !ok {
			return mismatch()
		}
		e.RemindBefore = v
	case storage.FieldCadence:
		v, ok := value.(storage.Cadence)
		if !ok {
			return mismatch()
		}
		e.Cadence = v
	case storage.FieldImportance:
		v, ok := value.(storage.Importance)
		if !ok {
			return mismatch()
		}
		e.Importance = v
	case storage.FieldNotified:
		v, ok := value.(bool)
		if !ok {
			return mismatch()
		}
		e.Notified = v
	case storage.FieldRepeatCount:
		v, ok := value.(int)
		if !ok {
			return mismatch()
		}
		e.RepeatCount = v
	case storage.FieldStopped:
		v, ok := value.(bool)
		if !ok {
			return mismatch()
		}
		e.Stopped = v
	case storage.FieldNextNotify:
		switch v := value.(type) {
		case nil:
			e.NextNotify = nil
		case *time.Time:
			e.NextNotify = v
		case time.Time:
			e.NextNotify = &v
		default:
			return mismatch()
		}
	case storage.FieldPendingAutoMark:
		v, ok := value.(bool)
		if !ok {
			return mismatch()
		}
		e.PendingAutoMark = v
	default:
		return fmt.Errorf("failed to update field %q: %w", field, storage.ErrInvalidField)
	}
	return nil
}
