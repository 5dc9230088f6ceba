package sqlstorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	"github.com/trungtd/schedassist/internal/storage"
)

var ErrConnectionFailed = errors.New("failed to connect")

const dbErrUniqueViolation = "23505"

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

// Instants are persisted as zone-qualified ISO-8601 text so rows stay
// readable and exportable as-is.
type eventRow struct {
	ID              string  `db:"id"`
	Title           string  `db:"title"`
	StartTime       string  `db:"start_time"`
	EndTime         *string `db:"end_time"`
	Location        string  `db:"location"`
	RemindBefore    int     `db:"remind_before"`
	Cadence         string  `db:"cadence"`
	Importance      string  `db:"importance"`
	Notified        bool    `db:"notified"`
	RepeatCount     int     `db:"repeat_count"`
	Stopped         bool    `db:"is_stopped"`
	NextNotify      *string `db:"next_notify"`
	PendingAutoMark bool    `db:"pending_auto_mark"`
}

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	row := toRow(*e)
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO events(id, title, start_time, end_time, location, remind_before, cadence, importance, "+
			"notified, repeat_count, is_stopped, next_notify, pending_auto_mark) "+
			"VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)",
		row.ID, row.Title, row.StartTime, row.EndTime, row.Location, row.RemindBefore, row.Cadence,
		row.Importance, row.Notified, row.RepeatCount, row.Stopped, row.NextNotify, row.PendingAutoMark)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == dbErrUniqueViolation {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, storage.ErrDuplicateEventID)
	}
	return err
}

func (s *Storage) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	var row eventRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM events WHERE id=$1", id)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return storage.Event{}, err
	}
	if err != nil {
		return storage.Event{}, fmt.Errorf("failed to get event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return fromRow(row)
}

func (s *Storage) ListEvents(ctx context.Context) ([]storage.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows, "SELECT * FROM events ORDER BY start_time")
	if err != nil {
		return nil, err
	}
	events := make([]storage.Event, 0, len(rows))
	for _, row := range rows {
		e, err := fromRow(row)
		if err != nil {
			log.Errorf("skipping unreadable event row %q: %v", row.ID, err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *Storage) UpdateEvent(ctx context.Context, id string, e storage.Event) error {
	e.ID = id
	row := toRow(e)
	var found bool
	err := s.db.GetContext(
		ctx,
		&found,
		"UPDATE events SET title=$2, start_time=$3, end_time=$4, location=$5, remind_before=$6, cadence=$7, "+
			"importance=$8, notified=$9, repeat_count=$10, is_stopped=$11, next_notify=$12, pending_auto_mark=$13 "+
			"WHERE id=$1 RETURNING TRUE",
		id, row.Title, row.StartTime, row.EndTime, row.Location, row.RemindBefore, row.Cadence,
		row.Importance, row.Notified, row.RepeatCount, row.Stopped, row.NextNotify, row.PendingAutoMark)
	if !found {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return err
}

func (s *Storage) UpdateField(ctx context.Context, id string, field string, value interface{}) error {
	if err := storage.CheckField(field); err != nil {
		return fmt.Errorf("failed to update field %q: %w", field, err)
	}
	var found bool
	// Field names are the column names; the allow-list check above is
	// what makes the interpolation safe.
	err := s.db.GetContext(
		ctx,
		&found,
		fmt.Sprintf("UPDATE events SET %s=$2 WHERE id=$1 RETURNING TRUE", field),
		id,
		toColumn(value),
	)
	if !found {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return err
}

func (s *Storage) RemoveEvent(ctx context.Context, id string) error {
	var found bool
	err := s.db.GetContext(ctx, &found, "DELETE FROM events WHERE id=$1 RETURNING TRUE", id)
	if !found {
		return fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return err
}

func toColumn(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.Format(time.RFC3339)
	case storage.Importance:
		return string(v)
	default:
		return value
	}
}

func toRow(e storage.Event) eventRow {
	row := eventRow{
		ID:              e.ID,
		Title:           e.Title,
		StartTime:       e.StartTime.Format(time.RFC3339),
		Location:        e.Location,
		RemindBefore:    e.RemindBefore,
		Cadence:         e.Cadence.String(),
		Importance:      string(e.Importance),
		Notified:        e.Notified,
		RepeatCount:     e.RepeatCount,
		Stopped:         e.Stopped,
		PendingAutoMark: e.PendingAutoMark,
	}
	if e.EndTime != nil {
		s := e.EndTime.Format(time.RFC3339)
		row.EndTime = &s
	}
	if e.NextNotify != nil {
		s := e.NextNotify.Format(time.RFC3339)
		row.NextNotify = &s
	}
	return row
}

func fromRow(row eventRow) (storage.Event, error) {
	start, err := time.Parse(time.RFC3339, row.StartTime)
	if err != nil {
		return storage.Event{}, fmt.Errorf("bad start_time %q: %w", row.StartTime, err)
	}
	e := storage.Event{
		ID:              row.ID,
		Title:           row.Title,
		StartTime:       start,
		Location:        row.Location,
		RemindBefore:    row.RemindBefore,
		Cadence:         storage.ParseCadence(row.Cadence),
		Importance:      storage.Importance(row.Importance),
		Notified:        row.Notified,
		RepeatCount:     row.RepeatCount,
		Stopped:         row.Stopped,
		PendingAutoMark: row.PendingAutoMark,
	}
	if row.EndTime != nil {
		end, err := time.Parse(time.RFC3339, *row.EndTime)
		if err != nil {
			return storage.Event{}, fmt.Errorf("bad end_time %q: %w", *row.EndTime, err)
		}
		e.EndTime = &end
	}
	if row.NextNotify != nil {
		next, err := time.Parse(time.RFC3339, *row.NextNotify)
		if err != nil {
			return storage.Event{}, fmt.Errorf("bad next_notify %q: %w", *row.NextNotify, err)
		}
		e.NextNotify = &next
	}
	return e, nil
}
