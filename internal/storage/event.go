package storage

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Importance controls how many times one occurrence re-notifies
// before the engine gives up on it.
type Importance string

const (
	ImportanceNormal    Importance = "normal"
	ImportanceImportant Importance = "important"
	ImportanceCritical  Importance = "critical"
)

// MaxFires returns the notification cap for the importance tier.
func (i Importance) MaxFires() int {
	switch i {
	case ImportanceImportant:
		return 2
	case ImportanceCritical:
		return 3
	default:
		return 1
	}
}

type CadenceKind int

const (
	CadenceNone CadenceKind = iota
	CadenceDaily
	CadenceWeekly
	CadenceMonthly
	CadenceEvery
)

type CadenceUnit int

const (
	UnitMinute CadenceUnit = iota
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
)

// Cadence is the recurrence rule of an event. Kind selects the rule,
// N/Unit are meaningful only for CadenceEvery ("every 3 days").
type Cadence struct {
	Kind CadenceKind
	N    int
	Unit CadenceUnit
}

var unitNames = map[CadenceUnit]string{
	UnitMinute: "minute",
	UnitHour:   "hour",
	UnitDay:    "day",
	UnitWeek:   "week",
	UnitMonth:  "month",
}

func (c Cadence) IsRecurring() bool {
	return c.Kind != CadenceNone
}

func (c Cadence) String() string {
	switch c.Kind {
	case CadenceDaily:
		return "daily"
	case CadenceWeekly:
		return "weekly"
	case CadenceMonthly:
		return "monthly"
	case CadenceEvery:
		return fmt.Sprintf("every:%d:%s", c.N, unitNames[c.Unit])
	default:
		return ""
	}
}

// ParseCadence is the inverse of String. Unknown text maps to
// CadenceNone, the way the original rows treated unknown repeat tags.
func ParseCadence(s string) Cadence {
	switch s {
	case "daily":
		return Cadence{Kind: CadenceDaily}
	case "weekly":
		return Cadence{Kind: CadenceWeekly}
	case "monthly":
		return Cadence{Kind: CadenceMonthly}
	}
	parts := strings.Split(s, ":")
	if len(parts) == 3 && parts[0] == "every" {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			return Cadence{}
		}
		for u, name := range unitNames {
			if name == parts[2] {
				return Cadence{Kind: CadenceEvery, N: n, Unit: u}
			}
		}
	}
	return Cadence{}
}

// Value / Scan persist the cadence as its string tag.
func (c Cadence) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *Cadence) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = Cadence{}
	case string:
		*c = ParseCadence(v)
	case []byte:
		*c = ParseCadence(string(v))
	default:
		return fmt.Errorf("cannot scan cadence from %T", src)
	}
	return nil
}

func (c Cadence) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

func (c *Cadence) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("cadence must be a string: %w", err)
	}
	*c = ParseCadence(s)
	return nil
}

// NextOccurrence rolls a start instant forward by one cadence step.
// Monthly steps clamp the day-of-month to 28 so the result is always a
// valid date; events anchored on day 29-31 drift to 28 (known precision
// loss, kept for compatibility with existing rows).
func (c Cadence) NextOccurrence(start time.Time) time.Time {
	switch c.Kind {
	case CadenceDaily:
		return start.AddDate(0, 0, 1)
	case CadenceWeekly:
		return start.AddDate(0, 0, 7)
	case CadenceMonthly:
		return AddMonthClamped(start)
	case CadenceEvery:
		switch c.Unit {
		case UnitMinute:
			return start.Add(time.Duration(c.N) * time.Minute)
		case UnitHour:
			return start.Add(time.Duration(c.N) * time.Hour)
		case UnitDay:
			return start.AddDate(0, 0, c.N)
		case UnitWeek:
			return start.AddDate(0, 0, 7*c.N)
		case UnitMonth:
			next := start
			for i := 0; i < c.N; i++ {
				next = AddMonthClamped(next)
			}
			return next
		}
	}
	return start
}

// AddMonthClamped advances t by one calendar month, clamping the
// day-of-month to 28.
func AddMonthClamped(t time.Time) time.Time {
	day := t.Day()
	if day > 28 {
		day = 28
	}
	year, month := t.Year(), t.Month()
	if month == time.December {
		year++
		month = time.January
	} else {
		month++
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

// FloorToMinute drops seconds and below; all notification instants are
// minute-granular.
func FloorToMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// Event is one persisted calendar entry. The store is the single source
// of truth: the reminder engine keeps no copy across poll ticks.
type Event struct {
	ID              string     `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	StartTime       time.Time  `db:"start_time" json:"startTime"`
	EndTime         *time.Time `db:"end_time" json:"endTime,omitempty"`
	Location        string     `db:"location" json:"location,omitempty"`
	RemindBefore    int        `db:"remind_before" json:"remindBefore"`
	Cadence         Cadence    `db:"cadence" json:"cadence"`
	Importance      Importance `db:"importance" json:"importance"`
	Notified        bool       `db:"notified" json:"notified"`
	RepeatCount     int        `db:"repeat_count" json:"repeatCount"`
	Stopped         bool       `db:"is_stopped" json:"isStopped"`
	NextNotify      *time.Time `db:"next_notify" json:"nextNotify,omitempty"`
	PendingAutoMark bool       `db:"pending_auto_mark" json:"pendingAutoMark"`
}

// BaseRemind is the first notification instant of the current
// occurrence: start minus the lead time, floored to the minute.
func (e Event) BaseRemind() time.Time {
	return FloorToMinute(e.StartTime.Add(-time.Duration(e.RemindBefore) * time.Minute))
}
