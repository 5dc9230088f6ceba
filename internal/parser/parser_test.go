package parser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trungtd/schedassist/internal/parser"
	"github.com/trungtd/schedassist/internal/storage"
)

func parserNow(t *testing.T) (time.Time, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	return time.Date(2025, 1, 1, 10, 0, 0, 0, loc), loc
}

func TestParseRelativeReminder(t *testing.T) {
	now, loc := parserNow(t)
	p := parser.New(loc)

	draft, err := p.Parse("in 5 minutes remind me to call Tung, remind me 2 minutes before", now)
	require.NoError(t, err)

	require.True(t, draft.Start.Equal(now.Add(5*time.Minute)))
	require.Equal(t, 2, draft.RemindBefore)
	require.Contains(t, draft.Title, "call Tung")
	require.Nil(t, draft.End)
	require.Equal(t, storage.ImportanceNormal, draft.Importance)
}

func TestParseExplicitDateRange(t *testing.T) {
	now, loc := parserNow(t)
	p := parser.New(loc)

	draft, err := p.Parse("meeting 15/11/2025 14:00 - 15:30, room 101, remind me 30 minutes before", now)
	require.NoError(t, err)

	require.True(t, draft.Start.Equal(time.Date(2025, 11, 15, 14, 0, 0, 0, loc)))
	require.NotNil(t, draft.End)
	require.True(t, draft.End.Equal(time.Date(2025, 11, 15, 15, 30, 0, 0, loc)))
	require.Equal(t, 30, draft.RemindBefore)
	require.Contains(t, draft.Location, "101")
}

func TestParseVietnamese(t *testing.T) {
	now, loc := parserNow(t) // Wednesday
	p := parser.New(loc)

	draft, err := p.Parse("Nhắc tôi họp nhóm thứ Năm lúc 10 giờ, nhắc trước 15 phút", now)
	require.NoError(t, err)

	require.True(t, draft.Start.Equal(time.Date(2025, 1, 2, 10, 0, 0, 0, loc)))
	require.Equal(t, 15, draft.RemindBefore)
	require.Contains(t, draft.Title, "họp nhóm")
}

func TestParseDefaults(t *testing.T) {
	now, loc := parserNow(t)
	p := parser.New(loc)

	draft, err := p.Parse("dentist tomorrow 16:00", now)
	require.NoError(t, err)

	require.Equal(t, parser.DefaultRemindBefore, draft.RemindBefore)
	require.Equal(t, storage.ImportanceNormal, draft.Importance)
	require.Equal(t, storage.Cadence{}, draft.Cadence)
	require.Empty(t, draft.Location)
}

func TestParseRecurringImportant(t *testing.T) {
	now, loc := parserNow(t)
	p := parser.New(loc)

	draft, err := p.Parse("important team sync every 2 weeks monday 9:00", now)
	require.NoError(t, err)

	require.True(t, draft.Start.Equal(time.Date(2025, 1, 6, 9, 0, 0, 0, loc)))
	require.Equal(t, storage.ImportanceImportant, draft.Importance)
	require.Equal(t, storage.Cadence{Kind: storage.CadenceEvery, N: 2, Unit: storage.UnitWeek}, draft.Cadence)
}

func TestParseNoTemporalSignal(t *testing.T) {
	now, loc := parserNow(t)
	p := parser.New(loc)

	_, err := p.Parse("buy some milk", now)
	require.ErrorIs(t, err, parser.ErrNoTemporalSignal)

	_, err = p.Parse("   ", now)
	require.ErrorIs(t, err, parser.ErrNoTemporalSignal)
}

func TestDraftEvent(t *testing.T) {
	now, loc := parserNow(t)
	p := parser.New(loc)

	draft, err := p.Parse("standup tomorrow 9:15, remind me 10 minutes before", now)
	require.NoError(t, err)

	event := draft.Event()
	require.Equal(t, draft.Title, event.Title)
	require.True(t, event.StartTime.Equal(time.Date(2025, 1, 2, 9, 15, 0, 0, loc)))
	require.NotNil(t, event.NextNotify)
	require.True(t, event.NextNotify.Equal(time.Date(2025, 1, 2, 9, 5, 0, 0, loc)))
	require.False(t, event.Notified)
	require.Zero(t, event.RepeatCount)
}
