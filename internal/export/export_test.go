package export_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trungtd/schedassist/internal/export"
	"github.com/trungtd/schedassist/internal/storage"
	memorystorage "github.com/trungtd/schedassist/internal/storage/memory"
)

func seedStorage(t *testing.T) *memorystorage.Storage {
	t.Helper()
	s := memorystorage.New()
	ctx := context.Background()

	end := time.Date(2025, 11, 15, 15, 30, 0, 0, time.UTC)
	for _, e := range []storage.Event{
		{
			Title:        "meeting",
			StartTime:    time.Date(2025, 11, 15, 14, 0, 0, 0, time.UTC),
			EndTime:      &end,
			Location:     "room 101",
			RemindBefore: 30,
		},
		{
			Title:      "pay rent",
			StartTime:  time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC),
			Cadence:    storage.Cadence{Kind: storage.CadenceMonthly},
			Importance: storage.ImportanceImportant,
		},
	} {
		e := e
		require.NoError(t, s.AddEvent(ctx, &e))
	}
	return s
}

func TestExportJSON(t *testing.T) {
	x := export.New(seedStorage(t))

	data, err := x.JSON(context.Background())
	require.NoError(t, err)

	var events []storage.Event
	require.NoError(t, json.Unmarshal(data, &events))
	require.Len(t, events, 2)
	require.Equal(t, "meeting", events[0].Title)
	require.Equal(t, storage.Cadence{Kind: storage.CadenceMonthly}, events[1].Cadence)
}

func TestExportICS(t *testing.T) {
	x := export.New(seedStorage(t))

	out, err := x.ICS(context.Background())
	require.NoError(t, err)

	require.Contains(t, out, "BEGIN:VCALENDAR")
	require.Contains(t, out, "SUMMARY:meeting")
	require.Contains(t, out, "SUMMARY:pay rent")
	require.Contains(t, out, "LOCATION:room 101")
	require.Contains(t, out, "END:VCALENDAR")
}

func TestExportICSSkipsZeroStart(t *testing.T) {
	s := memorystorage.New()
	ctx := context.Background()
	broken := storage.Event{Title: "no start"}
	require.NoError(t, s.AddEvent(ctx, &broken))
	ok := storage.Event{Title: "fine", StartTime: time.Date(2025, 11, 15, 14, 0, 0, 0, time.UTC)}
	require.NoError(t, s.AddEvent(ctx, &ok))

	out, err := export.New(s).ICS(ctx)
	require.NoError(t, err)
	require.Contains(t, out, "SUMMARY:fine")
	require.NotContains(t, out, "SUMMARY:no start")
}
