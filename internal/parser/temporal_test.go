package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testLoc = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		panic(err)
	}
	return loc
}()

// 2025-01-01 is a Wednesday.
func testNow() time.Time {
	return time.Date(2025, 1, 1, 10, 0, 0, 0, testLoc)
}

func resolve(t *testing.T, raw string, now time.Time) (time.Time, *time.Time) {
	t.Helper()
	start, end, err := resolveTemporal(NewProfile(raw), raw, now)
	require.NoError(t, err)
	return start, end
}

func TestResolveRelativeOffset(t *testing.T) {
	now := testNow()

	start, end := resolve(t, "in 5 minutes call mom", now)
	require.Equal(t, now.Add(5*time.Minute), start)
	require.Nil(t, end)

	start, _ = resolve(t, "2 hours from now check the oven", now)
	require.Equal(t, now.Add(2*time.Hour), start)

	start, _ = resolve(t, "30 phut nua di don con", now)
	require.Equal(t, now.Add(30*time.Minute), start)
}

func TestResolveExplicitDate(t *testing.T) {
	now := testNow()

	start, _ := resolve(t, "meeting 15/11/2025 14:00", now)
	require.Equal(t, time.Date(2025, 11, 15, 14, 0, 0, 0, testLoc), start)

	t.Run("two-digit year is 20xx", func(t *testing.T) {
		start, _ := resolve(t, "trip 5/3/26 8:00", now)
		require.Equal(t, time.Date(2026, 3, 5, 8, 0, 0, 0, testLoc), start)
	})

	t.Run("no past correction for explicit dates", func(t *testing.T) {
		start, _ := resolve(t, "review 1/1/2020 9:00", now)
		require.Equal(t, time.Date(2020, 1, 1, 9, 0, 0, 0, testLoc), start)
	})
}

func TestResolveWeekday(t *testing.T) {
	now := testNow()

	start, _ := resolve(t, "gym monday 18:00", now)
	require.Equal(t, time.Date(2025, 1, 6, 18, 0, 0, 0, testLoc), start)

	t.Run("same weekday rolls a full week", func(t *testing.T) {
		start, _ := resolve(t, "checkup wednesday 9:00", now)
		require.Equal(t, time.Date(2025, 1, 8, 9, 0, 0, 0, testLoc), start)
	})

	t.Run("degraded weekday form", func(t *testing.T) {
		start, _ := resolve(t, "hop thu 6 luc 14:00", now)
		require.Equal(t, time.Date(2025, 1, 3, 14, 0, 0, 0, testLoc), start)
	})
}

func TestResolveKeywordDates(t *testing.T) {
	now := testNow()
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"today", "dentist today 16:00", time.Date(2025, 1, 1, 16, 0, 0, 0, testLoc)},
		{"tomorrow", "standup tomorrow 9:15", time.Date(2025, 1, 2, 9, 15, 0, 0, testLoc)},
		{"day after tomorrow", "flight day after tomorrow 6:00", time.Date(2025, 1, 3, 6, 0, 0, 0, testLoc)},
		{"degraded day after tomorrow", "hop ngay mot 15:00", time.Date(2025, 1, 3, 15, 0, 0, 0, testLoc)},
		{"in n days", "renewal in 10 days 11:00", time.Date(2025, 1, 11, 11, 0, 0, 0, testLoc)},
		{"next week", "demo next week 14:00", time.Date(2025, 1, 8, 14, 0, 0, 0, testLoc)},
		{"end of week is next sunday", "trip end of week 8:00", time.Date(2025, 1, 5, 8, 0, 0, 0, testLoc)},
		{"next weekend is next sunday", "party next weekend 19:00", time.Date(2025, 1, 5, 19, 0, 0, 0, testLoc)},
		{"bare weekend", "hiking weekend 7:00", time.Date(2025, 1, 5, 7, 0, 0, 0, testLoc)},
		{"start of week is next monday", "planning start of week 9:00", time.Date(2025, 1, 6, 9, 0, 0, 0, testLoc)},
		{"next month", "rent next month 8:00", time.Date(2025, 2, 1, 8, 0, 0, 0, testLoc)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, _ := resolve(t, tc.raw, now)
			require.Equal(t, tc.want, start)
		})
	}

	t.Run("next month clamps to 28", func(t *testing.T) {
		now := time.Date(2025, 1, 31, 10, 0, 0, 0, testLoc)
		start, _ := resolve(t, "rent next month 8:00", now)
		require.Equal(t, time.Date(2025, 2, 28, 8, 0, 0, 0, testLoc), start)
	})
}

func TestResolveTimeOfDay(t *testing.T) {
	now := testNow()

	t.Run("hour only with h marker", func(t *testing.T) {
		start, _ := resolve(t, "dinner tomorrow 18h", now)
		require.Equal(t, time.Date(2025, 1, 2, 18, 0, 0, 0, testLoc), start)
	})

	t.Run("evening segment adds twelve", func(t *testing.T) {
		start, _ := resolve(t, "gap Tung 7h toi mai", now)
		require.Equal(t, time.Date(2025, 1, 2, 19, 0, 0, 0, testLoc), start)
	})

	t.Run("morning segment keeps the hour", func(t *testing.T) {
		start, _ := resolve(t, "hop 10h sang mai", now)
		require.Equal(t, time.Date(2025, 1, 2, 10, 0, 0, 0, testLoc), start)
	})

	t.Run("morning twelve is midnight", func(t *testing.T) {
		start, _ := resolve(t, "fireworks tomorrow 12h sang", now)
		require.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, testLoc), start)
	})

	t.Run("midday forces twelve", func(t *testing.T) {
		start, _ := resolve(t, "lunch tomorrow 11h trua", now)
		require.Equal(t, time.Date(2025, 1, 2, 12, 0, 0, 0, testLoc), start)
	})

	t.Run("vague afternoon", func(t *testing.T) {
		start, _ := resolve(t, "coffee tomorrow around afternoon", now)
		require.Equal(t, time.Date(2025, 1, 2, 15, 0, 0, 0, testLoc), start)
	})

	t.Run("vague evening", func(t *testing.T) {
		start, _ := resolve(t, "dinner tomorrow around evening", now)
		require.Equal(t, time.Date(2025, 1, 2, 19, 0, 0, 0, testLoc), start)
	})

	t.Run("all day defaults to nine", func(t *testing.T) {
		start, _ := resolve(t, "sinh nhat Lan ngay mai ca ngay", now)
		require.Equal(t, time.Date(2025, 1, 2, 9, 0, 0, 0, testLoc), start)
	})
}

func TestResolvePastCorrection(t *testing.T) {
	now := testNow() // 10:00

	t.Run("bare clock time already passed rolls to tomorrow", func(t *testing.T) {
		start, _ := resolve(t, "standup 8:00", now)
		require.Equal(t, time.Date(2025, 1, 2, 8, 0, 0, 0, testLoc), start)
	})

	t.Run("bare clock time later today stays today", func(t *testing.T) {
		start, _ := resolve(t, "standup 17:00", now)
		require.Equal(t, time.Date(2025, 1, 1, 17, 0, 0, 0, testLoc), start)
	})
}

func TestResolveTimeRange(t *testing.T) {
	now := testNow()

	start, end := resolve(t, "workshop 15/11/2025 14:00 - 15:30", now)
	require.Equal(t, time.Date(2025, 11, 15, 14, 0, 0, 0, testLoc), start)
	require.NotNil(t, end)
	require.Equal(t, time.Date(2025, 11, 15, 15, 30, 0, 0, testLoc), *end)
}

func TestResolveNoSignal(t *testing.T) {
	for _, raw := range []string{"buy some milk", "hello there"} {
		_, _, err := resolveTemporal(NewProfile(raw), raw, testNow())
		require.ErrorIs(t, err, ErrNoTemporalSignal)
	}
}
