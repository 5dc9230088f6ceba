package parser

import (
	"regexp"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/trungtd/schedassist/internal/storage"
)

// How far in the past a resolved start may sit before the roll-to-next-day
// correction kicks in. Covers phrases typed a moment after the instant they
// name has passed.
const pastTolerance = 5 * time.Second

var (
	relOffsetInRe   = regexp.MustCompile(`\bin (\d+) (minute|hour)s?\b`)
	relOffsetFromRe = regexp.MustCompile(`\b(\d+) (minute|hour)s? from now\b`)
	relOffsetViRe   = regexp.MustCompile(`\b(\d+) (phut|gio|h) nua\b`)

	explicitDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	inDaysRe       = regexp.MustCompile(`\b(?:in (\d+) days?|(\d+) days? from now|(\d+) ngay nua)\b`)

	clockRe    = regexp.MustCompile(`\b(\d{1,2})\s*(?:[:h]|gio)\s*(\d{1,2})\b`)
	hourOnlyRe = regexp.MustCompile(`\b(\d{1,2})\s*(?:h|gio)\b`)
	rangeRe    = regexp.MustCompile(`\b(\d{1,2})\s*(?:[:h]|gio)\s*(\d{0,2})\s*-\s*(\d{1,2})(?:\s*(?:[:h]|gio)\s*(\d{0,2}))?\b`)

	morningRe = regexp.MustCompile(`\b(?:morning|am|sang)\b`)
	middayRe  = regexp.MustCompile(`\b(?:noon|midday|trua)\b`)
	// Bare "toi" is ambiguous once diacritics are folded ("tối" evening vs
	// "tôi" me), so only compound forms count as an evening marker.
	eveningRe = regexp.MustCompile(`\b(?:afternoon|evening|tonight|night|pm|chieu|buoi toi|toi nay|toi mai|dem|khuya)\b`)

	allDayRe = regexp.MustCompile(`\b(?:all day|ca ngay)\b`)
)

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
	"thu 2":     time.Monday,
	"thu 3":     time.Tuesday,
	"thu 4":     time.Wednesday,
	"thu 5":     time.Thursday,
	"thu 6":     time.Friday,
	"thu 7":     time.Saturday,
	"chu nhat":  time.Sunday,
}

var weekdayRes = func() []struct {
	re *regexp.Regexp
	wd time.Weekday
} {
	out := make([]struct {
		re *regexp.Regexp
		wd time.Weekday
	}, 0, len(weekdayNames))
	for name, wd := range weekdayNames {
		out = append(out, struct {
			re *regexp.Regexp
			wd time.Weekday
		}{regexp.MustCompile(`\b` + name + `\b`), wd})
	}
	return out
}()

// Extended relative-date phrases, evaluated before the plain keywords.
var extendedDateRes = []struct {
	re      *regexp.Regexp
	resolve func(today time.Time) time.Time
}{
	{regexp.MustCompile(`\b(?:next week|tuan sau|tuan toi)\b`), func(today time.Time) time.Time {
		return today.AddDate(0, 0, 7)
	}},
	{regexp.MustCompile(`\b(?:end of (?:the )?week|(?:next )?weekend|cuoi tuan)\b`), func(today time.Time) time.Time {
		return nextWeekday(today, time.Sunday)
	}},
	{regexp.MustCompile(`\b(?:start of (?:the )?week|beginning of (?:the )?week|dau tuan)\b`), func(today time.Time) time.Time {
		return nextWeekday(today, time.Monday)
	}},
	{regexp.MustCompile(`\b(?:next month|thang sau|thang toi)\b`), func(today time.Time) time.Time {
		return storage.AddMonthClamped(today)
	}},
}

// Longest phrases first: "day after tomorrow" contains "tomorrow".
var plainDateRes = []struct {
	re   *regexp.Regexp
	days int
}{
	{regexp.MustCompile(`\b(?:day after tomorrow|ngay mot)\b`), 2},
	{regexp.MustCompile(`\b(?:tomorrow|ngay mai|mai)\b`), 1},
	{regexp.MustCompile(`\b(?:today|hom nay)\b`), 0},
}

type daySegment int

const (
	segmentNone daySegment = iota
	segmentMorning
	segmentMidday
	segmentEvening
)

// Vague time-of-day phrases that supply a default clock time when no
// explicit one is present.
var vagueTimeRes = []struct {
	re   *regexp.Regexp
	hour int
}{
	{regexp.MustCompile(`\b(?:around |in the |buoi )?afternoon\b`), 15},
	{regexp.MustCompile(`\b(?:around |in the |buoi )?(?:evening|tonight)\b`), 19},
	{regexp.MustCompile(`\bbuoi chieu\b`), 15},
	{regexp.MustCompile(`\bbuoi toi\b`), 19},
	{regexp.MustCompile(`\b(?:noon|midday|trua)\b`), 12},
}

// resolveTemporal turns the folded sentence into a concrete start (and
// optional end) instant. The raw sentence is kept around for the
// general-purpose fallback parse. Returns ErrNoTemporalSignal when the
// sentence carries no usable date or time signal at all.
func resolveTemporal(p Profile, raw string, now time.Time) (time.Time, *time.Time, error) {
	text := p.Folded

	if d, ok := extractRelativeOffset(text); ok {
		start := now.Add(d)
		end := extractRangeEnd(text, start)
		return start, end, nil
	}

	datePart, explicitDate, dateFound := extractDate(text, now)

	hour, minute, timeFound := extractClockTime(text)
	segment := detectSegment(text)
	if timeFound {
		hour = applySegment(hour, segment)
	} else {
		if h, ok := extractVagueTime(text); ok {
			hour, minute, timeFound = h, 0, true
		} else if allDayRe.MatchString(text) && dateFound {
			hour, minute, timeFound = 9, 0, true
		}
	}

	var start time.Time
	switch {
	case timeFound:
		start = time.Date(datePart.Year(), datePart.Month(), datePart.Day(), hour, minute, 0, 0, now.Location())
	case dateFound:
		// date signal without any clock time: default to 09:00
		start = time.Date(datePart.Year(), datePart.Month(), datePart.Day(), 9, 0, 0, 0, now.Location())
	default:
		parsed, err := dateparse.ParseIn(raw, now.Location())
		if err != nil {
			return time.Time{}, nil, ErrNoTemporalSignal
		}
		start = parsed
		explicitDate = true
	}

	if !explicitDate && start.Before(now.Add(-pastTolerance)) {
		start = start.AddDate(0, 0, 1)
	}

	return start, extractRangeEnd(text, start), nil
}

func extractRelativeOffset(text string) (time.Duration, bool) {
	for _, re := range []*regexp.Regexp{relOffsetInRe, relOffsetFromRe, relOffsetViRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "hour", "gio", "h":
			return time.Duration(n) * time.Hour, true
		default:
			return time.Duration(n) * time.Minute, true
		}
	}
	return 0, false
}

// extractDate resolves the date part of the sentence. The second return
// value reports an explicit full date (dd/mm), which disables the
// past-time correction. When nothing matches, the date defaults to
// today and the third return value is false.
func extractDate(text string, now time.Time) (time.Time, bool, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if m := explicitDateRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		// reject impossible dates such as 31/02
		if d.Day() == day && d.Month() == time.Month(month) {
			return d, true, true
		}
	}

	for _, w := range weekdayRes {
		if w.re.MatchString(text) {
			return nextWeekday(today, w.wd), false, true
		}
	}

	for _, e := range extendedDateRes {
		if e.re.MatchString(text) {
			return e.resolve(today), false, true
		}
	}

	for _, p := range plainDateRes {
		if p.re.MatchString(text) {
			return today.AddDate(0, 0, p.days), false, true
		}
	}

	if m := inDaysRe.FindStringSubmatch(text); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				n, _ := strconv.Atoi(g)
				return today.AddDate(0, 0, n), false, true
			}
		}
	}

	return today, false, false
}

// nextWeekday finds the next occurrence of wd strictly after today:
// when today already is wd, the result is a full week ahead.
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}

func extractClockTime(text string) (int, int, bool) {
	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour <= 23 && minute <= 59 {
			return hour, minute, true
		}
	}
	if m := hourOnlyRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour <= 23 {
			return hour, 0, true
		}
	}
	return 0, 0, false
}

func detectSegment(text string) daySegment {
	switch {
	case morningRe.MatchString(text):
		return segmentMorning
	case middayRe.MatchString(text):
		return segmentMidday
	case eveningRe.MatchString(text):
		return segmentEvening
	}
	return segmentNone
}

// applySegment disambiguates a 12-hour clock reading using the
// day-segment words found in the sentence.
func applySegment(hour int, segment daySegment) int {
	switch segment {
	case segmentMorning:
		if hour == 12 {
			return 0
		}
	case segmentMidday:
		if hour < 12 {
			return 12
		}
	case segmentEvening:
		if hour < 12 {
			return hour + 12
		}
	}
	return hour
}

func extractVagueTime(text string) (int, bool) {
	for _, v := range vagueTimeRes {
		if v.re.MatchString(text) {
			return v.hour, true
		}
	}
	return 0, false
}

// extractRangeEnd picks up a second clock time after a dash and places
// it on the start's date.
func extractRangeEnd(text string, start time.Time) *time.Time {
	m := rangeRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	hour, _ := strconv.Atoi(m[3])
	minute := 0
	if m[4] != "" {
		minute, _ = strconv.Atoi(m[4])
	}
	if hour > 23 || minute > 59 {
		return nil
	}
	if hour < 12 && hour < start.Hour() {
		// "10h - 1h" style ranges cross noon
		hour += 12
	}
	end := time.Date(start.Year(), start.Month(), start.Day(), hour, minute, 0, 0, start.Location())
	return &end
}
