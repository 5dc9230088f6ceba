package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/trungtd/schedassist/internal/storage"
)

// DefaultRemindBefore is the lead time, in minutes, used when the
// sentence carries no reminder phrase.
const DefaultRemindBefore = 15

var (
	reminderRe = regexp.MustCompile(
		`\b(?:remind(?: me)?(?: before)?|nhac(?: nho)?(?: toi)?(?: truoc)?)\s*(\d+)\s*` +
			`(minutes?|phut|ph|p|hours?|gio|h|days?|ngay)\b(?:\s+(?:before|truoc))?`)

	everyNRe   = regexp.MustCompile(`\b(?:every|moi) (\d+) (minute|phut|hour|gio|day|ngay|week|tuan|month|thang)s?\b`)
	dailyRe    = regexp.MustCompile(`\b(?:daily|every ?day|hang ngay|moi ngay)\b`)
	weeklyRe   = regexp.MustCompile(`\b(?:weekly|every week|hang tuan|moi tuan)\b`)
	monthlyRe  = regexp.MustCompile(`\b(?:monthly|every month|hang thang|moi thang)\b`)
	importRe   = regexp.MustCompile(`\b(?:important|quan trong)\b`)
	// "gap" is deliberately absent: folded it covers both "gấp"
	// (urgent) and "gặp" (meet).
	criticalRe = regexp.MustCompile(`\b(?:critical|urgent|khan cap|khan)\b`)

	locPrepRe = regexp.MustCompile(`\b(?:at|in|o|tai) ([a-z][a-z0-9 ]*)`)
	locRoomRe = regexp.MustCompile(`\b((?:room|phong) ?[a-z0-9]+)\b`)

	intentRe = regexp.MustCompile(
		`\b(?:remind me to|i (?:want|need|plan|have) to|we (?:want|need|plan|have) to|` +
			`let'?s|please create|plan to|nho toi|nhac toi|giup toi)\s+([a-z].*)$`)

	// A prepositional capture stops at punctuation, so a following
	// "19:00" leaves a bare "19" on the candidate.
	locTrailingNumRe = regexp.MustCompile(`(?:\s+\d+)+$`)

	atTimeMarkerRe = regexp.MustCompile(`\b(?:at \d|luc |vao luc |vao ).*$`)
	fillerWordsRe  = regexp.MustCompile(`\s*\b(?:please|okay|ok|nhe|nha|nhé|giup|gium|thanks?)\b\s*$`)
	edgePronounRe  = regexp.MustCompile(`^(?:i|we|you|me|my|to|a|an|the)\b\s*|\s*\b(?:i|we|you|me|my|to)$`)
)

// Words that make a captured prepositional phrase temporal rather than
// a place ("in the afternoon", "at noon").
var temporalLeadWords = map[string]struct{}{
	"noon": {}, "midday": {}, "morning": {}, "afternoon": {}, "evening": {},
	"night": {}, "tonight": {}, "today": {}, "tomorrow": {}, "least": {},
	"sang": {}, "trua": {}, "chieu": {}, "toi": {}, "dem": {}, "khuya": {},
	"hom": {}, "ngay": {}, "mai": {}, "thu": {}, "chu": {}, "tuan": {}, "thang": {},
}

// Keywords that terminate a free-text capture (title or location).
var boundaryRes = []*regexp.Regexp{
	regexp.MustCompile(`\bremind\b`),
	regexp.MustCompile(`\bnhac\b`),
	regexp.MustCompile(`\bevery\b`),
	regexp.MustCompile(`\bmoi\b`),
	regexp.MustCompile(`\bhang (?:ngay|tuan|thang)\b`),
	regexp.MustCompile(`\bdaily\b|\bweekly\b|\bmonthly\b`),
	regexp.MustCompile(`\bat \d`),
	regexp.MustCompile(`\bluc\b`),
	regexp.MustCompile(`\bvao\b`),
	regexp.MustCompile(`\btai\b`),
	regexp.MustCompile(`\broom\b|\bphong\b`),
	regexp.MustCompile(`\bimportant\b|\bcritical\b|\burgent\b|\bquan trong\b|\bkhan\b`),
	clockRe,
	hourOnlyRe,
	explicitDateRe,
	regexp.MustCompile(`\b(?:today|tomorrow|day after tomorrow|next week|next month|end of (?:the )?week|` +
		`start of (?:the )?week|(?:next )?weekend|hom nay|ngay mai|mai|ngay mot|tuan sau|thang sau|cuoi tuan|dau tuan)\b`),
	regexp.MustCompile(`\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|thu \d|chu nhat)\b`),
	regexp.MustCompile(`\b(?:morning|noon|midday|afternoon|evening|tonight|night|sang|trua|chieu|dem|khuya)\b`),
	regexp.MustCompile(`\bin \d+ (?:minute|hour|day)s?\b`),
	regexp.MustCompile(`\d+ (?:minute|hour|day)s? from now\b`),
}

// extractRemindBefore finds the "remind N unit" phrase and converts it
// to whole minutes.
func extractRemindBefore(text string) int {
	m := reminderRe.FindStringSubmatch(text)
	if m == nil {
		return DefaultRemindBefore
	}
	n, _ := strconv.Atoi(m[1])
	switch {
	case strings.HasPrefix(m[2], "day"), m[2] == "ngay":
		return n * 24 * 60
	case strings.HasPrefix(m[2], "hour"), m[2] == "gio", m[2] == "h":
		return n * 60
	default:
		return n
	}
}

func extractCadence(text string) storage.Cadence {
	if m := everyNRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n > 0 {
			var unit storage.CadenceUnit
			switch m[2] {
			case "minute", "phut":
				unit = storage.UnitMinute
			case "hour", "gio":
				unit = storage.UnitHour
			case "day", "ngay":
				unit = storage.UnitDay
			case "week", "tuan":
				unit = storage.UnitWeek
			case "month", "thang":
				unit = storage.UnitMonth
			}
			return storage.Cadence{Kind: storage.CadenceEvery, N: n, Unit: unit}
		}
	}
	switch {
	case dailyRe.MatchString(text):
		return storage.Cadence{Kind: storage.CadenceDaily}
	case weeklyRe.MatchString(text):
		return storage.Cadence{Kind: storage.CadenceWeekly}
	case monthlyRe.MatchString(text):
		return storage.Cadence{Kind: storage.CadenceMonthly}
	}
	return storage.Cadence{}
}

// extractImportance defaults to normal; critical is checked after
// important so a sentence naming both resolves to critical.
func extractImportance(text string) storage.Importance {
	importance := storage.ImportanceNormal
	if importRe.MatchString(text) {
		importance = storage.ImportanceImportant
	}
	if criticalRe.MatchString(text) {
		importance = storage.ImportanceCritical
	}
	return importance
}

// extractLocation looks for a prepositional phrase, falling back to a
// bare "room N" mention. The returned span keeps the raw casing.
func extractLocation(p Profile, raw string, tagger LocationTagger) string {
	if tagger != nil {
		if spans := tagger.LocationSpans(p.Exact); len(spans) > 0 {
			return strings.TrimSpace(spans[0])
		}
	}

	for _, text := range []string{p.Folded, p.Exact} {
		for _, m := range locPrepRe.FindAllStringSubmatch(text, -1) {
			cand := trimFillers(truncateAtBoundary(m[1]))
			cand = locTrailingNumRe.ReplaceAllString(cand, "")
			cand = strings.TrimSpace(strings.TrimPrefix(cand, "the "))
			if cand == "" || cand == "the" {
				continue
			}
			first := strings.SplitN(cand, " ", 2)[0]
			if _, temporal := temporalLeadWords[first]; temporal {
				continue
			}
			if span, ok := recoverSpan(raw, cand); ok {
				return span
			}
			return cand
		}
	}

	if m := locRoomRe.FindStringSubmatch(p.Folded); m != nil {
		if span, ok := recoverSpan(raw, m[1]); ok {
			return span
		}
		return m[1]
	}
	return ""
}

// extractTitle runs the two-stage title heuristic: intent-pattern
// capture first, keyword stripping as the fallback. The result is
// mapped back onto the raw sentence to keep its casing.
func extractTitle(p Profile, raw string) string {
	if title := intentTitle(p.Folded); title != "" {
		return finishTitle(title, raw)
	}

	text := p.Folded
	text = intentRe.ReplaceAllString(text, "$1")
	text = reminderRe.ReplaceAllString(text, " ")
	text = everyNRe.ReplaceAllString(text, " ")
	text = atTimeMarkerRe.ReplaceAllString(text, " ")
	text = locPrepRe.ReplaceAllString(text, " ")
	text = locRoomRe.ReplaceAllString(text, " ")
	for _, re := range boundaryRes {
		text = re.ReplaceAllString(text, " ")
	}
	text = relOffsetInRe.ReplaceAllString(text, " ")
	text = relOffsetFromRe.ReplaceAllString(text, " ")
	text = relOffsetViRe.ReplaceAllString(text, " ")
	text = strings.NewReplacer("-", " ", ":", " ", "/", " ").Replace(text)
	text = regexp.MustCompile(`\b\d+\b`).ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	title := strings.TrimSpace(text)
	if title == "" {
		return "Event"
	}
	return finishTitle(title, raw)
}

func intentTitle(text string) string {
	m := intentRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(truncateAtBoundary(m[1]))
}

func finishTitle(title, raw string) string {
	title = strings.TrimSpace(edgePronounRe.ReplaceAllString(title, ""))
	title = trimFillers(title)
	if title == "" {
		return "Event"
	}
	if span, ok := recoverSpan(raw, title); ok {
		return span
	}
	return title
}

// truncateAtBoundary cuts the capture at the earliest boundary keyword.
func truncateAtBoundary(s string) string {
	cut := len(s)
	for _, re := range boundaryRes {
		if loc := re.FindStringIndex(s); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	return strings.TrimSpace(s[:cut])
}

func trimFillers(s string) string {
	for {
		trimmed := strings.TrimSpace(fillerWordsRe.ReplaceAllString(s, ""))
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// recoverSpan finds needle (a folded, lowercased fragment) inside raw
// and returns the matching span with its original casing and
// diacritics. Normalization can rewrite tokens, so absence is fine.
func recoverSpan(raw, needle string) (string, bool) {
	if needle == "" {
		return "", false
	}
	var folded []rune
	var offsets []int // byte offset in raw for each folded rune
	for i, r := range strings.ToLower(raw) {
		if f, ok := diacriticFold[r]; ok {
			r = f
		}
		folded = append(folded, r)
		offsets = append(offsets, i)
	}
	idx := strings.Index(string(folded), needle)
	if idx < 0 {
		return "", false
	}
	// idx is a byte offset into the folded string; convert to rune index
	runeIdx := len([]rune(string(folded)[:idx]))
	endRune := runeIdx + len([]rune(needle))
	if endRune > len(offsets) {
		return "", false
	}
	start := offsets[runeIdx]
	var end int
	if endRune == len(offsets) {
		end = len(raw)
	} else {
		end = offsets[endRune]
	}
	if start > len(raw) || end > len(raw) || start >= end {
		return "", false
	}
	return raw[start:end], true
}
