package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Profile carries the two normalization variants used by the
// extractors. Exact keeps diacritics, Folded is the ASCII-degraded
// form. Both go through the same Normalize pipeline.
type Profile struct {
	Exact  string
	Folded string
}

func NewProfile(raw string) Profile {
	return Profile{
		Exact:  Normalize(raw),
		Folded: Normalize(foldDiacritics(raw)),
	}
}

// Phrases the numeral pass would corrupt: "ngay mot" is
// day-after-tomorrow but "mot" alone is the numeral one; "sau" in
// "tuan sau"/"thang sau" is six. They are swapped for placeholders
// before the token passes and restored afterwards.
var protectedPhrases = []string{
	"ngày mốt",
	"ngay mot",
	"tuần sau",
	"tuan sau",
	"tháng sau",
	"thang sau",
}

// Abbreviations and degraded spellings expanded to canonical words.
// Matched longest-first so "tues" never decays into "tue"+"s".
var shorthand = map[string]string{
	"tmrw":  "tomorrow",
	"tmr":   "tomorrow",
	"2moro": "tomorrow",
	"mins":  "minutes",
	"min":   "minutes",
	"hrs":   "hours",
	"hr":    "hours",
	"mon":   "monday",
	"tues":  "tuesday",
	"tue":   "tuesday",
	"wed":   "wednesday",
	"thurs": "thursday",
	"thur":  "thursday",
	"fri":   "friday",
	"sat":   "saturday",
	"sun":   "sunday",
	"t2":    "thu 2",
	"t3":    "thu 3",
	"t4":    "thu 4",
	"t5":    "thu 5",
	"t6":    "thu 6",
	"t7":    "thu 7",
	"cn":    "chu nhat",
}

// Spelled-out numerals. Two-word forms ("twenty five") are generated
// first so they match before their leading word alone.
var wordNumbers = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
	"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
	"eighteen": 18, "nineteen": 19, "twenty": 20, "thirty": 30,
	// degraded Vietnamese digits; "thu nam" becomes "thu 5" here,
	// which is exactly the weekday form the resolver expects
	"mot": 1, "hai": 2, "ba": 3, "tu": 4, "bon": 4, "nam": 5,
	"sau": 6, "bay": 7, "tam": 8, "chin": 9, "muoi": 10,
}

type replacement struct {
	re *regexp.Regexp
	to string
}

var (
	shorthandRules []replacement
	numberRules    []replacement

	timeDotRe    = regexp.MustCompile(`(\d)\.(\d)`)
	punctRe      = regexp.MustCompile(`[,;()]`)
	dashRe       = regexp.MustCompile(`[–—]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func init() {
	froms := make([]string, 0, len(shorthand))
	for from := range shorthand {
		froms = append(froms, from)
	}
	sort.Slice(froms, func(i, j int) bool { return len(froms[i]) > len(froms[j]) })
	for _, from := range froms {
		shorthandRules = append(shorthandRules, replacement{
			re: regexp.MustCompile(`\b` + regexp.QuoteMeta(from) + `\b`),
			to: shorthand[from],
		})
	}

	type pair struct {
		word string
		n    int
	}
	pairs := make([]pair, 0, len(wordNumbers)*4)
	for word, n := range wordNumbers {
		pairs = append(pairs, pair{word, n})
	}
	for _, tens := range []pair{{"twenty", 20}, {"thirty", 30}} {
		for word, n := range wordNumbers {
			if n >= 1 && n <= 9 {
				pairs = append(pairs, pair{tens.word + " " + word, tens.n + n})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return len(pairs[i].word) > len(pairs[j].word) })
	for _, p := range pairs {
		numberRules = append(numberRules, replacement{
			re: regexp.MustCompile(`\b` + regexp.QuoteMeta(p.word) + `\b`),
			to: fmt.Sprintf("%d", p.n),
		})
	}
}

// Normalize lowercases, expands shorthand and spelled-out numerals,
// and unifies punctuation. Pure and idempotent.
func Normalize(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))

	var restored []string
	for _, phrase := range protectedPhrases {
		for strings.Contains(t, phrase) {
			placeholder := fmt.Sprintf("\x00%d\x00", len(restored))
			t = strings.Replace(t, phrase, placeholder, 1)
			restored = append(restored, phrase)
		}
	}

	for _, r := range shorthandRules {
		t = r.re.ReplaceAllString(t, r.to)
	}
	for _, r := range numberRules {
		t = r.re.ReplaceAllString(t, r.to)
	}

	t = timeDotRe.ReplaceAllString(t, "$1:$2")
	t = dashRe.ReplaceAllString(t, "-")
	t = punctRe.ReplaceAllString(t, " ")
	t = whitespaceRe.ReplaceAllString(t, " ")

	for i, phrase := range restored {
		t = strings.Replace(t, fmt.Sprintf("\x00%d\x00", i), phrase, 1)
	}
	return strings.TrimSpace(t)
}

var diacriticFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'ả': 'a', 'ã': 'a', 'ạ': 'a',
	'ă': 'a', 'ằ': 'a', 'ắ': 'a', 'ẳ': 'a', 'ẵ': 'a', 'ặ': 'a',
	'â': 'a', 'ầ': 'a', 'ấ': 'a', 'ẩ': 'a', 'ẫ': 'a', 'ậ': 'a',
	'è': 'e', 'é': 'e', 'ẻ': 'e', 'ẽ': 'e', 'ẹ': 'e',
	'ê': 'e', 'ề': 'e', 'ế': 'e', 'ể': 'e', 'ễ': 'e', 'ệ': 'e',
	'ì': 'i', 'í': 'i', 'ỉ': 'i', 'ĩ': 'i', 'ị': 'i',
	'ò': 'o', 'ó': 'o', 'ỏ': 'o', 'õ': 'o', 'ọ': 'o',
	'ô': 'o', 'ồ': 'o', 'ố': 'o', 'ổ': 'o', 'ỗ': 'o', 'ộ': 'o',
	'ơ': 'o', 'ờ': 'o', 'ớ': 'o', 'ở': 'o', 'ỡ': 'o', 'ợ': 'o',
	'ù': 'u', 'ú': 'u', 'ủ': 'u', 'ũ': 'u', 'ụ': 'u',
	'ư': 'u', 'ừ': 'u', 'ứ': 'u', 'ử': 'u', 'ữ': 'u', 'ự': 'u',
	'ỳ': 'y', 'ý': 'y', 'ỷ': 'y', 'ỹ': 'y', 'ỵ': 'y',
	'đ': 'd',
}

func foldDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if folded, ok := diacriticFold[r]; ok {
			b.WriteRune(folded)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
