// Package parser turns free-form scheduling phrases into structured
// event drafts. It is rule-based: keyword tables and regular
// expressions, no learned model.
package parser

import (
	"errors"
	"strings"
	"time"

	"github.com/trungtd/schedassist/internal/storage"
)

// ErrNoTemporalSignal means the sentence carried nothing resolvable to
// a start instant. A draft is never produced with a guessed time.
var ErrNoTemporalSignal = errors.New("no resolvable date or time in text")

// Draft is an unpersisted, fully resolved candidate event.
type Draft struct {
	Title        string
	Start        time.Time
	End          *time.Time
	Location     string
	RemindBefore int // minutes
	Cadence      storage.Cadence
	Importance   storage.Importance
}

// LocationTagger is an optional named-entity collaborator. When
// present it is consulted before the rule-based location extraction
// and its first location-tagged span wins.
type LocationTagger interface {
	LocationSpans(text string) []string
}

type Parser struct {
	loc    *time.Location
	tagger LocationTagger
}

func New(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{loc: loc}
}

func (p *Parser) WithLocationTagger(t LocationTagger) *Parser {
	p.tagger = t
	return p
}

// Parse resolves raw into a Draft. Temporal resolution failure fails
// the whole parse; there is no partial draft.
func (p *Parser) Parse(raw string, now time.Time) (Draft, error) {
	if strings.TrimSpace(raw) == "" {
		return Draft{}, ErrNoTemporalSignal
	}
	now = now.In(p.loc)
	profile := NewProfile(raw)

	start, end, err := resolveTemporal(profile, raw, now)
	if err != nil {
		return Draft{}, err
	}

	return Draft{
		Title:        extractTitle(profile, raw),
		Start:        start,
		End:          end,
		Location:     extractLocation(profile, raw, p.tagger),
		RemindBefore: extractRemindBefore(profile.Folded),
		Cadence:      extractCadence(profile.Folded),
		Importance:   extractImportance(profile.Folded),
	}, nil
}

// Event materializes the draft as a storable row with a fresh
// notification state.
func (d Draft) Event() storage.Event {
	next := storage.FloorToMinute(d.Start.Add(-time.Duration(d.RemindBefore) * time.Minute))
	return storage.Event{
		Title:        d.Title,
		StartTime:    d.Start,
		EndTime:      d.End,
		Location:     d.Location,
		RemindBefore: d.RemindBefore,
		Cadence:      d.Cadence,
		Importance:   d.Importance,
		NextNotify:   &next,
	}
}
