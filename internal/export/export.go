// Package export renders the stored events as a JSON dump or an
// iCalendar file.
package export

import (
	"context"
	"encoding/json"
	"time"

	ics "github.com/arran4/golang-ical"
	log "github.com/sirupsen/logrus"
	"github.com/trungtd/schedassist/internal/storage"
)

type Exporter struct {
	storage storage.Storage
}

func New(stor storage.Storage) *Exporter {
	return &Exporter{storage: stor}
}

func (x *Exporter) JSON(ctx context.Context) ([]byte, error) {
	events, err := x.storage.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(events, "", "  ")
}

// ICS serializes the events as a VCALENDAR. Events without a usable
// start instant are skipped rather than aborting the export.
func (x *Exporter) ICS(ctx context.Context) (string, error) {
	events, err := x.storage.ListEvents(ctx)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	for _, e := range events {
		if e.StartTime.IsZero() {
			log.Warnf("skipping event %q in ICS export: no start time", e.ID)
			continue
		}
		ve := cal.AddEvent(e.ID)
		ve.SetSummary(e.Title)
		ve.SetDtStampTime(time.Now())
		ve.SetStartAt(e.StartTime)
		if e.EndTime != nil {
			ve.SetEndAt(*e.EndTime)
		}
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
	}
	return cal.Serialize(), nil
}
