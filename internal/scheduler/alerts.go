package scheduler

import (
	"sync"
	"time"

	"github.com/trungtd/schedassist/internal/storage"
)

// Alert is one fired notification as shown to the UI.
type Alert struct {
	Title      string             `json:"title"`
	Time       time.Time          `json:"time"`
	Location   string             `json:"location,omitempty"`
	Importance storage.Importance `json:"importance"`
}

// AlertFeed is a bounded, most-recent-N buffer of fired alerts. The
// engine appends, the UI pulls; no shared global state.
type AlertFeed struct {
	mu    sync.Mutex
	buf   []Alert
	limit int
}

func NewAlertFeed(limit int) *AlertFeed {
	if limit <= 0 {
		limit = 8
	}
	return &AlertFeed{limit: limit}
}

func (f *AlertFeed) Push(a Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf = append(f.buf, a)
	if len(f.buf) > f.limit {
		f.buf = f.buf[len(f.buf)-f.limit:]
	}
}

// Recent returns the buffered alerts, oldest first.
func (f *AlertFeed) Recent() []Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Alert, len(f.buf))
	copy(out, f.buf)
	return out
}
