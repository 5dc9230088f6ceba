package internalhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/trungtd/schedassist/internal/app"
	"github.com/trungtd/schedassist/internal/export"
	"github.com/trungtd/schedassist/internal/parser"
	"github.com/trungtd/schedassist/internal/scheduler"
	"github.com/trungtd/schedassist/internal/storage"
)

type Config struct {
	Host string
	Port int
}

type Server struct {
	srv      *http.Server
	addr     string
	app      *app.App
	engine   *scheduler.Engine
	exporter *export.Exporter
}

func NewServer(config Config, a *app.App, engine *scheduler.Engine, exporter *export.Exporter) *Server {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	s := &Server{
		addr:     addr,
		app:      a,
		engine:   engine,
		exporter: exporter,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/events/", s.handleEvent)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/export/json", s.handleExportJSON)
	mux.HandleFunc("/export/ics", s.handleExportICS)
	s.srv = &http.Server{Addr: addr, Handler: loggingMiddleware(mux)}
	return s
}

func (s *Server) Start(_ context.Context) error {
	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// eventRequest is the create/edit body: either a free-form phrase or a
// structured draft.
type eventRequest struct {
	Text         string          `json:"text"`
	Title        string          `json:"title"`
	StartTime    *time.Time      `json:"startTime"`
	EndTime      *time.Time      `json:"endTime"`
	Location     string          `json:"location"`
	RemindBefore *int            `json:"remindBefore"`
	Cadence      storage.Cadence `json:"cadence"`
	Importance   string          `json:"importance"`
}

func (r eventRequest) draft(p *parser.Parser) (parser.Draft, error) {
	if r.Text != "" {
		return p.Parse(r.Text, time.Now())
	}
	if r.StartTime == nil {
		return parser.Draft{}, errEmptyStart
	}
	draft := parser.Draft{
		Title:        r.Title,
		Start:        *r.StartTime,
		End:          r.EndTime,
		Location:     r.Location,
		RemindBefore: parser.DefaultRemindBefore,
		Cadence:      r.Cadence,
		Importance:   storage.Importance(r.Importance),
	}
	if draft.Title == "" {
		draft.Title = "Event"
	}
	if r.RemindBefore != nil {
		draft.RemindBefore = *r.RemindBefore
	}
	return draft, nil
}

var errEmptyStart = errors.New("either text or startTime must be provided")

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		events, err := s.app.ListEvents(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	case http.MethodPost:
		var req eventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		draft, err := req.draft(s.app.Parser)
		if err != nil {
			writeError(w, err)
			return
		}
		e, err := s.app.CreateEvent(r.Context(), draft)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/events/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "event id is required", http.StatusBadRequest)
		return
	}
	if len(parts) > 2 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	id := parts[0]

	if len(parts) == 2 {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var err error
		switch parts[1] {
		case "stop":
			err = s.app.StopEvent(r.Context(), id)
		case "resume":
			err = s.app.ResumeEvent(r.Context(), id)
		case "ack":
			err = s.app.AcknowledgeEvent(r.Context(), id)
		default:
			http.Error(w, "unknown action", http.StatusNotFound)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, err := s.app.GetEvent(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	case http.MethodPut:
		var req eventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		draft, err := req.draft(s.app.Parser)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.app.EditEvent(r.Context(), id, draft); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := s.app.RemoveEvent(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Alerts())
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := s.exporter.JSON(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := s.exporter.ICS(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	w.Write([]byte(data))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, parser.ErrNoTemporalSignal):
		http.Error(w, "could not find a date or time in the text, please rephrase or enter the event manually",
			http.StatusUnprocessableEntity)
	case errors.Is(err, errEmptyStart):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFoundEvent):
		http.Error(w, "event not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrInvalidField):
		http.Error(w, "field is not updatable", http.StatusBadRequest)
	default:
		log.Errorf("internal error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func getIP(req *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}

	if parsed := net.ParseIP(ip); parsed == nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}
	return ip, nil
}
