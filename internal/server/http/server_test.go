package internalhttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trungtd/schedassist/internal/app"
	"github.com/trungtd/schedassist/internal/export"
	"github.com/trungtd/schedassist/internal/parser"
	"github.com/trungtd/schedassist/internal/scheduler"
	"github.com/trungtd/schedassist/internal/storage"
	memorystorage "github.com/trungtd/schedassist/internal/storage/memory"
)

type noopNotifier struct{}

func (noopNotifier) Notify(string, string) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	stor := memorystorage.New()
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	a := app.New(stor, parser.New(loc))
	engine := scheduler.New(stor, noopNotifier{}, scheduler.Config{})
	s := NewServer(Config{Host: "127.0.0.1", Port: 0}, a, engine, export.New(stor))

	ts := httptest.NewServer(s.srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeEvent(t *testing.T, resp *http.Response) storage.Event {
	t.Helper()
	defer resp.Body.Close()
	var e storage.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestCreateEventFromText(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/events", map[string]string{
		"text": "meeting 15/11/2030 14:00, room 101, remind me 30 minutes before",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	e := decodeEvent(t, resp)
	require.NotEmpty(t, e.ID)
	require.Equal(t, 30, e.RemindBefore)
	require.Contains(t, e.Location, "101")
	require.Equal(t, 14, e.StartTime.Hour())
}

func TestCreateEventStructured(t *testing.T) {
	ts := newTestServer(t)

	start := time.Date(2030, 11, 15, 14, 0, 0, 0, time.UTC)
	resp := postJSON(t, ts.URL+"/events", map[string]interface{}{
		"title":     "board meeting",
		"startTime": start,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	e := decodeEvent(t, resp)
	require.Equal(t, "board meeting", e.Title)
	require.Equal(t, parser.DefaultRemindBefore, e.RemindBefore)
	require.Equal(t, storage.ImportanceNormal, e.Importance)
}

func TestCreateEventBadRequests(t *testing.T) {
	ts := newTestServer(t)

	// No temporal signal in the text.
	resp := postJSON(t, ts.URL+"/events", map[string]string{"text": "buy some milk"})
	resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Neither text nor startTime.
	resp = postJSON(t, ts.URL+"/events", map[string]string{"title": "no start"})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEventLifecycle(t *testing.T) {
	ts := newTestServer(t)

	start := time.Date(2030, 11, 15, 14, 0, 0, 0, time.UTC)
	created := decodeEvent(t, postJSON(t, ts.URL+"/events", map[string]interface{}{
		"title":     "sync",
		"startTime": start,
	}))

	resp, err := http.Get(ts.URL + "/events/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEvent(t, resp)
	require.Equal(t, "sync", got.Title)

	for _, action := range []string{"stop", "resume", "ack"} {
		resp = postJSON(t, fmt.Sprintf("%s/events/%s/%s", ts.URL, created.ID, action), struct{}{})
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode, action)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/events/"+created.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/events/" + created.ID)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventPathTooDeep(t *testing.T) {
	ts := newTestServer(t)

	created := decodeEvent(t, postJSON(t, ts.URL+"/events", map[string]interface{}{
		"title":     "sync",
		"startTime": time.Date(2030, 11, 15, 14, 0, 0, 0, time.UTC),
	}))

	resp := postJSON(t, ts.URL+"/events/"+created.ID+"/stop/extra", struct{}{})
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/events/" + created.ID + "/a/b")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The event itself is untouched.
	got, err := http.Get(ts.URL + "/events/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, got.StatusCode)
	require.False(t, decodeEvent(t, got).Stopped)
}

func TestLoggingMiddlewareKeepsStatus(t *testing.T) {
	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestAlertsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/alerts")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var alerts []scheduler.Alert
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&alerts))
	require.Empty(t, alerts)
}

func TestExportEndpoints(t *testing.T) {
	ts := newTestServer(t)

	start := time.Date(2030, 11, 15, 14, 0, 0, 0, time.UTC)
	postJSON(t, ts.URL+"/events", map[string]interface{}{
		"title":     "exported",
		"startTime": start,
	}).Body.Close()

	resp, err := http.Get(ts.URL + "/export/json")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []storage.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	resp.Body.Close()
	require.Len(t, events, 1)

	resp, err = http.Get(ts.URL + "/export/ics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/calendar", resp.Header.Get("Content-Type"))
	resp.Body.Close()
}
