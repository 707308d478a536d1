package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dokzlo13/hueplan/internal/schedule"
)

type fixedSunsets struct{}

func (fixedSunsets) SunsetTime(lat, lon float64, tz *time.Location, ref time.Time) (time.Time, error) {
	day := ref.In(tz)
	return time.Date(day.Year(), day.Month(), day.Day(), 20, 0, 0, 0, tz), nil
}

func ptr[T any](v T) *T { return &v }

// testServer builds a server over two color points at the given hours.
func testServer(t *testing.T, firstHour, secondHour int8) (*Server, *time.Location) {
	t.Helper()
	tz, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	def, err := schedule.NewDefinition(schedule.LocationConfig{
		Latitude:  41.88,
		Longitude: -87.62,
		Timezone:  "America/Chicago",
	}, []schedule.RawChangePoint{
		{Hour: ptr(firstHour), Change: schedule.ChangeDirective{
			Action: schedule.ActionColor, Mirek: ptr(uint16(200)), Brightness: ptr(uint8(10)),
		}},
		{Hour: ptr(secondHour), Change: schedule.ChangeDirective{
			Action: schedule.ActionColor, Mirek: ptr(uint16(400)), Brightness: ptr(uint8(90)),
		}},
	})
	if err != nil {
		t.Fatalf("NewDefinition returned error: %v", err)
	}
	cache := schedule.NewCache(def, fixedSunsets{})
	return New("127.0.0.1", 0, cache, tz), tz
}

func TestHandleNow_AtInstant(t *testing.T) {
	srv, _ := testServer(t, 10, 20)

	req := httptest.NewRequest(http.MethodGet, "/now?at=2024-06-01T15:00:00-05:00", nil)
	rec := httptest.NewRecorder()
	srv.handleNow(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Now          time.Time       `json:"now"`
		ChangeAction json.RawMessage `json:"change_action"`
		JustUpdated  bool            `json:"just_updated"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(body.ChangeAction) != `{"color":{"mirek":300,"brightness":50}}` {
		t.Errorf("change_action = %s", body.ChangeAction)
	}
	if !body.JustUpdated {
		t.Error("first query should report just_updated")
	}
}

func TestHandleNow_InvalidAt(t *testing.T) {
	srv, _ := testServer(t, 10, 20)

	req := httptest.NewRequest(http.MethodGet, "/now?at=yesterday", nil)
	rec := httptest.NewRecorder()
	srv.handleNow(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRefresh_MethodGuard(t *testing.T) {
	srv, _ := testServer(t, 10, 20)

	req := httptest.NewRequest(http.MethodGet, "/refresh", nil)
	rec := httptest.NewRecorder()
	srv.handleRefresh(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /refresh status = %d, want 405", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec = httptest.NewRecorder()
	srv.handleRefresh(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST /refresh status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "{\"just_updated\":true}\n" {
		t.Errorf("POST /refresh body = %q", rec.Body.String())
	}
}

func TestHandleDebug(t *testing.T) {
	// The debug endpoint queries the real clock; a schedule starting at
	// midnight covers any instant of the current day.
	srv, _ := testServer(t, 0, 23)

	req := httptest.NewRequest(http.MethodGet, "/debug", nil)
	rec := httptest.NewRecorder()
	srv.handleDebug(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var snap schedule.DebugSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Timezone != "America/Chicago" {
		t.Errorf("snapshot timezone = %q", snap.Timezone)
	}
	if len(snap.Resolved) != 3 {
		t.Errorf("resolved points = %d, want 3", len(snap.Resolved))
	}
}
