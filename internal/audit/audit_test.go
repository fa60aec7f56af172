package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/folio/internal/apperr"
	"github.com/ziadkadry99/folio/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:       "test-1",
		Actor:    "owner@example.com",
		Action:   ActionCreated,
		Category: "projects",
		RecordID: "rec-1",
		Summary:  "Added Folio",
		Detail:   `{"title":"Folio"}`,
	}
	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Actor != "owner@example.com" {
		t.Errorf("Actor = %q", got.Actor)
	}
	if got.Action != ActionCreated {
		t.Errorf("Action = %q, want %q", got.Action, ActionCreated)
	}
	if got.Category != "projects" || got.RecordID != "rec-1" {
		t.Errorf("Category/RecordID = %q/%q", got.Category, got.RecordID)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{Actor: "owner@example.com", Action: ActionDeleted}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	entries, err := store.Query(ctx, QueryFilter{Actor: "owner@example.com"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected generated ID, got empty string")
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seed := []Entry{
		{Actor: "a@example.com", Action: ActionCreated, Category: "news", RecordID: "1"},
		{Actor: "b@example.com", Action: ActionUpdated, Category: "news", RecordID: "1"},
		{Actor: "a@example.com", Action: ActionDeleted, Category: "talks", RecordID: "2"},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 3},
		{"actor", QueryFilter{Actor: "a@example.com"}, 2},
		{"action", QueryFilter{Action: ActionUpdated}, 1},
		{"category", QueryFilter{Category: "news"}, 2},
		{"record", QueryFilter{RecordID: "2"}, 1},
		{"limit", QueryFilter{Limit: 2}, 2},
		{"offset", QueryFilter{Offset: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("got %d entries, want %d", len(entries), tt.want)
			}
		})
	}
}

func TestQueryNewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		if err := store.Log(ctx, Entry{ID: id, Actor: "a", Action: ActionUpdated, Timestamp: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if entries[0].ID != "new" || entries[2].ID != "old" {
		t.Errorf("order = %s, %s, %s", entries[0].ID, entries[1].ID, entries[2].ID)
	}

	since := base.Add(30 * time.Minute)
	entries, err = store.Query(ctx, QueryFilter{Since: &since})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("since filter returned %d entries, want 2", len(entries))
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, Entry{Actor: "a", Action: ActionUpdated}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	deleted, err := store.DeleteBefore(ctx, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}
}

func TestExpireByRetention(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	old := Entry{ID: "old", Actor: "a", Action: ActionDeleted, Timestamp: time.Now().Add(-48 * time.Hour)}
	fresh := Entry{ID: "fresh", Actor: "a", Action: ActionCreated}
	for _, e := range []Entry{old, fresh} {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	if n, err := store.Expire(ctx, 0); err != nil || n != 0 {
		t.Fatalf("Expire(0) = %d, %v; want 0, nil", n, err)
	}
	n, err := store.Expire(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if n != 1 {
		t.Errorf("expired %d entries, want 1", n)
	}
	if _, err := store.GetByID(ctx, "fresh"); err != nil {
		t.Errorf("fresh entry gone: %v", err)
	}
	if _, err := store.GetByID(ctx, "old"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("old entry still present: %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetByID(context.Background(), "nonexistent")
	if !apperr.Is(err, apperr.NotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

// --- HTTP handler tests ---

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPGetByID(t *testing.T) {
	r, store := setupRouter(t)
	if err := store.Log(context.Background(), Entry{ID: "http-1", Actor: "owner@example.com", Action: ActionCreated}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/http-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "http-1" || got.Actor != "owner@example.com" {
		t.Errorf("got %+v", got)
	}
}

func TestHTTPGetByIDNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHTTPQueryWithFilter(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()

	for _, actor := range []string{"a@example.com", "b@example.com", "a@example.com"} {
		if err := store.Log(ctx, Entry{Actor: actor, Action: ActionUpdated}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit?actor=a@example.com&limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestHTTPQueryRejectsMalformedFilter(t *testing.T) {
	r, _ := setupRouter(t)

	for _, query := range []string{"since=yesterday", "limit=-1", "offset=ten"} {
		req := httptest.NewRequest(http.MethodGet, "/api/audit?"+query, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", query, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestHTTPQueryEmptyIsArray(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}
