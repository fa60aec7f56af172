package audit

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/folio/internal/apperr"
)

// maxPage caps the number of entries a single listing returns.
const maxPage = 500

// RegisterRoutes mounts the read-only trail under /api/audit. The caller
// wraps r with the admin gate.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/audit", func(r chi.Router) {
		r.Get("/", listEntries(store))
		r.Get("/{id}", showEntry(store))
	})
}

func listEntries(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := filterFromQuery(r.URL.Query())
		if err != nil {
			respondError(w, err)
			return
		}
		entries, err := store.Query(r.Context(), filter)
		if err != nil {
			respondError(w, err)
			return
		}
		if entries == nil {
			entries = []Entry{}
		}
		respond(w, http.StatusOK, entries)
	}
}

func showEntry(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, entry)
	}
}

// filterFromQuery rejects malformed values instead of silently widening the
// listing.
func filterFromQuery(q url.Values) (QueryFilter, error) {
	const op = "audit.filter"
	f := QueryFilter{
		Actor:    q.Get("actor"),
		Action:   Action(q.Get("action")),
		Category: q.Get("category"),
		RecordID: q.Get("record_id"),
	}
	for _, bound := range []struct {
		key string
		dst **time.Time
	}{{"since", &f.Since}, {"until", &f.Until}} {
		raw := q.Get(bound.key)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, apperr.Errorf(apperr.ValidationFailure, op, "%s must be RFC 3339, got %q", bound.key, raw)
		}
		*bound.dst = &ts
	}
	for _, num := range []struct {
		key string
		dst *int
	}{{"limit", &f.Limit}, {"offset", &f.Offset}} {
		raw := q.Get(num.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, apperr.Errorf(apperr.ValidationFailure, op, "%s must be a non-negative integer, got %q", num.key, raw)
		}
		*num.dst = n
	}
	if f.Limit == 0 || f.Limit > maxPage {
		f.Limit = maxPage
	}
	return f, nil
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(apperr.KindOf(err)), map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
