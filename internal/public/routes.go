package public

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/folio/internal/content"
)

// RegisterRoutes mounts the public page and section endpoints.
func RegisterRoutes(r chi.Router, site *Site) {
	r.Get("/", handlePage(site))
	r.Get("/api/sections/{category}", handleSection(site))
}

func handlePage(site *Site) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := site.WritePage(w); err != nil {
			http.Error(w, "failed to render page", http.StatusInternalServerError)
		}
	}
}

func handleSection(site *Site) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		cat, err := content.ParseCategory(chi.URLParam(r, "category"))
		if err != nil || !site.Shows(cat) {
			http.Error(w, `{"error":"unknown section"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(site.Refresh(r.Context(), cat))
	}
}
