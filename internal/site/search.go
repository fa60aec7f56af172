package site

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ziadkadry99/folio/internal/content"
	"github.com/ziadkadry99/folio/internal/render"
)

const summaryLimit = 200

// SearchEntry is one searchable record in the exported index.
type SearchEntry struct {
	Category string `json:"category"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date,omitempty"`
	Link     string `json:"link,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

var textOnly = bluemonday.StrictPolicy()

// BuildSearchEntries indexes records. Summaries are plain text taken from
// the record's rich-text field.
func BuildSearchEntries(cat content.Category, recs []content.Record) []SearchEntry {
	entries := make([]SearchEntry, 0, len(recs))
	for _, rec := range recs {
		e := SearchEntry{
			Category: string(cat),
			ID:       rec.ID,
			Title:    rec.Label(),
			Date:     rec.String(content.FieldDate),
		}
		if e.Date == "" {
			e.Date = rec.String(content.FieldYear)
		}
		if rec.Has("link") {
			if link := render.SanitizeURL(rec.String("link")); link != "#" {
				e.Link = link
			}
		}
		for _, f := range []string{"description", "content"} {
			if rec.Has(f) {
				e.Summary = summarize(rec.String(f))
				break
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func summarize(rich string) string {
	text := html.UnescapeString(textOnly.Sanitize(rich))
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= summaryLimit {
		return text
	}
	return strings.TrimSpace(string(runes[:summaryLimit])) + "…"
}
