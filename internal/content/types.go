// Package content holds the portfolio data model: categories, records, the
// per-category field schema and the client-side sort rule.
package content

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ziadkadry99/folio/internal/apperr"
)

// Category names a collection of records.
type Category string

const (
	Projects   Category = "projects"
	Talks      Category = "talks"
	Papers     Category = "papers"
	Experience Category = "experience"
	News       Category = "news"
	Music      Category = "music"
)

// Categories lists every category in admin tab order.
var Categories = []Category{Projects, Talks, Experience, Papers, Music, News}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", apperr.Errorf(apperr.ValidationFailure, "content.parse_category", "unknown category %q", s)
}

// Reserved field names shared by forms and the write path.
const (
	FieldDocID     = "docId"
	FieldImageFile = "imageFile"
	FieldOrder     = "order"
	FieldDate      = "date"
	FieldYear      = "year"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Fields is the schemaless body of a record.
type Fields map[string]any

// Record is one persisted content item.
type Record struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Fields   Fields   `json:"fields"`
}

// Has reports whether key is present with a non-empty value.
func (r Record) Has(key string) bool {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// String returns the field formatted for display; missing fields are "".
func (r Record) String(key string) string {
	return FormatValue(r.Fields[key])
}

// Label is the display label used by admin lists.
func (r Record) Label() string {
	if r.Has("title") {
		return r.String("title")
	}
	if r.Has("name") {
		return r.String("name")
	}
	return "Untitled"
}

// FormatValue renders a stored field value as text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// DecodeFields parses a stored JSON document. Integral numbers decode to
// int64 so that coerced integers such as order stay integers.
func DecodeFields(data []byte) (Fields, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding fields: %w", err)
	}
	out := make(Fields, len(raw))
	for k, v := range raw {
		out[k] = normalizeNumber(v)
	}
	return out, nil
}

func normalizeNumber(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		for k, inner := range x {
			x[k] = normalizeNumber(inner)
		}
		return x
	case []any:
		for i, inner := range x {
			x[i] = normalizeNumber(inner)
		}
		return x
	default:
		return v
	}
}

// number extracts a numeric value the way a loose comparison would coerce
// it: numbers pass through, numeric strings are parsed.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
