package content

import (
	"sort"
	"strings"
	"time"
)

// dateLayouts are the free-form date spellings admins use in the date field.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006-01",
	"2006/01",
	"2006",
	"Jan 2006",
	"January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"01/02/2006",
}

// ParseDate parses a free-form date field. The second result is false when
// the value is not a recognizable date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Compare orders two records newest first. It returns a negative number
// when a sorts before b and zero when the rule has no opinion:
// both dated -> date descending; both with a year -> year descending;
// otherwise equal. Unparseable dates compare equal.
func Compare(a, b Record) int {
	if a.Has(FieldDate) && b.Has(FieldDate) {
		ta, okA := ParseDate(a.String(FieldDate))
		tb, okB := ParseDate(b.String(FieldDate))
		if !okA || !okB {
			return 0
		}
		return tb.Compare(ta)
	}
	if a.Has(FieldYear) && b.Has(FieldYear) {
		ya, okA := number(a.Fields[FieldYear])
		yb, okB := number(b.Fields[FieldYear])
		if !okA || !okB {
			return 0
		}
		switch {
		case yb > ya:
			return 1
		case yb < ya:
			return -1
		}
	}
	return 0
}

// SortRecords sorts records in place with Compare. The sort is stable, so
// records the rule cannot order keep their original relative order.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return Compare(records[i], records[j]) < 0
	})
}
