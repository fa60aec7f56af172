package site

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/folio/internal/content"
	"github.com/ziadkadry99/folio/internal/public"
	"github.com/ziadkadry99/folio/internal/render"
)

// LoadSnapshot seeds s with the sections of an earlier export so the page
// has content before the first refresh. It returns the number of sections
// seeded. Sections the page does not show are skipped.
func LoadSnapshot(dir string, s *public.Site) (int, error) {
	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, "sections/*.json")
	if err != nil {
		return 0, fmt.Errorf("scanning snapshot: %w", err)
	}

	n := 0
	for _, m := range matches {
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return n, err
		}
		var c render.Container
		if err := json.Unmarshal(data, &c); err != nil {
			return n, fmt.Errorf("parsing %s: %w", m, err)
		}
		cat, err := content.ParseCategory(c.Category)
		if err != nil || !s.Shows(cat) || c.Placeholder || strings.TrimSpace(string(c.HTML)) == "" {
			continue
		}
		s.Seed(cat, c.HTML)
		n++
	}
	return n, nil
}
