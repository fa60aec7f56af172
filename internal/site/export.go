// Package site exports the public page as a static snapshot and loads
// snapshots back as fallback content.
package site

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/folio/internal/content"
	"github.com/ziadkadry99/folio/internal/progress"
	"github.com/ziadkadry99/folio/internal/public"
	"github.com/ziadkadry99/folio/internal/render"
)

// Generator writes index.html, one JSON file per section and a search
// index into OutputDir.
type Generator struct {
	Site      *public.Site
	Lister    render.Lister
	OutputDir string
}

// NewGenerator creates a Generator.
func NewGenerator(s *public.Site, lister render.Lister, outputDir string) *Generator {
	return &Generator{Site: s, Lister: lister, OutputDir: outputDir}
}

// Result summarizes an export.
type Result struct {
	Sections int
	Records  int
}

// Generate exports every section of the page. Unlike the live page it fails
// outright when a section cannot be read.
func (g *Generator) Generate(ctx context.Context, reporter progress.Reporter) (Result, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	cats := g.Site.Categories()
	sectionsDir := filepath.Join(g.OutputDir, "sections")
	if err := os.MkdirAll(sectionsDir, 0o755); err != nil {
		return Result{}, err
	}

	reporter.Start(len(cats) + 1)
	defer reporter.Finish()

	var res Result
	var entries []SearchEntry
	for i, cat := range cats {
		recs, err := g.Lister.ListAll(ctx, cat)
		if err != nil {
			return res, fmt.Errorf("listing %s: %w", cat, err)
		}
		content.SortRecords(recs)
		entries = append(entries, BuildSearchEntries(cat, recs)...)

		c := g.Site.Refresh(ctx, cat)
		if err := writeJSON(filepath.Join(sectionsDir, string(cat)+".json"), c); err != nil {
			return res, fmt.Errorf("writing %s section: %w", cat, err)
		}
		res.Sections++
		res.Records += len(recs)
		reporter.Update(i+1, "Exported "+string(cat))
	}

	var page bytes.Buffer
	if err := g.Site.WritePage(&page); err != nil {
		return res, err
	}
	if err := os.WriteFile(filepath.Join(g.OutputDir, "index.html"), page.Bytes(), 0o644); err != nil {
		return res, err
	}
	if err := writeJSON(filepath.Join(g.OutputDir, "search-index.json"), entries); err != nil {
		return res, fmt.Errorf("writing search index: %w", err)
	}
	reporter.Update(len(cats)+1, "Wrote index.html")
	return res, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
