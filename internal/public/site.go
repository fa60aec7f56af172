// Package public serves the portfolio page. Rendered sections are cached so
// a failed refresh never wipes content that was already showing.
package public

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/ziadkadry99/folio/internal/content"
	"github.com/ziadkadry99/folio/internal/render"
)

// DefaultCategories are the sections shown on the page. Music is left out;
// the page carries a static embed for it instead.
var DefaultCategories = []content.Category{
	content.Experience,
	content.Projects,
	content.Talks,
	content.Papers,
	content.News,
}

// Options configures a Site.
type Options struct {
	Title      string
	Intro      template.HTML
	Categories []content.Category
	Logger     *zap.Logger
}

// Site renders the public page from the backend.
type Site struct {
	renderer   *render.Renderer
	lister     render.Lister
	title      string
	intro      template.HTML
	categories []content.Category
	logger     *zap.Logger

	mu         sync.Mutex
	containers map[content.Category]render.Container
}

// NewSite creates a Site. Every section starts with the loading placeholder.
func NewSite(renderer *render.Renderer, lister render.Lister, opts Options) *Site {
	cats := opts.Categories
	if len(cats) == 0 {
		cats = DefaultCategories
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Site{
		renderer:   renderer,
		lister:     lister,
		title:      opts.Title,
		intro:      opts.Intro,
		categories: cats,
		logger:     logger,
		containers: make(map[content.Category]render.Container, len(cats)),
	}
	for _, c := range cats {
		s.containers[c] = render.Loading(c)
	}
	return s
}

// Categories returns the sections shown on the page.
func (s *Site) Categories() []content.Category { return s.categories }

// Shows reports whether cat is one of the page's sections.
func (s *Site) Shows(cat content.Category) bool {
	for _, c := range s.categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Container returns the cached container for cat.
func (s *Site) Container(cat content.Category) render.Container {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[cat]
	if !ok {
		return render.Loading(cat)
	}
	return c
}

// Seed installs fallback content for a section, typically from an exported
// snapshot.
func (s *Site) Seed(cat content.Category, html template.HTML) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containers[cat] = render.Container{ID: render.ContainerID(cat), Category: string(cat), HTML: html}
}

// Refresh re-renders one section and stores the result. Concurrent
// refreshes of the same section are not coordinated; the last one wins.
func (s *Site) Refresh(ctx context.Context, cat content.Category) render.Container {
	next := s.renderer.Refresh(ctx, s.lister, cat, s.Container(cat))
	s.mu.Lock()
	s.containers[cat] = next
	s.mu.Unlock()
	return next
}

// RefreshAll re-renders every section.
func (s *Site) RefreshAll(ctx context.Context) {
	for _, c := range s.categories {
		s.Refresh(ctx, c)
	}
}

type pageData struct {
	Title    string
	Intro    template.HTML
	Sections []section
}

type section struct {
	Heading   string
	Container render.Container
	Timeline  bool
	Row       bool
}

var headings = map[content.Category]string{
	content.Experience: "Experience",
	content.Projects:   "Projects",
	content.Talks:      "Talks",
	content.Papers:     "Papers",
	content.News:       "News",
	content.Music:      "Music",
}

// WritePage renders the full page from the cached sections.
func (s *Site) WritePage(w io.Writer) error {
	data := pageData{Title: s.title, Intro: s.intro}
	for _, c := range s.categories {
		data.Sections = append(data.Sections, section{
			Heading:   headings[c],
			Container: s.Container(c),
			Timeline:  c == content.Experience,
			Row:       c == content.Projects || c == content.Talks,
		})
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
