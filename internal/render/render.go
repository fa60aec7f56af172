// Package render turns records into public HTML. Every value from the
// backend is escaped, URL-filtered or sanitized before it reaches markup.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/ziadkadry99/folio/internal/content"
)

// Static container messages.
const (
	LoadingHTML = `<p class="loading-placeholder text-muted">Loading...</p>`
	EmptyHTML   = `<p class="text-muted">No items found.</p>`
	FailureHTML = `<p class="text-danger">Failed to load content. Check configuration.</p>`
)

// Lister is the read side of the backend.
type Lister interface {
	ListAll(ctx context.Context, cat content.Category) ([]content.Record, error)
}

// Container is the rendered content of one page section.
type Container struct {
	ID       string        `json:"id"`
	Category string        `json:"category"`
	HTML     template.HTML `json:"html"`
	// Placeholder is true while the container holds only the loading
	// placeholder.
	Placeholder bool `json:"placeholder"`
}

// ContainerID returns the element id of a category's section.
func ContainerID(cat content.Category) string {
	return string(cat) + "-container"
}

// Loading returns a container holding the loading placeholder.
func Loading(cat content.Category) Container {
	return Container{ID: ContainerID(cat), Category: string(cat), HTML: LoadingHTML, Placeholder: true}
}

// Renderer renders records with one template per category.
type Renderer struct {
	sanitizer *Sanitizer
	templates map[content.Category]*template.Template
	logger    *zap.Logger
}

// New creates a Renderer.
func New(sanitizer *Sanitizer, logger *zap.Logger) (*Renderer, error) {
	if sanitizer == nil {
		sanitizer = &Sanitizer{mode: ModeDenylist}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpls, err := parseTemplates(sanitizer)
	if err != nil {
		return nil, fmt.Errorf("parsing item templates: %w", err)
	}
	return &Renderer{sanitizer: sanitizer, templates: tmpls, logger: logger}, nil
}

// Record renders a single record.
func (r *Renderer) Record(cat content.Category, rec content.Record) (template.HTML, error) {
	t, ok := r.templates[cat]
	if !ok {
		return "", fmt.Errorf("no template for category %q", cat)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, rec.Fields); err != nil {
		return "", fmt.Errorf("rendering %s/%s: %w", cat, rec.ID, err)
	}
	return template.HTML(buf.String()), nil
}

// Records renders records in order, or the empty message when there are none.
func (r *Renderer) Records(cat content.Category, recs []content.Record) (template.HTML, error) {
	if len(recs) == 0 {
		return EmptyHTML, nil
	}
	var buf bytes.Buffer
	for _, rec := range recs {
		h, err := r.Record(cat, rec)
		if err != nil {
			return "", err
		}
		buf.WriteString(string(h))
	}
	return template.HTML(buf.String()), nil
}

// Refresh fetches a category and renders it. On failure the previous
// container is returned unchanged, unless it only held the loading
// placeholder, which is replaced by the failure message.
func (r *Renderer) Refresh(ctx context.Context, lister Lister, cat content.Category, prev Container) Container {
	recs, err := lister.ListAll(ctx, cat)
	if err == nil {
		content.SortRecords(recs)
		var h template.HTML
		h, err = r.Records(cat, recs)
		if err == nil {
			return Container{ID: ContainerID(cat), Category: string(cat), HTML: h}
		}
	}

	r.logger.Error("refreshing section", zap.String("category", string(cat)), zap.Error(err))
	if prev.Placeholder {
		return Container{ID: ContainerID(cat), Category: string(cat), HTML: FailureHTML}
	}
	return prev
}
