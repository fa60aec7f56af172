// Package admin is the allowlisted content console: per-category lists,
// create and edit forms, confirmed deletes, and the HTTP surface around
// them.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/folio/internal/apperr"
	"github.com/ziadkadry99/folio/internal/audit"
	"github.com/ziadkadry99/folio/internal/auth"
	"github.com/ziadkadry99/folio/internal/blob"
	"github.com/ziadkadry99/folio/internal/content"
	"github.com/ziadkadry99/folio/internal/gateway"
	"github.com/ziadkadry99/folio/internal/notifications"
)

// User-facing notices.
const (
	MsgCreated       = "Item added successfully!"
	MsgUpdated       = "Item updated successfully!"
	MsgDeleted       = "Item deleted."
	MsgEmpty         = "No items found."
	MsgProcessing    = "Processing..."
	MsgBusy          = "a submission for this section is already in progress"
	MsgConfirmDelete = "Are you sure you want to delete this item? This cannot be undone."
	PrefixSaveError  = "Error saving item: "
	PrefixDelError   = "Error deleting: "
	PrefixLoginError = "Login failed: "
	LabelUpdate      = "Update Item"
)

// Auditor records admin actions.
type Auditor interface {
	Log(ctx context.Context, entry audit.Entry) error
}

// Notifier announces content changes.
type Notifier interface {
	Dispatch(ctx context.Context, c notifications.Change) error
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool { return f(ctx, message) }

// Options configures a Console.
type Options struct {
	Auditor  Auditor
	Notifier Notifier
	Logger   *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Console implements the admin operations over a backend.
type Console struct {
	backend  gateway.Backend
	auditor  Auditor
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	busy map[content.Category]bool
}

// NewConsole creates a Console.
func NewConsole(backend gateway.Backend, opts Options) *Console {
	c := &Console{
		backend:  backend,
		auditor:  opts.Auditor,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		now:      opts.Now,
		busy:     make(map[content.Category]bool),
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Row is one line of a category list.
type Row struct {
	ID       string
	Category content.Category
	Label    string
	Date     string
}

// List fetches and sorts a category for display.
func (c *Console) List(ctx context.Context, cat content.Category) ([]Row, error) {
	recs, err := c.backend.ListAll(ctx, cat)
	if err != nil {
		return nil, err
	}
	content.SortRecords(recs)
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, Row{
			ID:       rec.ID,
			Category: cat,
			Label:    rec.Label(),
			Date:     rec.String(content.FieldDate),
		})
	}
	return rows, nil
}

// Form is the state of one category form.
type Form struct {
	Category    content.Category
	DocID       string
	Fields      []content.Field
	Values      map[string]string
	SubmitLabel string
	ShowCancel  bool
}

// ID is the form element id.
func (f *Form) ID() string { return string(f.Category) + "-form" }

// CancelID is the cancel control's element id.
func (f *Form) CancelID() string { return "btn-cancel-" + string(f.Category) }

// AddLabel is the create-mode submit label of a category.
func AddLabel(cat content.Category) string {
	return "Add " + content.Noun(cat)
}

// NewForm returns the empty create-mode form of a category.
func (c *Console) NewForm(cat content.Category) *Form {
	return &Form{
		Category:    cat,
		Fields:      content.Schema(cat),
		Values:      map[string]string{},
		SubmitLabel: AddLabel(cat),
	}
}

// EditForm loads a record into its category form. File fields are left
// empty.
func (c *Console) EditForm(ctx context.Context, cat content.Category, id string) (*Form, error) {
	rec, err := c.backend.Get(ctx, cat, id)
	if err != nil {
		return nil, err
	}
	f := c.NewForm(cat)
	for _, field := range f.Fields {
		if field.Kind == content.KindFile || !rec.Has(field.Name) {
			continue
		}
		f.Values[field.Name] = rec.String(field.Name)
	}
	f.DocID = rec.ID
	f.SubmitLabel = LabelUpdate
	f.ShowCancel = true
	return f, nil
}

// Delete removes a record after confirmation. It reports false without
// touching the backend when the user declines.
func (c *Console) Delete(ctx context.Context, cat content.Category, id string, confirm Confirmer) (bool, error) {
	if !confirm.Confirm(ctx, MsgConfirmDelete) {
		return false, nil
	}
	if err := c.backend.Delete(ctx, cat, id); err != nil {
		return false, err
	}
	c.recordChange(ctx, audit.ActionDeleted, notifications.ChangeDeleted, cat, id, "")
	return true, nil
}

// Upload is a file attached to a submission.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Submission is one form post.
type Submission struct {
	DocID  string
	Values map[string]string
	File   *Upload
}

// Mode says whether a submit created or updated a record.
type Mode string

const (
	ModeCreated Mode = "created"
	ModeUpdated Mode = "updated"
)

// Result describes a successful submit.
type Result struct {
	Mode    Mode
	ID      string
	Message string
	// Fields is what was written.
	Fields content.Fields
}

// Busy reports whether a submit for cat is in flight.
func (c *Console) Busy(cat content.Category) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[cat]
}

func (c *Console) acquire(cat content.Category) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[cat] {
		return false
	}
	c.busy[cat] = true
	return true
}

func (c *Console) release(cat content.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, cat)
}

// Submit creates or updates a record from a form post. The file, if any,
// is uploaded before the record is written; a failure at any step leaves
// stored records untouched.
func (c *Console) Submit(ctx context.Context, cat content.Category, sub Submission) (*Result, error) {
	if !c.acquire(cat) {
		return nil, apperr.Errorf(apperr.ValidationFailure, "admin.submit", "%s: %s", cat, MsgBusy)
	}
	defer c.release(cat)

	fields, err := collectFields(cat, sub.Values)
	if err != nil {
		return nil, err
	}

	now := c.now()
	if sub.File != nil && len(sub.File.Data) > 0 {
		p := blob.UploadPath(now, sub.File.Filename)
		url, err := c.backend.UploadBlob(ctx, p, sub.File.Data, sub.File.ContentType)
		if err != nil {
			return nil, err
		}
		fields[content.ImageField(cat)] = url
		c.audit(ctx, audit.Entry{Action: audit.ActionUploaded, Category: string(cat), Summary: p})
	}

	delete(fields, content.FieldImageFile)
	delete(fields, content.FieldDocID)
	stamp := now.UTC().Format(time.RFC3339Nano)

	docID := strings.TrimSpace(sub.DocID)
	if docID != "" {
		fields[content.FieldUpdatedAt] = stamp
		if err := c.backend.Update(ctx, cat, docID, fields); err != nil {
			return nil, err
		}
		c.recordChange(ctx, audit.ActionUpdated, notifications.ChangeUpdated, cat, docID, detail(fields))
		return &Result{Mode: ModeUpdated, ID: docID, Message: MsgUpdated, Fields: fields}, nil
	}

	for k, v := range fields {
		if v == nil {
			delete(fields, k)
		}
	}
	fields[content.FieldCreatedAt] = stamp
	id, err := c.backend.Create(ctx, cat, fields)
	if err != nil {
		return nil, err
	}
	c.recordChange(ctx, audit.ActionCreated, notifications.ChangeCreated, cat, id, detail(fields))
	return &Result{Mode: ModeCreated, ID: id, Message: MsgCreated, Fields: fields}, nil
}

// collectFields maps submitted values onto the category schema. Values for
// names outside the schema and for file inputs are ignored. An empty integer
// field maps to nil, which clears it on update.
func collectFields(cat content.Category, values map[string]string) (content.Fields, error) {
	fields := content.Fields{}
	for _, f := range content.Schema(cat) {
		if f.Kind == content.KindFile {
			continue
		}
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		if f.Kind == content.KindInt || f.Name == content.FieldOrder {
			v = strings.TrimSpace(v)
			if v == "" {
				fields[f.Name] = nil
				continue
			}
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, apperr.Errorf(apperr.ValidationFailure, "admin.submit", "%s must be a whole number, got %q", f.Label, v)
			}
			fields[f.Name] = n
			continue
		}
		fields[f.Name] = v
	}
	return fields, nil
}

func (c *Console) recordChange(ctx context.Context, action audit.Action, change notifications.ChangeType, cat content.Category, id, payload string) {
	c.audit(ctx, audit.Entry{Action: action, Category: string(cat), RecordID: id, Detail: payload})
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Dispatch(ctx, notifications.Change{
		Type:      change,
		Category:  string(cat),
		RecordID:  id,
		Actor:     actor(ctx),
		Timestamp: c.now().UTC(),
	}); err != nil {
		c.logger.Warn("change notification failed", zap.String("category", string(cat)), zap.Error(err))
	}
}

func (c *Console) audit(ctx context.Context, e audit.Entry) {
	if c.auditor == nil {
		return
	}
	if e.Actor == "" {
		e.Actor = actor(ctx)
	}
	e.Timestamp = c.now()
	if err := c.auditor.Log(ctx, e); err != nil {
		c.logger.Warn("audit log failed", zap.String("action", string(e.Action)), zap.Error(err))
	}
}

func actor(ctx context.Context) string {
	if id := auth.FromContext(ctx); id != nil {
		return id.Email
	}
	return ""
}

func detail(fields content.Fields) string {
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Sprintf("%v", fields)
	}
	return string(b)
}
