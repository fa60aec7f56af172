package admin

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/folio/internal/apperr"
	"github.com/ziadkadry99/folio/internal/audit"
	"github.com/ziadkadry99/folio/internal/auth"
	"github.com/ziadkadry99/folio/internal/content"
	"github.com/ziadkadry99/folio/internal/notifications"
)

// fakeBackend is an in-memory backend that records every call.
type fakeBackend struct {
	mu       sync.Mutex
	docs     map[content.Category]map[string]content.Fields
	order    map[content.Category][]string
	calls    []string
	nextID   int
	failOn   map[string]error
	blobs    map[string][]byte
	blocking chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		docs:   map[content.Category]map[string]content.Fields{},
		order:  map[content.Category][]string{},
		failOn: map[string]error{},
		blobs:  map[string][]byte{},
	}
}

func (f *fakeBackend) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeBackend) seed(cat content.Category, id string, fields content.Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs[cat] == nil {
		f.docs[cat] = map[string]content.Fields{}
	}
	f.docs[cat][id] = fields
	f.order[cat] = append(f.order[cat], id)
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) ListAll(ctx context.Context, cat content.Category) ([]content.Record, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []content.Record
	for _, id := range f.order[cat] {
		if fields, ok := f.docs[cat][id]; ok {
			out = append(out, content.Record{ID: id, Category: cat, Fields: fields})
		}
	}
	return out, nil
}

func (f *fakeBackend) Get(ctx context.Context, cat content.Category, id string) (*content.Record, error) {
	if err := f.record("get"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fields, ok := f.docs[cat][id]
	if !ok {
		return nil, apperr.Errorf(apperr.NotFound, "get", "no %s/%s", cat, id)
	}
	return &content.Record{ID: id, Category: cat, Fields: fields}, nil
}

func (f *fakeBackend) Create(ctx context.Context, cat content.Category, fields content.Fields) (string, error) {
	if f.blocking != nil {
		<-f.blocking
	}
	if err := f.record("create"); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("id-%d", f.nextID)
	f.mu.Unlock()
	f.seed(cat, id, fields)
	return id, nil
}

func (f *fakeBackend) Update(ctx context.Context, cat content.Category, id string, fields content.Fields) error {
	if err := f.record("update"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.docs[cat][id]
	if !ok {
		return apperr.Errorf(apperr.NotFound, "update", "no %s/%s", cat, id)
	}
	for k, v := range fields {
		if v == nil {
			delete(existing, k)
			continue
		}
		existing[k] = v
	}
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, cat content.Category, id string) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs[cat], id)
	return nil
}

func (f *fakeBackend) UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := f.record("upload"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[path] = data
	return "https://cdn.example.com/files/" + path, nil
}

type memAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memAuditor) Log(ctx context.Context, e audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

type memNotifier struct {
	changes []notifications.Change
}

func (m *memNotifier) Dispatch(ctx context.Context, c notifications.Change) error {
	m.changes = append(m.changes, c)
	return nil
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func setupConsole(t *testing.T) (*Console, *fakeBackend, *memAuditor, *memNotifier) {
	t.Helper()
	backend := newFakeBackend()
	auditor := &memAuditor{}
	notifier := &memNotifier{}
	c := NewConsole(backend, Options{
		Auditor:  auditor,
		Notifier: notifier,
		Now:      func() time.Time { return fixedNow },
	})
	return c, backend, auditor, notifier
}

func ownerCtx() context.Context {
	return auth.WithIdentity(context.Background(), &auth.Identity{Email: "owner@example.com"})
}

func TestSubmitCreateProject(t *testing.T) {
	c, backend, auditor, notifier := setupConsole(t)

	res, err := c.Submit(ownerCtx(), content.Projects, Submission{
		Values: map[string]string{"title": "Demo", "date": "2024-01-01", "docId": "", "imageFile": ""},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Mode != ModeCreated || res.Message != MsgCreated {
		t.Errorf("result = %+v", res)
	}

	recs, _ := backend.ListAll(context.Background(), content.Projects)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	fields := recs[0].Fields
	if fields["title"] != "Demo" || fields["date"] != "2024-01-01" {
		t.Errorf("fields = %v", fields)
	}
	if fields[content.FieldCreatedAt] != fixedNow.Format(time.RFC3339Nano) {
		t.Errorf("createdAt = %v", fields[content.FieldCreatedAt])
	}
	for _, banned := range []string{content.FieldDocID, content.FieldImageFile, content.FieldUpdatedAt} {
		if _, ok := fields[banned]; ok {
			t.Errorf("%s must not be persisted", banned)
		}
	}

	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionCreated || auditor.entries[0].Actor != "owner@example.com" {
		t.Errorf("audit entries = %+v", auditor.entries)
	}
	if len(notifier.changes) != 1 || notifier.changes[0].Type != notifications.ChangeCreated {
		t.Errorf("changes = %+v", notifier.changes)
	}
	if c.Busy(content.Projects) {
		t.Error("form should not stay busy after submit")
	}
}

func TestSubmitUpdateCoercesOrder(t *testing.T) {
	c, backend, _, _ := setupConsole(t)
	created := "2024-06-01T10:00:00Z"
	backend.seed(content.Talks, "abc", content.Fields{"title": "Keynote", "order": int64(3), "createdAt": created})

	res, err := c.Submit(ownerCtx(), content.Talks, Submission{
		DocID:  "abc",
		Values: map[string]string{"title": "Keynote", "order": "5", "docId": "abc"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Mode != ModeUpdated || res.ID != "abc" || res.Message != MsgUpdated {
		t.Errorf("result = %+v", res)
	}

	rec, err := backend.Get(context.Background(), content.Talks, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	order, ok := rec.Fields["order"].(int64)
	if !ok || order != 5 {
		t.Errorf("order = %#v, want int64(5)", rec.Fields["order"])
	}
	if rec.Fields[content.FieldCreatedAt] != created {
		t.Errorf("createdAt changed to %v", rec.Fields[content.FieldCreatedAt])
	}
	if rec.Fields[content.FieldUpdatedAt] != fixedNow.Format(time.RFC3339Nano) {
		t.Errorf("updatedAt = %v", rec.Fields[content.FieldUpdatedAt])
	}
	if _, ok := rec.Fields[content.FieldDocID]; ok {
		t.Error("docId must not be persisted")
	}
}

func TestSubmitRejectsNonNumericOrder(t *testing.T) {
	c, backend, _, _ := setupConsole(t)
	_, err := c.Submit(ownerCtx(), content.Talks, Submission{Values: map[string]string{"title": "x", "order": "first"}})
	if !apperr.Is(err, apperr.ValidationFailure) {
		t.Errorf("err = %v, want ValidationFailure", err)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend calls = %v, want none", backend.calls)
	}
}

func TestSubmitEmptyOrderOmitted(t *testing.T) {
	c, _, _, _ := setupConsole(t)
	res, err := c.Submit(ownerCtx(), content.Talks, Submission{Values: map[string]string{"title": "x", "order": " "}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, ok := res.Fields["order"]; ok {
		t.Error("empty order should be omitted")
	}
}

func TestSubmitUpdateClearsOrder(t *testing.T) {
	c, backend, _, _ := setupConsole(t)
	backend.seed(content.Talks, "abc", content.Fields{"title": "Talk", "order": int64(3)})

	if _, err := c.Submit(ownerCtx(), content.Talks, Submission{
		DocID:  "abc",
		Values: map[string]string{"title": "Talk", "order": ""},
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	stored := backend.docs[content.Talks]["abc"]
	if _, ok := stored["order"]; ok {
		t.Errorf("order = %v, want it cleared", stored["order"])
	}
	if stored["title"] != "Talk" {
		t.Errorf("title = %v", stored["title"])
	}
}

func TestSubmitUploadBindsURL(t *testing.T) {
	tests := []struct {
		cat   content.Category
		field string
	}{
		{content.Experience, "logo"},
		{content.Projects, "image"},
		{content.News, "image"},
	}
	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			c, backend, _, _ := setupConsole(t)
			res, err := c.Submit(ownerCtx(), tt.cat, Submission{
				Values: map[string]string{"title": "With file"},
				File:   &Upload{Filename: "C:\\pics\\logo.png", ContentType: "image/png", Data: []byte("png")},
			})
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			wantPath := fmt.Sprintf("uploads/%d_logo.png", fixedNow.UnixMilli())
			if _, ok := backend.blobs[wantPath]; !ok {
				t.Errorf("blob not stored at %s: %v", wantPath, backend.blobs)
			}
			if res.Fields[tt.field] != "https://cdn.example.com/files/"+wantPath {
				t.Errorf("%s = %v", tt.field, res.Fields[tt.field])
			}
			if backend.calls[0] != "upload" || backend.calls[1] != "create" {
				t.Errorf("calls = %v, want upload before create", backend.calls)
			}
		})
	}
}

func TestSubmitUploadFailureSkipsWrite(t *testing.T) {
	c, backend, auditor, _ := setupConsole(t)
	backend.failOn["upload"] = apperr.Errorf(apperr.BackendUnavailable, "upload", "storage offline")

	_, err := c.Submit(ownerCtx(), content.Projects, Submission{
		Values: map[string]string{"title": "x"},
		File:   &Upload{Filename: "a.png", Data: []byte("x")},
	})
	if !apperr.Is(err, apperr.BackendUnavailable) {
		t.Errorf("err = %v, want BackendUnavailable", err)
	}
	for _, call := range backend.calls {
		if call == "create" || call == "update" {
			t.Errorf("document write attempted after failed upload: %v", backend.calls)
		}
	}
	if len(auditor.entries) != 0 {
		t.Errorf("audit entries = %+v, want none", auditor.entries)
	}
	if c.Busy(content.Projects) {
		t.Error("busy flag must be released on failure")
	}
}

func TestSubmitRejectsConcurrentSubmit(t *testing.T) {
	c, backend, _, _ := setupConsole(t)
	backend.blocking = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ownerCtx(), content.News, Submission{Values: map[string]string{"title": "first"}})
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !c.Busy(content.News) {
		if time.Now().After(deadline) {
			t.Fatal("first submit never became busy")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := c.Submit(ownerCtx(), content.News, Submission{Values: map[string]string{"title": "second"}}); !apperr.Is(err, apperr.ValidationFailure) {
		t.Errorf("second submit err = %v, want ValidationFailure", err)
	}
	if c.Busy(content.Papers) {
		t.Error("other forms must stay available")
	}

	close(backend.blocking)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if c.Busy(content.News) {
		t.Error("busy flag not released")
	}
}

func TestDeleteDeclinedIssuesNoCall(t *testing.T) {
	c, backend, auditor, notifier := setupConsole(t)
	backend.seed(content.News, "xyz", content.Fields{"title": "Keep me"})
	before := backend.callCount()

	var asked string
	deleted, err := c.Delete(ownerCtx(), content.News, "xyz", ConfirmFunc(func(ctx context.Context, msg string) bool {
		asked = msg
		return false
	}))
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted {
		t.Error("declined delete reported success")
	}
	if asked != MsgConfirmDelete {
		t.Errorf("confirmation message = %q", asked)
	}
	if backend.callCount() != before {
		t.Errorf("backend calls = %v, want none", backend.calls)
	}
	if _, err := backend.Get(context.Background(), content.News, "xyz"); err != nil {
		t.Errorf("record gone: %v", err)
	}
	if len(auditor.entries) != 0 || len(notifier.changes) != 0 {
		t.Error("declined delete must not audit or notify")
	}
}

func TestDeleteConfirmed(t *testing.T) {
	c, backend, auditor, _ := setupConsole(t)
	backend.seed(content.News, "xyz", content.Fields{"title": "Bye"})

	deleted, err := c.Delete(ownerCtx(), content.News, "xyz", ConfirmFunc(func(context.Context, string) bool { return true }))
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	if _, err := backend.Get(context.Background(), content.News, "xyz"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("record still present: %v", err)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionDeleted {
		t.Errorf("audit = %+v", auditor.entries)
	}
}

func TestDeleteFailureSurfaces(t *testing.T) {
	c, backend, _, _ := setupConsole(t)
	backend.seed(content.News, "xyz", content.Fields{"title": "Stay"})
	backend.failOn["delete"] = apperr.Errorf(apperr.Unauthorized, "delete", "denied")

	deleted, err := c.Delete(ownerCtx(), content.News, "xyz", ConfirmFunc(func(context.Context, string) bool { return true }))
	if err == nil || deleted {
		t.Fatalf("Delete = %v, %v; want failure", deleted, err)
	}
	if _, err := backend.Get(context.Background(), content.News, "xyz"); err != nil {
		t.Errorf("record should remain: %v", err)
	}
}

func TestEditForm(t *testing.T) {
	c, backend, _, _ := setupConsole(t)
	backend.seed(content.Talks, "abc", content.Fields{"title": "Talk", "order": int64(3), "imageFile": "ignored"})

	form, err := c.EditForm(context.Background(), content.Talks, "abc")
	if err != nil {
		t.Fatalf("EditForm: %v", err)
	}
	if form.DocID != "abc" {
		t.Errorf("DocID = %q", form.DocID)
	}
	if form.Values["order"] != "3" || form.Values["title"] != "Talk" {
		t.Errorf("values = %v", form.Values)
	}
	if _, ok := form.Values["imageFile"]; ok {
		t.Error("file fields must not be populated")
	}
	if form.SubmitLabel != LabelUpdate || !form.ShowCancel {
		t.Errorf("label = %q, cancel = %v", form.SubmitLabel, form.ShowCancel)
	}
	if form.ID() != "talks-form" || form.CancelID() != "btn-cancel-talks" {
		t.Errorf("ids = %q, %q", form.ID(), form.CancelID())
	}

	if _, err := c.EditForm(context.Background(), content.Talks, "missing"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("missing record err = %v", err)
	}
}

func TestNewFormLabels(t *testing.T) {
	c, _, _, _ := setupConsole(t)
	tests := map[content.Category]string{
		content.Projects: "Add Project",
		content.Papers:   "Add Paper",
		content.Music:    "Add Item",
	}
	for cat, want := range tests {
		f := c.NewForm(cat)
		if f.SubmitLabel != want {
			t.Errorf("%s label = %q, want %q", cat, f.SubmitLabel, want)
		}
		if f.ShowCancel || f.DocID != "" {
			t.Errorf("%s create form should hide cancel", cat)
		}
	}
}

func TestListSortsAndLabels(t *testing.T) {
	c, backend, _, _ := setupConsole(t)
	backend.seed(content.News, "1", content.Fields{"title": "Old", "date": "2023-01-01"})
	backend.seed(content.News, "2", content.Fields{"name": "Named", "date": "2024-01-01"})
	backend.seed(content.News, "3", content.Fields{})

	rows, err := c.List(context.Background(), content.News)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Label != "Named" || rows[0].Date != "2024-01-01" {
		t.Errorf("first row = %q (%q)", rows[0].Label, rows[0].Date)
	}
	var untitled bool
	for _, r := range rows {
		if r.Label == "Untitled" && r.Date == "" {
			untitled = true
		}
	}
	if !untitled {
		t.Error("record without title should be Untitled")
	}
}
