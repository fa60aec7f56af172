package admin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/folio/internal/apperr"
	"github.com/ziadkadry99/folio/internal/auth"
	"github.com/ziadkadry99/folio/internal/content"
	"github.com/ziadkadry99/folio/internal/gate"
)

const (
	sessionCookie = "folio_session"
	stateCookie   = "folio_oauth_state"
)

// Handler serves the admin console and the sign-in flow.
type Handler struct {
	console   *Console
	auth      *auth.Service
	policy    gate.Policy
	title     string
	maxUpload int64
	secure    bool
	logger    *zap.Logger
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Title string
	// MaxUpload bounds the multipart body size in bytes.
	MaxUpload int64
	// Secure marks cookies Secure; set it when serving over https.
	Secure bool
	Logger *zap.Logger
}

// NewHandler creates a Handler. policy must be the same one enforced by the
// backend.
func NewHandler(console *Console, authService *auth.Service, policy gate.Policy, opts HandlerOptions) *Handler {
	h := &Handler{
		console:   console,
		auth:      authService,
		policy:    policy,
		title:     opts.Title,
		maxUpload: opts.MaxUpload,
		secure:    opts.Secure,
		logger:    opts.Logger,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.maxUpload <= 0 {
		h.maxUpload = 10 << 20
	}
	if h.title == "" {
		h.title = "Portfolio"
	}
	return h
}

// RegisterRoutes mounts sign-in and console routes. extra is mounted inside
// the admin-only group.
func (h *Handler) RegisterRoutes(r chi.Router, extra ...func(chi.Router)) {
	r.Get("/auth/login", h.handleLogin)
	r.Get("/auth/callback", h.handleCallback)
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/admin/ws/auth", h.handleAuthSocket)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAdmin)
		r.Get("/admin", h.handleIndex)
		r.Get("/admin/{category}", h.handleCategory)
		r.Post("/admin/{category}", h.handleSubmit)
		r.Get("/admin/{category}/{id}/edit", h.handleEdit)
		r.Get("/admin/{category}/{id}/delete", h.handleConfirmDelete)
		r.Post("/admin/{category}/{id}/delete", h.handleDelete)
		for _, fn := range extra {
			fn(r)
		}
	})
}

func (h *Handler) sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// requestView records what the gate decided for one request.
type requestView struct {
	state  gate.State
	email  string
	denied string
}

func (v *requestView) ShowLogin() { v.state = gate.LoggedOut }

func (v *requestView) Deny(email string) {
	v.state, v.email, v.denied = gate.Unauthorized, email, gate.DenyMessage(email)
}

func (v *requestView) RevealAdmin(email string) { v.state, v.email = gate.Authorized, email }

// RequireAdmin runs the auth gate for the request's session. Only
// authorized identities reach next, with the identity in the context.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := h.sessionID(r)
		id, err := h.auth.Current(r.Context(), sid)
		if err != nil {
			h.logger.Error("loading session", zap.Error(err))
			h.render(w, http.StatusBadGateway, "login", pageData{Error: err.Error()})
			return
		}

		view := &requestView{}
		g := gate.New(h.policy, view, func(ctx context.Context) error {
			h.clearCookie(w, sessionCookie)
			return h.auth.SignOut(ctx, sid)
		}, nil)
		if _, err := g.Handle(r.Context(), id); err != nil {
			h.logger.Warn("auth gate", zap.Error(err))
		}

		switch view.state {
		case gate.Authorized:
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		case gate.Unauthorized:
			h.logger.Warn("unauthorized admin access", zap.String("email", view.email))
			h.console.audit(r.Context(), deniedEntry(view.email))
			h.render(w, http.StatusForbidden, "denied", pageData{Error: view.denied})
		default:
			h.render(w, http.StatusUnauthorized, "login", pageData{})
		}
	})
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data pageData) {
	data.Title = h.title
	var buf bytes.Buffer
	if err := renderPage(&buf, name, data); err != nil {
		h.logger.Error("rendering admin page", zap.String("page", name), zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) category(w http.ResponseWriter, r *http.Request) (content.Category, bool) {
	cat, err := content.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return cat, true
}

func email(r *http.Request) string {
	if id := auth.FromContext(r.Context()); id != nil {
		return id.Email
	}
	return ""
}

// consolePage renders the list and form of cat. The list is reloaded on
// every render.
func (h *Handler) consolePage(w http.ResponseWriter, r *http.Request, status int, cat content.Category, form *Form, notice, errMsg string) {
	data := pageData{
		Email:      email(r),
		Categories: content.Categories,
		Active:     cat,
		Form:       form,
		Notice:     notice,
		Error:      errMsg,
	}
	rows, err := h.console.List(r.Context(), cat)
	if err != nil {
		data.ListError = err.Error()
	}
	data.Rows = rows
	h.render(w, status, "console", data)
}

var notices = map[string]string{
	string(ModeCreated): MsgCreated,
	string(ModeUpdated): MsgUpdated,
	"deleted":           MsgDeleted,
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/"+string(content.Categories[0]), http.StatusSeeOther)
}

func (h *Handler) handleCategory(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.category(w, r)
	if !ok {
		return
	}
	h.consolePage(w, r, http.StatusOK, cat, h.console.NewForm(cat), notices[r.URL.Query().Get("notice")], "")
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.category(w, r)
	if !ok {
		return
	}
	form, err := h.console.EditForm(r.Context(), cat, chi.URLParam(r, "id"))
	if err != nil {
		h.consolePage(w, r, apperr.HTTPStatus(apperr.KindOf(err)), cat, h.console.NewForm(cat), "", err.Error())
		return
	}
	h.consolePage(w, r, http.StatusOK, cat, form, "", "")
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.category(w, r)
	if !ok {
		return
	}

	if h.console.Busy(cat) {
		h.consolePage(w, r, http.StatusConflict, cat, h.console.NewForm(cat), "", PrefixSaveError+MsgBusy)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.consolePage(w, r, http.StatusBadRequest, cat, h.console.NewForm(cat), "", PrefixSaveError+err.Error())
		return
	}
	if r.PostForm == nil {
		r.ParseForm()
	}

	sub := Submission{
		DocID:  r.PostFormValue(content.FieldDocID),
		Values: map[string]string{},
	}
	for key, vals := range r.PostForm {
		if len(vals) > 0 {
			sub.Values[key] = vals[0]
		}
	}
	upload, err := readUpload(r, cat)
	if err != nil {
		h.consolePage(w, r, http.StatusBadRequest, cat, refill(h.console, cat, sub), "", PrefixSaveError+err.Error())
		return
	}
	sub.File = upload

	res, err := h.console.Submit(r.Context(), cat, sub)
	if err != nil {
		h.logger.Warn("saving item", zap.String("category", string(cat)), zap.Error(err))
		h.consolePage(w, r, apperr.HTTPStatus(apperr.KindOf(err)), cat, refill(h.console, cat, sub), "", PrefixSaveError+err.Error())
		return
	}
	http.Redirect(w, r, "/admin/"+string(cat)+"?notice="+url.QueryEscape(string(res.Mode)), http.StatusSeeOther)
}

// refill rebuilds the form with what the user entered so a failed submit
// can be retried.
func refill(c *Console, cat content.Category, sub Submission) *Form {
	form := c.NewForm(cat)
	for _, f := range form.Fields {
		if v, ok := sub.Values[f.Name]; ok && f.Kind != content.KindFile {
			form.Values[f.Name] = v
		}
	}
	if sub.DocID != "" {
		form.DocID = sub.DocID
		form.SubmitLabel = LabelUpdate
		form.ShowCancel = true
	}
	return form
}

// readUpload returns the file posted in cat's file input. Categories
// without one ignore any posted file.
func readUpload(r *http.Request, cat content.Category) (*Upload, error) {
	field, ok := content.FileField(cat)
	if !ok || r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field.Name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if header.Filename == "" || header.Size == 0 {
		return nil, nil
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *Handler) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.category(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := h.console.backend.Get(r.Context(), cat, id)
	if err != nil {
		h.consolePage(w, r, apperr.HTTPStatus(apperr.KindOf(err)), cat, h.console.NewForm(cat), "", PrefixDelError+err.Error())
		return
	}
	h.render(w, http.StatusOK, "confirm", pageData{
		Email:   email(r),
		Confirm: &confirmData{Category: cat, ID: id, Label: rec.Label(), Message: MsgConfirmDelete},
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.category(w, r)
	if !ok {
		return
	}
	confirmed := r.PostFormValue("confirm") == "yes"
	deleted, err := h.console.Delete(r.Context(), cat, chi.URLParam(r, "id"), ConfirmFunc(func(context.Context, string) bool {
		return confirmed
	}))
	if err != nil {
		h.consolePage(w, r, apperr.HTTPStatus(apperr.KindOf(err)), cat, h.console.NewForm(cat), "", PrefixDelError+err.Error())
		return
	}
	target := "/admin/" + string(cat)
	if deleted {
		target += "?notice=deleted"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
