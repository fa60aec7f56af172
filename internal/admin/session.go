package admin

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/folio/internal/audit"
	"github.com/ziadkadry99/folio/internal/auth"
)

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// handleLogin starts the consent redirect.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	consentURL, state := h.auth.BeginSignIn()
	h.setCookie(w, stateCookie, state, 10*time.Minute)
	http.Redirect(w, r, consentURL, http.StatusFound)
}

// handleCallback finishes sign-in. Whether the identity may use the console
// is decided by the gate on the next request.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if msg := q.Get("error"); msg != "" {
		h.render(w, http.StatusUnauthorized, "login", pageData{Error: PrefixLoginError + msg})
		return
	}
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		h.render(w, http.StatusBadRequest, "login", pageData{Error: PrefixLoginError + "invalid sign-in state"})
		return
	}
	h.clearCookie(w, stateCookie)

	// Close the previous session first so its subscribers see sign-out.
	if old := h.sessionID(r); old != "" {
		if err := h.auth.SignOut(r.Context(), old); err != nil {
			h.logger.Warn("closing previous session", zap.Error(err))
		}
	}

	sessionID, id, err := h.auth.CompleteSignIn(r.Context(), q.Get("code"))
	if err != nil {
		h.logger.Warn("sign-in failed", zap.Error(err))
		h.render(w, http.StatusUnauthorized, "login", pageData{Error: PrefixLoginError + err.Error()})
		return
	}
	h.setCookie(w, sessionCookie, sessionID, 0)
	ctx := auth.WithIdentity(r.Context(), id)
	h.console.audit(ctx, audit.Entry{Action: audit.ActionSignIn})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), h.sessionID(r)); err != nil {
		h.logger.Warn("sign-out failed", zap.Error(err))
	}
	h.clearCookie(w, sessionCookie)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func deniedEntry(email string) audit.Entry {
	return audit.Entry{Actor: email, Action: audit.ActionDenied, Summary: "not on the admin allowlist"}
}
