package admin

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/folio/internal/auth"
	"github.com/ziadkadry99/folio/internal/gate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

// authEvent is pushed to the browser on every auth-state change.
type authEvent struct {
	Type    string `json:"type"` // "state" or "load"
	State   string `json:"state,omitempty"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message,omitempty"`
}

// socketView drives the gate over a websocket. Writes are serialized.
type socketView struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	logger *zap.Logger
}

func (v *socketView) send(ev authEvent) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.conn.WriteJSON(ev)
}

func (v *socketView) push(ev authEvent) {
	if err := v.send(ev); err != nil {
		v.logger.Debug("auth socket write", zap.Error(err))
	}
}

func (v *socketView) ShowLogin() {
	v.push(authEvent{Type: "state", State: gate.LoggedOut.String()})
}

func (v *socketView) Deny(email string) {
	v.push(authEvent{Type: "state", State: gate.Unauthorized.String(), Email: email, Message: gate.DenyMessage(email)})
}

func (v *socketView) RevealAdmin(email string) {
	v.push(authEvent{Type: "state", State: gate.Authorized.String(), Email: email})
}

// handleAuthSocket streams the session's auth state through a gate.
func (h *Handler) handleAuthSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("auth socket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	// The socket outlives the request timeout; it ends when the browser
	// disconnects.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	sid := h.sessionID(r)
	view := &socketView{conn: conn, logger: h.logger}
	g := gate.New(h.policy, view,
		func(ctx context.Context) error { return h.auth.SignOut(ctx, sid) },
		func(ctx context.Context) error { return view.send(authEvent{Type: "load"}) },
	)

	// Listeners may fire from inside the gate's own sign-out, so events are
	// queued and handled on this goroutine.
	events := make(chan *auth.Identity, 16)
	unsubscribe, err := h.auth.Subscribe(ctx, sid, func(id *auth.Identity) {
		select {
		case events <- id:
		case <-ctx.Done():
		}
	})
	if err != nil {
		h.logger.Error("auth socket subscribe", zap.Error(err))
		return
	}
	defer unsubscribe()

	// The browser sends nothing; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-events:
			if _, err := g.Handle(ctx, id); err != nil {
				h.logger.Warn("auth gate", zap.Error(err))
			}
		}
	}
}
