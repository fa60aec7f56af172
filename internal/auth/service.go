package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service ties the consent provider, session storage and auth-state
// subscriptions together.
type Service struct {
	provider Provider
	sessions *SessionStore
	hub      *Hub
	logger   *zap.Logger
}

// NewService creates a Service.
func NewService(provider Provider, sessions *SessionStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, sessions: sessions, hub: NewHub(), logger: logger}
}

// BeginSignIn returns the consent URL and the state value the callback must
// echo back.
func (s *Service) BeginSignIn() (consentURL, state string) {
	state = uuid.New().String()
	return s.provider.ConsentURL(state), state
}

// CompleteSignIn exchanges the authorization code, opens a session and
// notifies subscribers of that session.
func (s *Service) CompleteSignIn(ctx context.Context, code string) (string, *Identity, error) {
	id, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("sign-in: %w", err)
	}
	sessionID, err := s.sessions.Create(ctx, id)
	if err != nil {
		return "", nil, fmt.Errorf("sign-in: %w", err)
	}
	s.logger.Info("signed in", zap.String("email", id.Email))
	s.hub.Publish(sessionID, id)
	return sessionID, id, nil
}

// SignOut ends a session and notifies its subscribers.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("sign-out: %w", err)
	}
	s.logger.Debug("signed out", zap.Int("watchers", s.hub.Count(sessionID)))
	s.hub.Publish(sessionID, nil)
	return nil
}

// Current returns the identity of a session, or nil.
func (s *Service) Current(ctx context.Context, sessionID string) (*Identity, error) {
	return s.sessions.Get(ctx, sessionID)
}

// Subscribe calls fn with the session's current identity (or nil) and
// again on every later sign-in or sign-out of that session. The listener is
// registered before the current identity is read, so no change is lost;
// changes that arrive before the first call are delivered right after it.
// Calls to fn are serialized. The returned func stops delivery.
func (s *Service) Subscribe(ctx context.Context, sessionID string, fn Listener) (func(), error) {
	var (
		mu     sync.Mutex
		primed bool
		held   []*Identity
	)
	remove := s.hub.Add(sessionID, func(id *Identity) {
		mu.Lock()
		defer mu.Unlock()
		if !primed {
			held = append(held, id)
			return
		}
		fn(id)
	})

	current, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		remove()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	fn(current)
	for _, id := range held {
		fn(id)
	}
	held, primed = nil, true
	return remove, nil
}
