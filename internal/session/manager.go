// Package session maintains the two independent portal sessions and their
// cached credentials, including silent re-authentication before writes.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/models"
	"github.com/asshaltech/bapp-review/internal/portal"
)

// Authenticator performs a portal login and returns the session token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Store persists sessions across restarts. Implementations must tolerate
// concurrent use from the manager only; the manager serializes access.
type Store interface {
	Save(ctx context.Context, s *models.Session) error
	Load(ctx context.Context) ([]*models.Session, error)
	DeleteAll(ctx context.Context) error
}

// Manager holds both portal sessions. Tokens follow last-write-wins
// semantics: only the submission pipeline mutates a given token at a time,
// so the mutex here guards map access, not ordering.
type Manager struct {
	mu       sync.Mutex
	sessions map[models.Portal]*models.Session
	auth     map[models.Portal]Authenticator
	store    Store
	logger   *zap.Logger
}

// NewManager creates a session manager wired to both portal clients. store
// may be nil for a purely in-memory manager.
func NewManager(dac, datasource Authenticator, store Store, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[models.Portal]*models.Session),
		auth: map[models.Portal]Authenticator{
			models.PortalDAC:        dac,
			models.PortalDatasource: datasource,
		},
		store:  store,
		logger: logger,
	}
}

// Restore loads persisted sessions into memory. Failures are logged and
// ignored: a missing store only forces a fresh login.
func (m *Manager) Restore(ctx context.Context) {
	if m.store == nil {
		return
	}
	sessions, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("Failed to restore persisted sessions", zap.Error(err))
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		m.sessions[s.Portal] = s
		m.logger.Info("Session restored", zap.String("portal", string(s.Portal)))
	}
}

// Login authenticates against one portal and caches the resulting session
// together with the credentials for later silent refresh.
func (m *Manager) Login(ctx context.Context, p models.Portal, username, password string) (*models.Session, error) {
	if username == "" || password == "" {
		return nil, &portal.AuthError{Reason: portal.ReasonMissingCredentials}
	}
	auth, ok := m.auth[p]
	if !ok {
		return nil, &portal.AuthError{Reason: portal.ReasonUpstreamRejected, Message: "unknown portal"}
	}

	token, err := auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	s := &models.Session{
		Portal:      p,
		Token:       token,
		Credentials: &models.Credentials{Username: username, Password: password},
		RefreshedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[p] = s
	m.mu.Unlock()

	m.persist(ctx, s)
	return s, nil
}

// Get returns the cached session for a portal, or nil.
func (m *Manager) Get(p models.Portal) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[p]
}

// Token returns the cached token for a portal, or "".
func (m *Manager) Token(p models.Portal) string {
	if s := m.Get(p); s != nil {
		return s.Token
	}
	return ""
}

// Authenticated reports whether both portals hold a session.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[models.PortalDAC] != nil && m.sessions[models.PortalDatasource] != nil
}

// SetToken replaces a portal's token after an upstream cookie rotation.
// A rotated cookie invalidates the old one server-side, so the replacement
// must stick even mid-flight.
func (m *Manager) SetToken(ctx context.Context, p models.Portal, token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	s := m.sessions[p]
	if s == nil {
		s = &models.Session{Portal: p}
		m.sessions[p] = s
	}
	s.Token = token
	s.RefreshedAt = time.Now()
	m.mu.Unlock()

	m.logger.Debug("Session token rotated", zap.String("portal", string(p)))
	m.persist(ctx, s)
}

// EnsureFresh silently re-authenticates a portal session using cached
// credentials and replaces the token. It either returns a session safe for
// an imminent write or an AuthError; it never hands back a token it knows
// to be stale without trying to refresh first.
func (m *Manager) EnsureFresh(ctx context.Context, p models.Portal) (*models.Session, error) {
	m.mu.Lock()
	s := m.sessions[p]
	m.mu.Unlock()

	if s == nil || !s.HasCredentials() {
		if s != nil {
			return nil, &portal.AuthError{Reason: portal.ReasonMissingCredentials}
		}
		return nil, &portal.AuthError{Reason: portal.ReasonMissingCredentials, Message: "no session for portal"}
	}

	fresh, err := m.Login(ctx, p, s.Credentials.Username, s.Credentials.Password)
	if err != nil {
		return nil, err
	}
	m.logger.Info("Session refreshed", zap.String("portal", string(p)))
	return fresh, nil
}

// Logout clears both portal sessions and all cached credentials at once.
// The portals are not logged out individually.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.sessions = make(map[models.Portal]*models.Session)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.DeleteAll(ctx); err != nil {
			m.logger.Warn("Failed to clear persisted sessions", zap.Error(err))
		}
	}
	m.logger.Info("All sessions cleared")
}

func (m *Manager) persist(ctx context.Context, s *models.Session) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, s); err != nil {
		m.logger.Warn("Failed to persist session",
			zap.String("portal", string(s.Portal)),
			zap.Error(err))
	}
}
