package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/models"
	"github.com/asshaltech/bapp-review/internal/portal"
)

type fakeAuthenticator struct {
	calls int
	err   error
}

func (a *fakeAuthenticator) Login(ctx context.Context, username, password string) (string, error) {
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	return fmt.Sprintf("token-%d", a.calls), nil
}

type memStore struct {
	sessions map[models.Portal]*models.Session
	saves    int
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[models.Portal]*models.Session)}
}

func (s *memStore) Save(ctx context.Context, sess *models.Session) error {
	copied := *sess
	s.sessions[sess.Portal] = &copied
	s.saves++
	return nil
}

func (s *memStore) Load(ctx context.Context) ([]*models.Session, error) {
	var out []*models.Session
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out, nil
}

func (s *memStore) DeleteAll(ctx context.Context) error {
	s.sessions = make(map[models.Portal]*models.Session)
	return nil
}

func newTestManager(dac, ds Authenticator, store Store) *Manager {
	return NewManager(dac, ds, store, zap.NewNop())
}

func TestLoginCachesSessionAndCredentials(t *testing.T) {
	auth := &fakeAuthenticator{}
	store := newMemStore()
	m := newTestManager(auth, &fakeAuthenticator{}, store)

	s, err := m.Login(context.Background(), models.PortalDAC, "user", "pass")
	require.NoError(t, err)

	assert.Equal(t, "token-1", s.Token)
	assert.Equal(t, "token-1", m.Token(models.PortalDAC))
	require.True(t, s.HasCredentials())
	assert.Equal(t, "user", s.Credentials.Username)
	assert.Equal(t, 1, store.saves)
}

func TestLoginMissingCredentials(t *testing.T) {
	m := newTestManager(&fakeAuthenticator{}, &fakeAuthenticator{}, nil)

	_, err := m.Login(context.Background(), models.PortalDAC, "", "pass")
	var authErr *portal.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, portal.ReasonMissingCredentials, authErr.Reason)
}

func TestAuthenticatedRequiresBothPortals(t *testing.T) {
	m := newTestManager(&fakeAuthenticator{}, &fakeAuthenticator{}, nil)
	assert.False(t, m.Authenticated())

	_, err := m.Login(context.Background(), models.PortalDAC, "u", "p")
	require.NoError(t, err)
	assert.False(t, m.Authenticated())

	_, err = m.Login(context.Background(), models.PortalDatasource, "u", "p")
	require.NoError(t, err)
	assert.True(t, m.Authenticated())
}

func TestEnsureFreshReusesCachedCredentials(t *testing.T) {
	auth := &fakeAuthenticator{}
	m := newTestManager(auth, &fakeAuthenticator{}, nil)

	_, err := m.Login(context.Background(), models.PortalDAC, "user", "pass")
	require.NoError(t, err)

	fresh, err := m.EnsureFresh(context.Background(), models.PortalDAC)
	require.NoError(t, err)

	assert.Equal(t, 2, auth.calls)
	assert.Equal(t, "token-2", fresh.Token)
	assert.Equal(t, "token-2", m.Token(models.PortalDAC))
}

func TestEnsureFreshWithoutSession(t *testing.T) {
	m := newTestManager(&fakeAuthenticator{}, &fakeAuthenticator{}, nil)

	_, err := m.EnsureFresh(context.Background(), models.PortalDAC)
	var authErr *portal.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, portal.ReasonMissingCredentials, authErr.Reason)
}

func TestEnsureFreshWithoutCredentials(t *testing.T) {
	// A restored token without credentials cannot silently refresh.
	m := newTestManager(&fakeAuthenticator{}, &fakeAuthenticator{}, nil)
	m.SetToken(context.Background(), models.PortalDAC, "restored")

	_, err := m.EnsureFresh(context.Background(), models.PortalDAC)
	var authErr *portal.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestSetTokenRotation(t *testing.T) {
	store := newMemStore()
	m := newTestManager(&fakeAuthenticator{}, &fakeAuthenticator{}, store)

	_, err := m.Login(context.Background(), models.PortalDAC, "user", "pass")
	require.NoError(t, err)

	m.SetToken(context.Background(), models.PortalDAC, "rotated")
	assert.Equal(t, "rotated", m.Token(models.PortalDAC))

	// Credentials survive the rotation for later silent refresh.
	assert.True(t, m.Get(models.PortalDAC).HasCredentials())
	assert.Equal(t, 2, store.saves)

	// An empty rotation is a no-op.
	m.SetToken(context.Background(), models.PortalDAC, "")
	assert.Equal(t, "rotated", m.Token(models.PortalDAC))
}

func TestRestore(t *testing.T) {
	store := newMemStore()
	first := newTestManager(&fakeAuthenticator{}, &fakeAuthenticator{}, store)
	_, err := first.Login(context.Background(), models.PortalDatasource, "user", "pass")
	require.NoError(t, err)

	second := newTestManager(&fakeAuthenticator{}, &fakeAuthenticator{}, store)
	second.Restore(context.Background())

	assert.Equal(t, "token-1", second.Token(models.PortalDatasource))
	assert.True(t, second.Get(models.PortalDatasource).HasCredentials())
}

func TestLogoutClearsEverything(t *testing.T) {
	store := newMemStore()
	m := newTestManager(&fakeAuthenticator{}, &fakeAuthenticator{}, store)

	_, err := m.Login(context.Background(), models.PortalDAC, "u", "p")
	require.NoError(t, err)
	_, err = m.Login(context.Background(), models.PortalDatasource, "u", "p")
	require.NoError(t, err)

	m.Logout(context.Background())

	assert.Empty(t, m.Token(models.PortalDAC))
	assert.Empty(t, m.Token(models.PortalDatasource))
	assert.False(t, m.Authenticated())
	assert.Empty(t, store.sessions)
}
