package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/models"
	"github.com/asshaltech/bapp-review/pkg/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.RunMigrations("../../migrations"))
	return db
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	session := &models.Session{
		Portal:      models.PortalDAC,
		Token:       "dac-tok",
		Credentials: &models.Credentials{Username: "user", Password: "pass"},
		RefreshedAt: time.Now(),
	}
	require.NoError(t, repo.Save(ctx, session))

	// Saving the same portal again replaces the row.
	session.Token = "dac-tok-2"
	require.NoError(t, repo.Save(ctx, session))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, models.PortalDAC, loaded[0].Portal)
	assert.Equal(t, "dac-tok-2", loaded[0].Token)
	require.NotNil(t, loaded[0].Credentials)
	assert.Equal(t, "user", loaded[0].Credentials.Username)

	require.NoError(t, repo.DeleteAll(ctx))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSessionRepositoryWithoutCredentials(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Session{
		Portal:      models.PortalDatasource,
		Token:       "ds-tok",
		RefreshedAt: time.Now(),
	}))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Nil(t, loaded[0].Credentials)
}

func TestDecisionRepositoryCreateAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewDecisionRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	first := &models.DecisionLogEntry{
		SerialNumber:  "SN1",
		NPSN:          "100",
		SchoolName:    "SDN 1",
		ExtractedID:   "99",
		ReceiptNumber: "JNE8881",
		Status:        models.StatusAccept,
	}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	second := &models.DecisionLogEntry{
		SerialNumber: "SN2",
		NPSN:         "200",
		ExtractedID:  "101",
		Status:       models.StatusReject,
		Note:         "(5B) Geo Tagging tidak ada",
	}
	require.NoError(t, repo.Create(ctx, second))

	entries, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, "SN2", entries[0].SerialNumber)
	assert.Equal(t, "(5B) Geo Tagging tidak ada", entries[0].Note)
	assert.Equal(t, "SN1", entries[1].SerialNumber)

	limited, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "SN2", limited[0].SerialNumber)
}
