package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
dac:
  base_url: "https://dac.example"
datasource:
  base_url: "https://ds.example"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/bapp-review.db", cfg.Database.Path)
	assert.Equal(t, "84817", cfg.Datasource.ProbeFormID)
	assert.Equal(t, "DAC", cfg.Worklist.Type)
	assert.Equal(t, "Proses", cfg.Worklist.InProcessStatus)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestValidateRequiresPortalURLs(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dac.base_url")
}
