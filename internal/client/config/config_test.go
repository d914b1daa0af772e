package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerEndpointAddr)
	assert.Equal(t, "speakfluent.db", c.DatabasePath)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerEndpointAddr)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestParseJson_Overlays(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	jc := map[string]any{
		"server_endpoint_addr": "http://example.test:9000",
		"database_path":        "/tmp/cache.db",
		"request_timeout":      "5s",
	}
	data, err := json.Marshal(jc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	origArgs := os.Args
	os.Args = []string{"client", "-c", path}
	t.Cleanup(func() { os.Args = origArgs })

	var cfg Config
	cfg.LoadDefaults()
	parseJson(&cfg)

	assert.Equal(t, "http://example.test:9000", cfg.ServerEndpointAddr)
	assert.Equal(t, "/tmp/cache.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}
