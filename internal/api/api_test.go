package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"allowsync/internal/allowlist"
	"allowsync/internal/config"
	"allowsync/internal/daemon"
	"allowsync/internal/hook"
	"allowsync/internal/meta"
)

func newTestServer(t *testing.T) *httptest.Server {
	logger := zaptest.NewLogger(t)
	cfg := &config.Config{
		Token:     "test-token",
		AllowFile: filepath.Join(t.TempDir(), "allow.conf"),
		Repeat:    60,
		Daemon:    config.DaemonConfig{ID: "test-daemon"},
		API: config.APIConfig{
			URL:      "https://api.github.com/meta",
			Category: "hooks",
			Timeout:  time.Second,
		},
		Status: config.StatusConfig{Enabled: true, Address: ":0"},
	}

	d, err := daemon.New(cfg,
		meta.NewClient(&cfg.API, cfg.Token, logger),
		allowlist.NewAtomicWriter(),
		hook.NewShellRunner(time.Second, logger),
		logger)
	require.NoError(t, err)

	server := httptest.NewServer(NewServer(cfg, d, logger).Handler())
	t.Cleanup(server.Close)
	return server
}

// TestHealthCheck tests the liveness endpoint
func TestHealthCheck(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestGetStatus tests the status endpoint payload
func TestGetStatus(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/v1/status")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Daemon  daemon.Status `json:"daemon"`
		Version struct {
			Version string `json:"version"`
		} `json:"version"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	assert.Equal(t, "test-daemon", payload.Daemon.ID)
	assert.Zero(t, payload.Daemon.Cycles)
	assert.NotEmpty(t, payload.Version.Version)
}
