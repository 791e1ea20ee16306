package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "allowsync.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoad tests loading a full configuration file
func TestLoad(t *testing.T) {
	allowFile := filepath.Join(t.TempDir(), "allow.conf")
	path := writeConfig(t, fmt.Sprintf(`
token = "secret"
allow_file = %q
repeat = 300
after_update_hook = "nginx -s reload"

[api]
timeout = "10s"

[status]
enabled = true
address = ":9090"

[log]
level = "debug"
`, allowFile))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, allowFile, cfg.AllowFile)
	assert.Equal(t, 300, cfg.Repeat)
	assert.Equal(t, 300*time.Second, cfg.Interval())
	assert.Equal(t, "nginx -s reload", cfg.AfterUpdateHook)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.Status.Enabled)
	assert.Equal(t, ":9090", cfg.Status.Address)
	assert.Equal(t, "debug", cfg.Log.Level)
}

// TestLoadDefaults tests defaults for a minimal configuration
func TestLoadDefaults(t *testing.T) {
	allowFile := filepath.Join(t.TempDir(), "allow.conf")
	path := writeConfig(t, fmt.Sprintf(`
token = "secret"
allow_file = %q
repeat = 60
`, allowFile))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.github.com/meta", cfg.API.URL)
	assert.Equal(t, "hooks", cfg.API.Category)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Hook.Timeout)
	assert.False(t, cfg.Status.Enabled)
	assert.Equal(t, ":8081", cfg.Status.Address)
	assert.NotEmpty(t, cfg.Daemon.ID)
	assert.Equal(t, "info", cfg.Log.Level)
}

// TestLoadErrors tests configuration failure modes
func TestLoadErrors(t *testing.T) {
	allowFile := filepath.Join(t.TempDir(), "allow.conf")

	testCases := []struct {
		name    string
		content string
	}{
		{
			name:    "missing token",
			content: fmt.Sprintf("allow_file = %q\nrepeat = 60\n", allowFile),
		},
		{
			name:    "missing allow_file",
			content: "token = \"secret\"\nrepeat = 60\n",
		},
		{
			name:    "zero repeat",
			content: fmt.Sprintf("token = \"secret\"\nallow_file = %q\nrepeat = 0\n", allowFile),
		},
		{
			name:    "negative repeat",
			content: fmt.Sprintf("token = \"secret\"\nallow_file = %q\nrepeat = -5\n", allowFile),
		},
		{
			name: "allow_file directory does not exist",
			content: "token = \"secret\"\nallow_file = \"/nonexistent/dir/allow.conf\"\nrepeat = 60\n",
		},
		{
			name:    "malformed toml",
			content: "token = \"secret\"\nallow_file =\n",
		},
		{
			name: "invalid log level",
			content: fmt.Sprintf("token = \"secret\"\nallow_file = %q\nrepeat = 60\n\n[log]\nlevel = \"loud\"\n", allowFile),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

// TestLoadMissingFile tests that a missing config file is an error
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
