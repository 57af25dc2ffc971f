package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Auth.Scope != "gmail.readonly" {
		t.Errorf("expected Scope=gmail.readonly, got %s", cfg.Auth.Scope)
	}

	if cfg.Auth.Version != "v1" {
		t.Errorf("expected Version=v1, got %s", cfg.Auth.Version)
	}

	if cfg.Gmail.UserID != "me" {
		t.Errorf("expected UserID=me, got %s", cfg.Gmail.UserID)
	}

	if len(cfg.Gmail.DefaultLabelIDs) != 1 || cfg.Gmail.DefaultLabelIDs[0] != "INBOX" {
		t.Errorf("expected DefaultLabelIDs=[INBOX], got %v", cfg.Gmail.DefaultLabelIDs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "missing scope",
			modify: func(c *Config) {
				c.Auth.Scope = ""
			},
			wantErr: true,
		},
		{
			name: "page size too large",
			modify: func(c *Config) {
				c.Gmail.PageSize = 501
			},
			wantErr: true,
		},
		{
			name: "no mime types",
			modify: func(c *Config) {
				c.Download.MimeTypes = nil
			},
			wantErr: true,
		},
		{
			name: "unknown log level",
			modify: func(c *Config) {
				c.Log.Level = "loud"
			},
			wantErr: true,
		},
		{
			name: "zero auth timeout",
			modify: func(c *Config) {
				c.Auth.TimeoutSeconds = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Download.Dir = "/tmp/downloads"
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		result, err := expandPath(tt.input)
		if err != nil {
			t.Errorf("expandPath(%q) error: %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

// isolate points every XDG root at a temporary directory
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	for _, key := range []string{"GMAIL_APP_NAME", "GMAIL_CREDENTIALS_PATH", "GMAIL_TOKEN_DIR", "GMAIL_DOWNLOAD_DIR", "GMAIL_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	return root
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	root := isolate(t)

	cfg, err := Load(filepath.Join(root, "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "config", "pygoogle", "credentials.json"), cfg.Auth.CredentialsPath)
	assert.Equal(t, filepath.Join(root, "cache", "pygoogle"), cfg.Auth.TokenDir)
	assert.Equal(t, filepath.Join(root, "data", "gmail"), cfg.Download.Dir)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	root := isolate(t)
	path := filepath.Join(root, "config.toml")
	content := `
[auth]
app_name = "mytool"
timeout_seconds = 60

[gmail]
default_label_ids = ["INBOX", "UNREAD"]
page_size = 100

[download]
dir = "~/attachments"

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("GMAIL_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mytool", cfg.Auth.AppName)
	assert.Equal(t, time.Minute, cfg.Auth.Timeout())
	assert.Equal(t, filepath.Join(root, "cache", "mytool"), cfg.Auth.TokenDir)
	assert.Equal(t, []string{"INBOX", "UNREAD"}, cfg.Gmail.DefaultLabelIDs)
	assert.Equal(t, 100, cfg.Gmail.PageSize)
	assert.Equal(t, filepath.Join(root, "attachments"), cfg.Download.Dir)
	assert.Equal(t, "warn", cfg.Log.Level, "environment wins over the file")
	assert.Equal(t, "gmail.readonly", cfg.Auth.Scope, "unset keys keep defaults")
}

func TestLoad_InvalidFile(t *testing.T) {
	root := isolate(t)
	path := filepath.Join(root, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[gmail\npage_size = "), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestWrite(t *testing.T) {
	root := isolate(t)
	path := filepath.Join(root, "config", "gmail", "config.toml")

	written, err := Write(path)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = Write(path)
	require.NoError(t, err)
	assert.False(t, written, "existing files are left alone")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Download.MimeTypes, cfg.Download.MimeTypes)
}

func TestEnsureDirectories(t *testing.T) {
	root := isolate(t)
	cfg, err := Load(filepath.Join(root, "missing.toml"))
	require.NoError(t, err)

	require.NoError(t, cfg.EnsureDirectories())

	info, err := os.Stat(cfg.Auth.TokenDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.DirExists(t, cfg.Download.Dir)
}

func TestAuthTimeout(t *testing.T) {
	cfg := Default()
	if got := cfg.Auth.Timeout().Seconds(); got != 300 {
		t.Errorf("Timeout() = %v seconds, want 300", got)
	}
}
