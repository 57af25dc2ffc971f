package config

import "time"

// AppName names the config, cache and data directories
const AppName = "gmail"

// Config represents the application configuration
type Config struct {
	Auth     AuthConfig     `toml:"auth"`
	Gmail    GmailConfig    `toml:"gmail"`
	Download DownloadConfig `toml:"download"`
	Log      LogConfig      `toml:"log"`
}

// AuthConfig contains OAuth settings
type AuthConfig struct {
	// AppName is the directory under the XDG config and cache roots holding
	// credentials.json and the token files
	AppName         string `toml:"app_name"`
	Scope           string `toml:"scope"`
	Version         string `toml:"version"`
	CredentialsPath string `toml:"credentials_path"`
	TokenDir        string `toml:"token_dir"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Timeout returns how long the interactive authorization may take
func (a AuthConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// GmailConfig contains Gmail-specific settings
type GmailConfig struct {
	UserID          string   `toml:"user_id"`
	DefaultLabelIDs []string `toml:"default_label_ids"`
	PageSize        int      `toml:"page_size"` // 0 leaves the page size to the server
}

// DownloadConfig contains attachment download settings
type DownloadConfig struct {
	Dir string `toml:"dir"`
	// MimeTypes lists accepted types; entries ending in "/" match a prefix
	MimeTypes      []string `toml:"mime_types"`
	RecursiveParts bool     `toml:"recursive_parts"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Auth: AuthConfig{
			AppName:        "pygoogle",
			Scope:          "gmail.readonly",
			Version:        "v1",
			TimeoutSeconds: 300,
		},
		Gmail: GmailConfig{
			UserID:          "me",
			DefaultLabelIDs: []string{"INBOX"},
		},
		Download: DownloadConfig{
			MimeTypes: []string{
				"image/",
				"video/",
				"application/pdf",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
