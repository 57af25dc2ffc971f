package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// envPrefix is the prefix of the environment overrides, e.g. GMAIL_LOG_LEVEL
const envPrefix = "gmail"

// envOverrides are settings that may come from the environment
type envOverrides struct {
	AppName         string `envconfig:"APP_NAME"`
	CredentialsPath string `envconfig:"CREDENTIALS_PATH"`
	TokenDir        string `envconfig:"TOKEN_DIR"`
	DownloadDir     string `envconfig:"DOWNLOAD_DIR"`
	LogLevel        string `envconfig:"LOG_LEVEL"`
}

// DefaultPath returns the default config file location
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// Load reads and parses the configuration file. A missing file is not an
// error; defaults are used instead.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, fmt.Errorf("failed to locate config: %w", err)
		}
	}

	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(expandedPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", expandedPath, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return err
	}

	if env.AppName != "" {
		c.Auth.AppName = env.AppName
	}
	if env.CredentialsPath != "" {
		c.Auth.CredentialsPath = env.CredentialsPath
	}
	if env.TokenDir != "" {
		c.Auth.TokenDir = env.TokenDir
	}
	if env.DownloadDir != "" {
		c.Download.Dir = env.DownloadDir
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	return nil
}

// resolvePaths expands ~ and fills unset paths from the XDG roots
func (c *Config) resolvePaths() error {
	var err error

	if c.Auth.CredentialsPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return err
		}
		c.Auth.CredentialsPath = filepath.Join(dir, c.Auth.AppName, "credentials.json")
	}
	if c.Auth.CredentialsPath, err = expandPath(c.Auth.CredentialsPath); err != nil {
		return err
	}

	if c.Auth.TokenDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return err
		}
		c.Auth.TokenDir = filepath.Join(dir, c.Auth.AppName)
	}
	if c.Auth.TokenDir, err = expandPath(c.Auth.TokenDir); err != nil {
		return err
	}

	if c.Download.Dir == "" {
		dir, err := userDataDir()
		if err != nil {
			return err
		}
		c.Download.Dir = filepath.Join(dir, AppName)
	}
	if c.Download.Dir, err = expandPath(c.Download.Dir); err != nil {
		return err
	}

	return nil
}

// userDataDir returns $XDG_DATA_HOME, falling back to ~/.local/share
func userDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.AppName == "" {
		errs = append(errs, errors.New("auth.app_name is required"))
	}
	if c.Auth.Scope == "" {
		errs = append(errs, errors.New("auth.scope is required"))
	}
	if c.Auth.Version == "" {
		errs = append(errs, errors.New("auth.version is required"))
	}
	if c.Auth.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("auth.timeout_seconds must be at least 1"))
	}

	if c.Gmail.UserID == "" {
		errs = append(errs, errors.New("gmail.user_id is required"))
	}
	if c.Gmail.PageSize < 0 || c.Gmail.PageSize > 500 {
		errs = append(errs, errors.New("gmail.page_size must be between 0 and 500"))
	}

	if c.Download.Dir == "" {
		errs = append(errs, errors.New("download.dir is required"))
	}
	if len(c.Download.MimeTypes) == 0 {
		errs = append(errs, errors.New("download.mime_types must not be empty"))
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil || c.Log.Level == "" {
		errs = append(errs, fmt.Errorf("log.level must be one of trace, debug, info, warn, error; got '%s'", c.Log.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EnsureDirectories creates the token and download directories
func (c *Config) EnsureDirectories() error {
	dirs := map[string]os.FileMode{
		c.Auth.TokenDir: 0700,
		c.Download.Dir:  0755,
	}

	for dir, perm := range dirs {
		if err := os.MkdirAll(dir, perm); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Write saves the default configuration file to path unless one exists.
// It reports whether a file was written.
func Write(path string) (bool, error) {
	expandedPath, err := expandPath(path)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(expandedPath); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(expandedPath, []byte(DefaultFile), 0644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}

// DefaultFile is the commented configuration written by `config init`
const DefaultFile = `# gmail CLI configuration

[auth]
# Directory name under $XDG_CONFIG_HOME (credentials.json) and
# $XDG_CACHE_HOME (token files)
app_name = "pygoogle"
scope = "gmail.readonly"
version = "v1"
# credentials_path = "~/.config/pygoogle/credentials.json"
# token_dir = "~/.cache/pygoogle"
timeout_seconds = 300   # how long to wait for the browser consent

[gmail]
user_id = "me"
default_label_ids = ["INBOX"]
page_size = 0           # 0 = server default, max 500

[download]
# dir = "~/.local/share/gmail"
mime_types = ["image/", "video/", "application/pdf"]
recursive_parts = false # true also finds attachments nested below the second level

[log]
level = "info"          # trace, debug, info, warn, error
`
