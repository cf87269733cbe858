package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
	DownloadDir string `toml:"download_dir"`
}

// Browser contains WebDriver connection settings shared by every session.
type Browser struct {
	WebDriverURL string `toml:"webdriver_url"`
	Headless     bool   `toml:"headless"`
}

// Challenge contains the verification-wait intervals, in seconds.
type Challenge struct {
	PollSeconds      int `toml:"poll_seconds"`
	SettleSeconds    int `toml:"settle_seconds"`
	CeilingSeconds   int `toml:"ceiling_seconds"`
	HeartbeatSeconds int `toml:"heartbeat_seconds"`
}

// PollInterval returns the challenge poll interval as a duration.
func (c Challenge) PollInterval() time.Duration { return time.Duration(c.PollSeconds) * time.Second }

// SettleDelay returns the post-resolution settle delay as a duration.
func (c Challenge) SettleDelay() time.Duration { return time.Duration(c.SettleSeconds) * time.Second }

// Ceiling returns the maximum wait as a duration.
func (c Challenge) Ceiling() time.Duration { return time.Duration(c.CeilingSeconds) * time.Second }

// Heartbeat returns the progress-log interval as a duration.
func (c Challenge) Heartbeat() time.Duration { return time.Duration(c.HeartbeatSeconds) * time.Second }

// Check contains defaults for the check command.
type Check struct {
	Parallel bool `toml:"parallel"`
	// Output is table, csv, json, or auto (tty-aware).
	Output string `toml:"output"`
}

// Terminal describes one terminal website to query. Order in the config file
// is the priority order for sequential checks.
type Terminal struct {
	// Kind selects the adapter: trapac or tideworks.
	Kind string `toml:"kind"`
	Name string `toml:"name"`
	URL  string `toml:"url"`
	// EnvPrefix names the environment variables holding credentials:
	// <PREFIX>_USERNAME and <PREFIX>_PASSWORD override the file values.
	EnvPrefix string `toml:"env_prefix"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// WMS contains warehouse site settings.
type WMS struct {
	Enabled     bool   `toml:"enabled"`
	LoginURL    string `toml:"login_url"`
	InboundURL  string `toml:"inbound_url"`
	OutboundURL string `toml:"outbound_url"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	Warehouse   string `toml:"warehouse"`
	// UnitsPerPallet converts pallet counts to unit totals.
	UnitsPerPallet int `toml:"units_per_pallet"`
	// ArchiveDir receives a copy of each inventory export.
	ArchiveDir string `toml:"archive_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and browser download directories
//   - Browser: WebDriver endpoint and headless toggle
//   - Challenge: human-verification wait intervals
//   - Check: check command defaults
//   - Terminals: one entry per terminal website, in priority order
//   - WMS: warehouse site URLs and credentials
//   - Logging: log format and level
type Config struct {
	Paths     Paths      `toml:"paths"`
	Browser   Browser    `toml:"browser"`
	Challenge Challenge  `toml:"challenge"`
	Check     Check      `toml:"check"`
	Terminals []Terminal `toml:"terminal"`
	WMS       WMS        `toml:"wms"`
	Logging   Logging    `toml:"logging"`
}

// HistoryDBPath returns the location of the run history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// LockPath returns the single-instance lock file location. Concurrent runs
// would fight over the browser profile and download directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "gatecheck.lock")
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gatecheck/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gatecheck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.DownloadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
