package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gatecheck/internal/config"
)

func setTerminalCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("STO_USERNAME", "sto-user")
	t.Setenv("STO_PASSWORD", "sto-pass")
	t.Setenv("OICT_USERNAME", "oict-user")
	t.Setenv("OICT_PASSWORD", "oict-pass")
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	setTerminalCredentials(t)

	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("config file should not exist")
	}
	if len(cfg.Terminals) != 3 {
		t.Fatalf("default terminals = %d, want 3", len(cfg.Terminals))
	}
	if cfg.Terminals[0].Kind != "trapac" {
		t.Fatalf("first terminal kind = %q", cfg.Terminals[0].Kind)
	}
	if cfg.Browser.WebDriverURL != "http://127.0.0.1:9515" {
		t.Fatalf("webdriver url = %q", cfg.Browser.WebDriverURL)
	}
	if cfg.Challenge.Ceiling() != 5*time.Minute {
		t.Fatalf("challenge ceiling = %v", cfg.Challenge.Ceiling())
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := writeConfig(t, `
[browser]
webdriver_url = "http://127.0.0.1:4444"
headless = true

[challenge]
ceiling_seconds = 120

[check]
parallel = true
output = "json"

[[terminal]]
kind = "trapac"
name = "Trapac"
url = "https://trapac.test/quick-check"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if !cfg.Browser.Headless || cfg.Browser.WebDriverURL != "http://127.0.0.1:4444" {
		t.Fatalf("browser = %+v", cfg.Browser)
	}
	if cfg.Challenge.Ceiling() != 2*time.Minute {
		t.Fatalf("ceiling = %v", cfg.Challenge.Ceiling())
	}
	if cfg.Challenge.PollInterval() != time.Second {
		t.Fatalf("poll interval = %v, want the default", cfg.Challenge.PollInterval())
	}
	if !cfg.Check.Parallel || cfg.Check.Output != "json" {
		t.Fatalf("check = %+v", cfg.Check)
	}
	if len(cfg.Terminals) != 1 || cfg.Terminals[0].Name != "Trapac" {
		t.Fatalf("terminals = %+v", cfg.Terminals)
	}
}

func TestEnvironmentOverridesCredentials(t *testing.T) {
	t.Setenv("STO_USERNAME", "env-user")
	t.Setenv("STO_PASSWORD", "env-pass")

	path := writeConfig(t, `
[[terminal]]
kind = "tideworks"
name = "Shippers Transport"
url = "https://sto.test"
env_prefix = "STO"
username = "file-user"
password = "file-pass"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	term := cfg.Terminals[0]
	if term.Username != "env-user" || term.Password != "env-pass" {
		t.Fatalf("credentials = %q/%q, want env values", term.Username, term.Password)
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	path := writeConfig(t, `
[[terminal]]
kind = "teleport"
name = "Nowhere"
url = "https://nowhere.test"
`)

	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "kind") {
		t.Fatalf("expected kind validation error, got %v", err)
	}
}

func TestValidateRequiresTideworksCredentials(t *testing.T) {
	path := writeConfig(t, `
[[terminal]]
kind = "tideworks"
name = "Shippers Transport"
url = "https://sto.test"
env_prefix = "NOPE"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "NOPE_USERNAME") {
		t.Fatalf("expected credentials error naming the env vars, got %v", err)
	}
}

func TestValidateRejectsBadOutput(t *testing.T) {
	setTerminalCredentials(t)
	path := writeConfig(t, `
[check]
output = "xml"
`)

	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "check.output") {
		t.Fatalf("expected output validation error, got %v", err)
	}
}

func TestValidateWMSRequiresURLs(t *testing.T) {
	setTerminalCredentials(t)
	path := writeConfig(t, `
[wms]
enabled = true
username = "user"
password = "pass"
`)

	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "wms.") {
		t.Fatalf("expected wms validation error, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	setTerminalCredentials(t)

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("sample file should exist")
	}
	if len(cfg.Terminals) != 3 {
		t.Fatalf("sample terminals = %d, want 3", len(cfg.Terminals))
	}
	if cfg.WMS.Enabled {
		t.Fatal("sample should ship with wms disabled")
	}
}

func TestHistoryAndLockPathsUnderDataDir(t *testing.T) {
	setTerminalCredentials(t)
	dataDir := t.TempDir()
	path := writeConfig(t, "[paths]\ndata_dir = \""+dataDir+"\"\n")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if filepath.Dir(cfg.HistoryDBPath()) != dataDir {
		t.Fatalf("history db path = %q", cfg.HistoryDBPath())
	}
	if filepath.Dir(cfg.LockPath()) != dataDir {
		t.Fatalf("lock path = %q", cfg.LockPath())
	}
}
