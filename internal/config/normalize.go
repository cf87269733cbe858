package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBrowser()
	c.normalizeChallenge()
	c.normalizeCheck()
	c.normalizeTerminals()
	if err := c.normalizeWMS(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBrowser() {
	c.Browser.WebDriverURL = strings.TrimSpace(c.Browser.WebDriverURL)
	if c.Browser.WebDriverURL == "" {
		c.Browser.WebDriverURL = defaultWebDriverURL
	}
}

func (c *Config) normalizeChallenge() {
	if c.Challenge.PollSeconds <= 0 {
		c.Challenge.PollSeconds = defaultChallengePollSeconds
	}
	if c.Challenge.SettleSeconds < 0 {
		c.Challenge.SettleSeconds = defaultChallengeSettleSeconds
	}
	if c.Challenge.CeilingSeconds <= 0 {
		c.Challenge.CeilingSeconds = defaultChallengeCeilingSeconds
	}
	if c.Challenge.HeartbeatSeconds <= 0 {
		c.Challenge.HeartbeatSeconds = defaultChallengeHeartbeatSeconds
	}
}

func (c *Config) normalizeCheck() {
	c.Check.Output = strings.ToLower(strings.TrimSpace(c.Check.Output))
	if c.Check.Output == "" {
		c.Check.Output = defaultCheckOutput
	}
}

func (c *Config) normalizeTerminals() {
	if len(c.Terminals) == 0 {
		c.Terminals = defaultTerminals()
	}
	for i := range c.Terminals {
		term := &c.Terminals[i]
		term.Kind = strings.ToLower(strings.TrimSpace(term.Kind))
		term.Name = strings.TrimSpace(term.Name)
		term.URL = strings.TrimSpace(term.URL)
		term.EnvPrefix = strings.ToUpper(strings.TrimSpace(term.EnvPrefix))

		if term.EnvPrefix == "" {
			continue
		}
		if value, ok := os.LookupEnv(term.EnvPrefix + "_USERNAME"); ok && strings.TrimSpace(value) != "" {
			term.Username = strings.TrimSpace(value)
		}
		if value, ok := os.LookupEnv(term.EnvPrefix + "_PASSWORD"); ok && strings.TrimSpace(value) != "" {
			term.Password = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeWMS() error {
	var err error
	c.WMS.LoginURL = strings.TrimSpace(c.WMS.LoginURL)
	c.WMS.InboundURL = strings.TrimSpace(c.WMS.InboundURL)
	c.WMS.OutboundURL = strings.TrimSpace(c.WMS.OutboundURL)
	if c.WMS.Username == "" {
		if value, ok := os.LookupEnv("WMS_USERNAME"); ok {
			c.WMS.Username = strings.TrimSpace(value)
		}
	}
	if c.WMS.Password == "" {
		if value, ok := os.LookupEnv("WMS_PASSWORD"); ok {
			c.WMS.Password = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.WMS.Warehouse) == "" {
		c.WMS.Warehouse = defaultWarehouse
	}
	if c.WMS.UnitsPerPallet <= 0 {
		c.WMS.UnitsPerPallet = defaultUnitsPerPallet
	}
	if strings.TrimSpace(c.WMS.ArchiveDir) != "" {
		if c.WMS.ArchiveDir, err = expandPath(c.WMS.ArchiveDir); err != nil {
			return fmt.Errorf("wms.archive_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
