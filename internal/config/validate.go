package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBrowser(); err != nil {
		return err
	}
	if err := c.validateChallenge(); err != nil {
		return err
	}
	if err := c.validateCheck(); err != nil {
		return err
	}
	if err := c.validateTerminals(); err != nil {
		return err
	}
	if err := c.validateWMS(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBrowser() error {
	if c.Browser.WebDriverURL == "" {
		return errors.New("browser.webdriver_url must be set")
	}
	return nil
}

func (c *Config) validateChallenge() error {
	if c.Challenge.CeilingSeconds <= c.Challenge.PollSeconds {
		return errors.New("challenge.ceiling_seconds must be greater than challenge.poll_seconds")
	}
	return nil
}

func (c *Config) validateCheck() error {
	switch c.Check.Output {
	case "auto", "table", "csv", "json":
		return nil
	default:
		return fmt.Errorf("check.output %q must be auto, table, csv, or json", c.Check.Output)
	}
}

func (c *Config) validateTerminals() error {
	if len(c.Terminals) == 0 {
		return errors.New("at least one [[terminal]] must be configured")
	}
	seen := make(map[string]struct{}, len(c.Terminals))
	for i, term := range c.Terminals {
		if term.Name == "" {
			return fmt.Errorf("terminal %d: name must be set", i+1)
		}
		if _, dup := seen[term.Name]; dup {
			return fmt.Errorf("terminal %q is configured twice", term.Name)
		}
		seen[term.Name] = struct{}{}
		if term.URL == "" {
			return fmt.Errorf("terminal %q: url must be set", term.Name)
		}
		switch term.Kind {
		case "trapac":
		case "tideworks":
			if term.Username == "" || term.Password == "" {
				hint := "set username/password in the config"
				if term.EnvPrefix != "" {
					hint = fmt.Sprintf("set %s_USERNAME and %s_PASSWORD", term.EnvPrefix, term.EnvPrefix)
				}
				return fmt.Errorf("terminal %q requires credentials (%s)", term.Name, hint)
			}
		default:
			return fmt.Errorf("terminal %q: kind %q must be trapac or tideworks", term.Name, term.Kind)
		}
	}
	return nil
}

func (c *Config) validateWMS() error {
	if !c.WMS.Enabled {
		return nil
	}
	for key, value := range map[string]string{
		"wms.login_url":    c.WMS.LoginURL,
		"wms.inbound_url":  c.WMS.InboundURL,
		"wms.outbound_url": c.WMS.OutboundURL,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set when wms.enabled is true", key)
		}
	}
	if c.WMS.Username == "" || c.WMS.Password == "" {
		return errors.New("wms credentials must be set when wms.enabled is true (config or WMS_USERNAME/WMS_PASSWORD)")
	}
	return nil
}
