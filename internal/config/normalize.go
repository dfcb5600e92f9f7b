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
	c.normalizeLibrary()
	c.normalizeSageX()
	c.normalizeJellyfin()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.TargetRoot, err = expandPath(strings.TrimSpace(c.Paths.TargetRoot)); err != nil {
		return fmt.Errorf("paths.target_root: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() {
	c.Library.MoviesDir = strings.TrimSpace(c.Library.MoviesDir)
	if c.Library.MoviesDir == "" {
		c.Library.MoviesDir = defaultMoviesDir
	}
	c.Library.TVDir = strings.TrimSpace(c.Library.TVDir)
	if c.Library.TVDir == "" {
		c.Library.TVDir = defaultTVDir
	}
}

func (c *Config) normalizeSageX() {
	c.SageX.Host = strings.TrimSpace(c.SageX.Host)
	if c.SageX.Host == "" {
		c.SageX.Host = defaultSageXHost
	}
	if c.SageX.Port == 0 {
		c.SageX.Port = defaultSageXPort
	}
	c.SageX.User = strings.TrimSpace(c.SageX.User)
	if c.SageX.Password == "" {
		if value, ok := os.LookupEnv("SAGEX_PASSWORD"); ok {
			c.SageX.Password = value
		}
	}
	if c.SageX.PageSize <= 0 {
		c.SageX.PageSize = defaultSageXPageSize
	}
	if c.SageX.TimeoutSeconds <= 0 {
		c.SageX.TimeoutSeconds = defaultSageXTimeoutSeconds
	}
}

func (c *Config) normalizeJellyfin() {
	if c.Jellyfin.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYFIN_API_KEY"); ok {
			c.Jellyfin.APIKey = strings.TrimSpace(value)
		}
	}
	c.Jellyfin.URL = strings.TrimSpace(c.Jellyfin.URL)
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
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
	if c.Logging.Verbosity > 2 {
		c.Logging.Verbosity = 2
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
