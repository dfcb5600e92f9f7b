package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateSageX(); err != nil {
		return err
	}
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if c.Logging.Verbosity < 0 {
		return errors.New("logging.verbosity must be 0 (critical), 1 (info), or 2 (debug)")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.TargetRoot) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("paths.target_root is required; edit %s (create with 'sagelink config init')", defaultPath)
	}
	if !filepath.IsAbs(c.Paths.TargetRoot) {
		return fmt.Errorf("paths.target_root must be absolute, got %q", c.Paths.TargetRoot)
	}
	return nil
}

func (c *Config) validateLibrary() error {
	for key, value := range map[string]string{
		"library.movies_dir": c.Library.MoviesDir,
		"library.tv_dir":     c.Library.TVDir,
	} {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
		if filepath.IsAbs(value) || strings.Contains(value, "..") {
			return fmt.Errorf("%s must be a plain subdirectory name, got %q", key, value)
		}
	}
	if c.Library.MoviesDir == c.Library.TVDir {
		return errors.New("library.movies_dir and library.tv_dir must differ")
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.Limit < 0 {
		return errors.New("run.limit must be >= 0 (0 disables the limit)")
	}
	return nil
}

func (c *Config) validateSageX() error {
	if c.SageX.Port <= 0 || c.SageX.Port > 65535 {
		return fmt.Errorf("sagex.port must be between 1 and 65535, got %d", c.SageX.Port)
	}
	if c.SageX.User != "" && c.SageX.Password == "" {
		return errors.New("sagex.password must be set when sagex.user is set (or set SAGEX_PASSWORD)")
	}
	return nil
}

func (c *Config) validateJellyfin() error {
	if !c.Jellyfin.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Jellyfin.URL) == "" {
		return errors.New("jellyfin.url must be set when jellyfin.enabled is true")
	}
	if strings.TrimSpace(c.Jellyfin.APIKey) == "" {
		return errors.New("jellyfin.api_key must be set when jellyfin.enabled is true")
	}
	return nil
}
