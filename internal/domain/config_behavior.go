package domain

import (
	"fmt"
	"strings"
	"time"
)

// GetResponseTimeout returns the dispatch bound; zero disables it.
func (c *Config) GetResponseTimeout() time.Duration {
	if c.ResponseTimeout <= 0 {
		return 0
	}
	return time.Duration(c.ResponseTimeout * float64(time.Second))
}

// GetConfidenceThreshold returns the matcher threshold, defaulting when unset.
func (c *Config) GetConfidenceThreshold() float64 {
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return DefaultConfidenceThreshold
	}
	return c.ConfidenceThreshold
}

// GetEnabledCategories parses enabled_categories. An empty list enables all.
func (c *Config) GetEnabledCategories() ([]Category, error) {
	var out []Category
	for _, raw := range c.EnabledCategories {
		cat, err := ParseCategory(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

// FindApp searches supported_apps by name.
func (c *Config) FindApp(name string) (AppDefinition, bool) {
	for _, app := range c.SupportedApps {
		if strings.EqualFold(app.Name, name) {
			return app, true
		}
	}
	return AppDefinition{}, false
}

// HasApp checks whether an application is declared.
func (c *Config) HasApp(name string) bool {
	_, ok := c.FindApp(name)
	return ok
}

// AddApp appends an application, rejecting duplicates.
func (c *Config) AddApp(app AppDefinition) error {
	if strings.TrimSpace(app.Name) == "" {
		return fmt.Errorf("application name is required")
	}
	if c.HasApp(app.Name) {
		return fmt.Errorf("application %s already exists", app.Name)
	}
	c.SupportedApps = append(c.SupportedApps, app)
	return nil
}

// GetHistoryBackend returns the configured backend, defaulting to sqlite.
func (c *Config) GetHistoryBackend() string {
	switch strings.ToLower(c.History.Backend) {
	case HistoryBackendJSONL:
		return HistoryBackendJSONL
	case HistoryBackendMemory:
		return HistoryBackendMemory
	default:
		return HistoryBackendSQLite
	}
}

// ShouldCaptureScreenshots reports whether failed results get a screenshot.
func (c *Config) ShouldCaptureScreenshots() bool {
	return c.ScreenshotOnError
}

// ShouldRunInBackground reports whether dispatch is submitted asynchronously.
func (c *Config) ShouldRunInBackground() bool {
	return c.BackgroundExecution
}

// ValidateConsistency checks the internal consistency of the configuration.
func (c *Config) ValidateConsistency() error {
	if c.ResponseTimeout < 0 {
		return fmt.Errorf("response_timeout must be >= 0, got %v", c.ResponseTimeout)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be within [0,1], got %v", c.ConfidenceThreshold)
	}
	if _, err := c.GetEnabledCategories(); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, app := range c.SupportedApps {
		key := strings.ToLower(app.Name)
		if key == "" {
			return fmt.Errorf("supported_apps entry without name")
		}
		if seen[key] {
			return fmt.Errorf("supported_apps lists %s twice", app.Name)
		}
		seen[key] = true
	}
	actions := make(map[string]bool)
	for _, cc := range c.CustomCommands {
		if err := Action(cc.Action).Validate(); err != nil {
			return fmt.Errorf("custom_commands: %w", err)
		}
		if actions[cc.Action] {
			return fmt.Errorf("custom_commands lists action %s twice", cc.Action)
		}
		actions[cc.Action] = true
		if len(cc.Keywords) == 0 {
			return fmt.Errorf("custom_commands %s has no keywords", cc.Action)
		}
		if strings.TrimSpace(cc.Command) == "" {
			return fmt.Errorf("custom_commands %s has no command", cc.Action)
		}
		if cc.Category != "" {
			if _, err := ParseCategory(cc.Category); err != nil {
				return fmt.Errorf("custom_commands %s: %w", cc.Action, err)
			}
		}
	}
	return nil
}
