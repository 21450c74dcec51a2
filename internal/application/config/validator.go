package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/pkg/logger"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := cfg.ValidateConsistency(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if err := validateSecurity(cfg.Security); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	return nil
}

func validateSecurity(sec domain.SecuritySettings) error {
	for _, pattern := range sec.BlockedCommands {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("security.blocked_commands %q invalid: %w", pattern, err)
		}
	}
	for _, dir := range sec.AllowedDirectories {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("security.allowed_directories contains an empty entry")
		}
	}
	for _, entry := range sec.RequireConfirmation {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf("security.require_confirmation contains an empty entry")
		}
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	switch strings.ToLower(history.Backend) {
	case "", domain.HistoryBackendSQLite, domain.HistoryBackendJSONL, domain.HistoryBackendMemory:
		return nil
	default:
		return fmt.Errorf("history.backend must be sqlite|jsonl|memory, got %s", history.Backend)
	}
}
