package config

import (
	"testing"

	"github.com/doeshing/smartos-go/internal/domain"
)

func TestValidate(t *testing.T) {
	valid := domain.Config{
		ResponseTimeout:     3,
		LogLevel:            "INFO",
		ConfidenceThreshold: 0.3,
		History:             domain.HistorySettings{Backend: "sqlite"},
		Security:            domain.SecuritySettings{BlockedCommands: []string{`rm\s+-rf`}},
	}
	if err := Validate(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*domain.Config)
	}{
		{"bad log level", func(c *domain.Config) { c.LogLevel = "LOUD" }},
		{"bad regex", func(c *domain.Config) { c.Security.BlockedCommands = []string{"("} }},
		{"empty allowed dir", func(c *domain.Config) { c.Security.AllowedDirectories = []string{" "} }},
		{"bad backend", func(c *domain.Config) { c.History.Backend = "redis" }},
		{"threshold", func(c *domain.Config) { c.ConfidenceThreshold = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Security.BlockedCommands = append([]string(nil), valid.Security.BlockedCommands...)
			tt.mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
