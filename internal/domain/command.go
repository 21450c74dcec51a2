// Package domain defines core business entities and value objects for SmartOS.
//
// The domain layer is independent of infrastructure concerns: it holds the
// command/intent/result data model, the configuration model and the error
// taxonomy shared by the application services.
package domain

import (
	"strings"
	"time"
)

// Command is a single user utterance, typed or transcribed.
type Command struct {
	Text      string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCommand builds a Command stamped at now. The timestamp is normalized to
// UTC without a monotonic reading so it survives a JSON round trip unchanged.
func NewCommand(text string, now time.Time) Command {
	return Command{
		Text:      strings.TrimSpace(text),
		Timestamp: now.UTC().Round(0),
	}
}

// IsExitWord reports whether text asks the interactive loop to stop.
func IsExitWord(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "exit", "quit", "stop":
		return true
	default:
		return false
	}
}
