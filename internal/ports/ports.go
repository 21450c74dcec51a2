// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core (matcher,
// dispatcher, recorder, evaluator) and external adapters (infrastructure).
// Operating-system effects such as launching processes, touching files or
// capturing the screen only ever happen behind these interfaces.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., ActionHandler, PolicyService)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/doeshing/smartos-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.smartos/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// HandlerOutcome is what an ActionHandler reports for a single intent.
type HandlerOutcome struct {
	Success bool
	Message string
}

// ActionHandler executes intents for the actions it declares.
// This is the seam plugins and built-in actions share.
type ActionHandler interface {
	Execute(ctx context.Context, intent domain.Intent) (HandlerOutcome, error)
	SupportedActions() []domain.Action
}

// PolicyService evaluates intents against security settings before a handler runs.
type PolicyService interface {
	Evaluate(intent domain.Intent) domain.PolicyDecision
}

// ScreenshotCapturer captures the screen and returns a reference (usually a path).
type ScreenshotCapturer interface {
	Capture(ctx context.Context) (string, error)
}

// ProcessLauncher starts or runs external programs.
// Start returns once the process is spawned; Run waits for it to exit.
type ProcessLauncher interface {
	Start(ctx context.Context, commandLine string) error
	Run(ctx context.Context, commandLine string) (string, error)
}

// ConfirmationPrompter handles interactive user confirmations for guarded actions.
type ConfirmationPrompter interface {
	Confirm(intent domain.Intent, reasons []string) (bool, error)
	Enabled() bool
}

// ExecutionSink persists execution records outside the process.
type ExecutionSink interface {
	Append(record domain.ExecutionRecord) error
}

// Rotator is implemented by sinks that can start a new segment.
type Rotator interface {
	Rotate() error
}

// HistoryRepository reads persisted execution records back.
type HistoryRepository interface {
	ExecutionSink
	Records(limit int, search string) ([]domain.ExecutionRecord, error)
	Clear() error
	ExportJSON(dest string) error
	Path() string
}

// SpeechRecognizer turns captured audio into command text.
type SpeechRecognizer interface {
	Listen(ctx context.Context) (string, error)
}

// Speaker renders assistant replies as speech.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
