package domain

// Config mirrors ~/.smartos/config.yaml.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version"`
	VoiceEnabled        bool               `yaml:"voice_enabled"`
	ResponseTimeout     float64            `yaml:"response_timeout"`
	LogLevel            string             `yaml:"log_level"`
	ConfidenceThreshold float64            `yaml:"confidence_threshold"`
	EnabledCategories   []string           `yaml:"enabled_categories,omitempty"`
	SupportedApps       []AppDefinition    `yaml:"supported_apps"`
	CustomCommands      []CustomCommand    `yaml:"custom_commands,omitempty"`
	FallbackMode        bool               `yaml:"fallback_mode"`
	ScreenshotOnError   bool               `yaml:"screenshot_on_error"`
	BackgroundExecution bool               `yaml:"background_execution"`
	Security            SecuritySettings   `yaml:"security"`
	History             HistorySettings    `yaml:"history"`
	Screenshots         ScreenshotSettings `yaml:"screenshots"`
}

// AppDefinition extends the application catalog.
// Command overrides the platform launch command when set.
type AppDefinition struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
	Command string   `yaml:"command,omitempty"`
}

// CustomCommand declares an extra pattern rule and the command line it runs.
// "{target}" in Command is replaced by the extracted target.
type CustomCommand struct {
	Action   string              `yaml:"action"`
	Category string              `yaml:"category,omitempty"`
	Keywords []string            `yaml:"keywords"`
	Aliases  map[string][]string `yaml:"aliases,omitempty"`
	Targets  map[string][]string `yaml:"targets,omitempty"`
	Command  string              `yaml:"command"`
}

// SecuritySettings configures the policy consulted before handlers run.
type SecuritySettings struct {
	RulesFile           string   `yaml:"rules_file,omitempty"`
	RequireConfirmation []string `yaml:"require_confirmation,omitempty"`
	AllowedDirectories  []string `yaml:"allowed_directories,omitempty"`
	BlockedCommands     []string `yaml:"blocked_commands,omitempty"`
}

// HistorySettings selects where execution records are persisted.
type HistorySettings struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path,omitempty"`
}

// ScreenshotSettings controls error screenshots.
type ScreenshotSettings struct {
	Dir string `yaml:"dir,omitempty"`
}

// History backends.
const (
	HistoryBackendSQLite = "sqlite"
	HistoryBackendJSONL  = "jsonl"
	HistoryBackendMemory = "memory"
)
