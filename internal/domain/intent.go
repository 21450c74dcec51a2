package domain

import (
	"fmt"
	"regexp"
)

// Action names what an Intent asks the system to do.
type Action string

const (
	ActionUnknown         Action = "unknown"
	ActionOpenApplication Action = "open_application"
	ActionFileOperation   Action = "file_operation"
	ActionSystemControl   Action = "system_control"
	ActionContentCreation Action = "content_creation"
)

// BuiltinActions lists the closed set of actions shipped with SmartOS.
var BuiltinActions = []Action{
	ActionOpenApplication,
	ActionFileOperation,
	ActionSystemControl,
	ActionContentCreation,
}

var actionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks that a is usable as a registered action name.
func (a Action) Validate() error {
	if a == ActionUnknown {
		return fmt.Errorf("action %q is reserved", a)
	}
	if !actionNamePattern.MatchString(string(a)) {
		return fmt.Errorf("action %q must match %s", a, actionNamePattern)
	}
	return nil
}

// Category groups actions for matching and security policy.
type Category string

const (
	CategoryApplications Category = "applications"
	CategoryFiles        Category = "files"
	CategorySystem       Category = "system"
	CategoryContent      Category = "content"
	CategoryCustom       Category = "custom"
)

// ParseCategory maps a config value onto a known category.
func ParseCategory(value string) (Category, error) {
	switch c := Category(value); c {
	case CategoryApplications, CategoryFiles, CategorySystem, CategoryContent, CategoryCustom:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", value)
	}
}

// Intent is the structured interpretation of a Command.
type Intent struct {
	Action     Action            `json:"action"`
	Target     string            `json:"target,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Confidence float64           `json:"confidence"`
}

// UnknownIntent is the sentinel returned when no rule matched above threshold.
func UnknownIntent() Intent {
	return Intent{Action: ActionUnknown, Confidence: 0}
}

// IsUnknown reports whether i is the "no match" sentinel.
func (i Intent) IsUnknown() bool {
	return i.Action == ActionUnknown || i.Action == ""
}

// Param returns a parameter value or fallback when absent.
func (i Intent) Param(key, fallback string) string {
	if v, ok := i.Parameters[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Well-known intent parameter keys.
const (
	ParamFilename     = "filename"
	ParamDestination  = "destination"
	ParamTopic        = "topic"
	ParamContent      = "content"
	ParamDelaySeconds = "delay_seconds"
	ParamOperation    = "operation"
)
