package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
	// FilePermissions is the permission for files created by actions (rw-r--r--)
	FilePermissions = 0o644
)

// Matching constants
const (
	// DefaultConfidenceThreshold is the minimum confidence for a rule to win
	DefaultConfidenceThreshold = 0.3
	// HighConfidence marks an intent as accurately recognized in metrics
	HighConfidence = 0.8
)

// Timeout and duration constants
const (
	// DefaultShutdownDelay is used by power actions without an explicit delay
	DefaultShutdownDelay = 60 * time.Second
	// MaxDelaySeconds caps scheduled power actions (the Windows shutdown /t limit).
	MaxDelaySeconds = 315360000
	// DefaultConfirmationTTL bounds how long an unanswered confirmation is held
	DefaultConfirmationTTL = 15 * time.Minute
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339Nano
	// DayStampFormat names daily execution log files
	DayStampFormat = "20060102"
)
