package commands

// Defaults for list-style commands
const (
	DefaultHistorySearchLimit = 50
	DefaultServeAddr          = "127.0.0.1:8787"
)

// Error messages
const (
	ErrHistoryStoreUnavailable  = "history persistence is disabled (history.backend: memory)"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
)

// Success messages
const (
	MsgNoHistoryRecorded = "No history recorded yet."
	MsgHistoryCleared    = "History cleared."
	MsgClearCancelled    = "Clear cancelled."
)
