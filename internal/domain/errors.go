package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies an unsuccessful ExecutionResult.
type ErrorCode string

const (
	CodeUnsupportedAction   ErrorCode = "UnsupportedAction"
	CodeHandlerFailure      ErrorCode = "HandlerFailure"
	CodeTimeout             ErrorCode = "Timeout"
	CodePolicyDenied        ErrorCode = "PolicyDenied"
	CodeUserDeclined        ErrorCode = "UserDeclined"
	CodePendingConfirmation ErrorCode = "PendingConfirmation"
	CodeUnknownConfirmation ErrorCode = "UnknownConfirmation"
)

// ErrorCodeOf extracts the code prefix of r.Error. Successful results have no code.
func ErrorCodeOf(r ExecutionResult) ErrorCode {
	if r.Success || r.Error == "" {
		return ""
	}
	code, _, _ := strings.Cut(r.Error, ":")
	return ErrorCode(strings.TrimSpace(code))
}

var (
	// ErrRegistrySealed is returned when registering after initialization.
	ErrRegistrySealed = errors.New("pattern registry is sealed")
	// ErrUnrecognized is returned by the assistant when fallback mode is off
	// and no rule matched the command.
	ErrUnrecognized = errors.New("command not recognized")
	// ErrNotFound is returned by lookups of absent records or confirmations.
	ErrNotFound = errors.New("not found")
)

// DuplicateActionError reports a second registration of the same action.
// It is a startup misconfiguration.
type DuplicateActionError struct {
	Action Action
	Owner  string
}

func (e *DuplicateActionError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("action %q already registered by %s", e.Action, e.Owner)
	}
	return fmt.Sprintf("action %q already registered", e.Action)
}
