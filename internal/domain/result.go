package domain

import (
	"encoding/json"
	"math"
	"time"
)

// ExecutionResult is the uniform outcome of dispatching an Intent.
// A failed result always carries a non-empty Error.
type ExecutionResult struct {
	Success        bool
	Message        string
	ExecutionTime  time.Duration
	Error          string
	Screenshot     string
	ConfirmationID string
}

// Succeeded builds a successful result.
func Succeeded(message string, elapsed time.Duration) ExecutionResult {
	return ExecutionResult{Success: true, Message: message, ExecutionTime: nonNegative(elapsed)}
}

// Failed builds an unsuccessful result; an empty code is replaced by
// HandlerFailure so the result never violates the error invariant.
func Failed(message string, code ErrorCode, detail string, elapsed time.Duration) ExecutionResult {
	if code == "" {
		code = CodeHandlerFailure
	}
	errText := string(code)
	if detail != "" {
		errText += ": " + detail
	}
	return ExecutionResult{
		Success:       false,
		Message:       message,
		ExecutionTime: nonNegative(elapsed),
		Error:         errText,
	}
}

// Pending reports whether the result awaits an external confirm/deny.
func (r ExecutionResult) Pending() bool {
	return !r.Success && r.ConfirmationID != "" && ErrorCodeOf(r) == CodePendingConfirmation
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

type resultJSON struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	ExecutionTime  float64 `json:"execution_time"`
	Error          string  `json:"error,omitempty"`
	Screenshot     string  `json:"screenshot,omitempty"`
	ConfirmationID string  `json:"confirmation_id,omitempty"`
}

// MarshalJSON encodes execution_time as seconds.
func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Success:        r.Success,
		Message:        r.Message,
		ExecutionTime:  r.ExecutionTime.Seconds(),
		Error:          r.Error,
		Screenshot:     r.Screenshot,
		ConfirmationID: r.ConfirmationID,
	})
}

// UnmarshalJSON decodes execution_time from seconds, rounding to the nearest nanosecond.
func (r *ExecutionResult) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ExecutionResult{
		Success:        raw.Success,
		Message:        raw.Message,
		ExecutionTime:  time.Duration(math.Round(raw.ExecutionTime * float64(time.Second))),
		Error:          raw.Error,
		Screenshot:     raw.Screenshot,
		ConfirmationID: raw.ConfirmationID,
	}
	return nil
}

// ExecutionRecord is one append-only log entry.
type ExecutionRecord struct {
	ID      string          `json:"id"`
	Seq     uint64          `json:"seq"`
	Command Command         `json:"-"`
	Intent  Intent          `json:"intent"`
	Result  ExecutionResult `json:"result"`
}

type recordJSON struct {
	ID        string          `json:"id"`
	Seq       uint64          `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Command   string          `json:"command"`
	Intent    Intent          `json:"intent"`
	Result    ExecutionResult `json:"result"`
}

// MarshalJSON flattens the command into the wire record shape.
func (r ExecutionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:        r.ID,
		Seq:       r.Seq,
		Timestamp: r.Command.Timestamp,
		Command:   r.Command.Text,
		Intent:    r.Intent,
		Result:    r.Result,
	})
}

// UnmarshalJSON restores a record from the wire shape.
func (r *ExecutionRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ExecutionRecord{
		ID:      raw.ID,
		Seq:     raw.Seq,
		Command: Command{Text: raw.Command, Timestamp: raw.Timestamp},
		Intent:  raw.Intent,
		Result:  raw.Result,
	}
	return nil
}
