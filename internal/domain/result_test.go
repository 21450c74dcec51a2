package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/smartos-go/internal/domain"
)

func TestIntentJSONRoundTrip(t *testing.T) {
	intents := []domain.Intent{
		domain.UnknownIntent(),
		{Action: domain.ActionOpenApplication, Target: "calculator", Confidence: 1},
		{Action: domain.ActionSystemControl, Target: "shutdown", Parameters: map[string]string{"delay_seconds": "300"}, Confidence: 0.7071067811865476},
	}
	for _, in := range intents {
		raw, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out domain.Intent
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if diff := cmp.Diff(in, out); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestExecutionResultJSONRoundTrip(t *testing.T) {
	results := []domain.ExecutionResult{
		domain.Succeeded("Successfully launched calculator", 1234567*time.Nanosecond),
		domain.Failed("No handler for action", domain.CodeUnsupportedAction, "", 0),
		{Success: false, Message: "boom", ExecutionTime: 3*time.Second + 17, Error: "HandlerFailure: boom", Screenshot: "screenshots/error_1.png"},
		{Success: false, Message: "awaiting confirmation", Error: "PendingConfirmation", ConfirmationID: "abc"},
	}
	for _, in := range results {
		raw, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out domain.ExecutionResult
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if diff := cmp.Diff(in, out); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestExecutionResultWireShape(t *testing.T) {
	raw, err := json.Marshal(domain.Succeeded("ok", 1500*time.Millisecond))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if fields["execution_time"] != 1.5 {
		t.Errorf("execution_time should be seconds, got %v", fields["execution_time"])
	}
	if _, ok := fields["error"]; ok {
		t.Error("error must be omitted on success")
	}
	if _, ok := fields["screenshot"]; ok {
		t.Error("screenshot must be omitted when absent")
	}
}

func TestExecutionRecordJSONRoundTrip(t *testing.T) {
	cmd := domain.NewCommand("  open calculator ", time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.FixedZone("CET", 3600)))
	rec := domain.ExecutionRecord{
		ID:      "7f0c",
		Seq:     4,
		Command: cmd,
		Intent:  domain.Intent{Action: domain.ActionOpenApplication, Target: "calculator", Confidence: 1},
		Result:  domain.Succeeded("Successfully launched calculator", time.Millisecond),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out domain.ExecutionRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(rec, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if out.Command.Text != "open calculator" {
		t.Errorf("command text not trimmed: %q", out.Command.Text)
	}
}

func TestErrorCodeOf(t *testing.T) {
	tests := []struct {
		result domain.ExecutionResult
		want   domain.ErrorCode
	}{
		{domain.Succeeded("ok", 0), ""},
		{domain.Failed("x", domain.CodeTimeout, "", 0), domain.CodeTimeout},
		{domain.Failed("x", "", "exit status 1", 0), domain.CodeHandlerFailure},
		{domain.Failed("x", domain.CodePolicyDenied, "blocked: rm", 0), domain.CodePolicyDenied},
	}
	for _, tt := range tests {
		if got := domain.ErrorCodeOf(tt.result); got != tt.want {
			t.Errorf("ErrorCodeOf(%q) = %q, want %q", tt.result.Error, got, tt.want)
		}
		if !tt.result.Success && tt.result.Error == "" {
			t.Errorf("failed result without error: %+v", tt.result)
		}
	}
}

func TestActionValidate(t *testing.T) {
	for _, ok := range []domain.Action{"open_application", "x1", "custom_backup"} {
		if err := ok.Validate(); err != nil {
			t.Errorf("%s: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []domain.Action{"unknown", "", "Open", "1abc", "has space"} {
		if err := bad.Validate(); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}
