package api

import (
	"time"

	"github.com/doeshing/smartos-go/internal/application/assistant"
	"github.com/doeshing/smartos-go/internal/domain"
)

// Request payloads

type CommandRequest struct {
	Text string `json:"text" doc:"Free-text command" example:"open calculator"`
}

type ResolveRequest struct {
	Approve bool `json:"approve" doc:"true runs the held action, false declines it"`
}

// Response payloads

// ResultDTO mirrors the JSON wire shape of domain.ExecutionResult.
type ResultDTO struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	ExecutionTime  float64 `json:"execution_time" doc:"Seconds"`
	Error          string  `json:"error,omitempty"`
	Screenshot     string  `json:"screenshot,omitempty"`
	ConfirmationID string  `json:"confirmation_id,omitempty"`
}

type RecordDTO struct {
	ID        string        `json:"id"`
	Seq       uint64        `json:"seq"`
	Timestamp time.Time     `json:"timestamp"`
	Command   string        `json:"command"`
	Intent    domain.Intent `json:"intent"`
	Result    ResultDTO     `json:"result"`
}

type CommandResponse struct {
	Record        RecordDTO `json:"record"`
	Reply         string    `json:"reply"`
	Clarification bool      `json:"clarification,omitempty"`
}

func toRecordDTO(rec domain.ExecutionRecord) RecordDTO {
	return RecordDTO{
		ID:        rec.ID,
		Seq:       rec.Seq,
		Timestamp: rec.Command.Timestamp,
		Command:   rec.Command.Text,
		Intent:    rec.Intent,
		Result: ResultDTO{
			Success:        rec.Result.Success,
			Message:        rec.Result.Message,
			ExecutionTime:  rec.Result.ExecutionTime.Seconds(),
			Error:          rec.Result.Error,
			Screenshot:     rec.Result.Screenshot,
			ConfirmationID: rec.Result.ConfirmationID,
		},
	}
}

func toCommandResponse(resp assistant.Response) CommandResponse {
	return CommandResponse{
		Record:        toRecordDTO(resp.Record),
		Reply:         resp.Reply,
		Clarification: resp.Clarification,
	}
}
