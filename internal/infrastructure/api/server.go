// Package api exposes the command pipeline over HTTP (huma on a chi router).
package api

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/doeshing/smartos-go/internal/application/assistant"
	"github.com/doeshing/smartos-go/internal/application/dispatch"
	"github.com/doeshing/smartos-go/internal/application/recorder"
	"github.com/doeshing/smartos-go/internal/domain"
)

// CommandService runs commands and settles confirmations.
type CommandService interface {
	Handle(ctx context.Context, text string) (assistant.Response, error)
	Resolve(ctx context.Context, id string, approved bool) (assistant.Response, error)
}

// RecordSource reads the execution log.
type RecordSource interface {
	Query(f recorder.Filter) iter.Seq[domain.ExecutionRecord]
}

// ConfirmationLister lists actions awaiting confirmation.
type ConfirmationLister interface {
	PendingConfirmations() []dispatch.Pending
}

// HealthChecker produces a diagnostic report.
type HealthChecker interface {
	Run(ctx context.Context) (domain.HealthReport, error)
}

// Config for the HTTP API handler.
type Config struct {
	Commands      CommandService
	Records       RecordSource
	Confirmations ConfirmationLister
	Health        HealthChecker
	BasePath      string
	// Clock anchors the last-hour and last-day metrics; defaults to time.Now.
	Clock func() time.Time
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"confirmation not found"`
	Details map[string]any `json:"details,omitempty"`
}

// apiError is the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the SmartOS API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Commands == nil || cfg.Records == nil || cfg.Confirmations == nil {
		return nil, errors.New("api: commands, records and confirmations are required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	hcfg := huma.DefaultConfig("SmartOS API", "1.0.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group, cfg.Health)
	registerCommands(group, cfg.Commands)
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	registerRecords(group, cfg.Records, clock)
	registerConfirmations(group, cfg.Confirmations, cfg.Commands)
	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{status: status, Body: apiErrorBody{Code: code, Message: message, Details: details}}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "unprocessable"
	default:
		if status >= 500 {
			return "internal"
		}
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API, checker HealthChecker) {
	type healthBody struct {
		Status string              `json:"status" enum:"ok,degraded"`
		Checks []domain.HealthCheck `json:"checks,omitempty"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body healthBody `json:"body"`
	}, error) {
		out := &struct {
			Body healthBody `json:"body"`
		}{Body: healthBody{Status: "ok"}}
		if checker == nil {
			return out, nil
		}
		report, err := checker.Run(ctx)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "", err.Error(), nil)
		}
		out.Body.Checks = report.Checks
		if !report.Healthy() {
			out.Body.Status = "degraded"
		}
		return out, nil
	})
}

func registerCommands(api huma.API, commands CommandService) {
	huma.Register(api, huma.Operation{
		OperationID: "run-command",
		Method:      http.MethodPost,
		Path:        "/commands",
		Summary:     "Recognize, dispatch and record a command",
		Errors:      []int{http.StatusBadRequest, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body CommandRequest `json:"body"`
	}) (*struct {
		Body CommandResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Text) == "" {
			return nil, newAPIError(http.StatusBadRequest, "", "text is required", nil)
		}
		resp, err := commands.Handle(ctx, input.Body.Text)
		if errors.Is(err, domain.ErrUnrecognized) {
			return nil, newAPIError(http.StatusUnprocessableEntity, "unrecognized", err.Error(),
				map[string]any{"record_id": resp.Record.ID})
		}
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "", err.Error(), nil)
		}
		return &struct {
			Body CommandResponse `json:"body"`
		}{Body: toCommandResponse(resp)}, nil
	})
}

type recordQuery struct {
	Action  string `query:"action" doc:"Only records of this action"`
	Success string `query:"success" doc:"true or false"`
	Since   string `query:"since" doc:"RFC3339, inclusive"`
	Until   string `query:"until" doc:"RFC3339, exclusive"`
	Limit   int    `query:"limit" minimum:"0" doc:"Newest N records; 0 returns all"`
}

func (q recordQuery) filter() (recorder.Filter, error) {
	f := recorder.Filter{Action: domain.Action(q.Action)}
	if q.Success != "" {
		ok, err := strconv.ParseBool(q.Success)
		if err != nil {
			return f, newAPIError(http.StatusBadRequest, "", "success must be true or false", nil)
		}
		f.Success = &ok
	}
	var err error
	if f.Since, err = parseTime("since", q.Since); err != nil {
		return f, err
	}
	if f.Until, err = parseTime("until", q.Until); err != nil {
		return f, err
	}
	return f, nil
}

func parseTime(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, newAPIError(http.StatusBadRequest, "", name+" must be RFC3339", map[string]any{"value": value})
	}
	return t, nil
}

func registerRecords(api huma.API, records RecordSource, clock func() time.Time) {
	huma.Register(api, huma.Operation{
		OperationID: "list-records",
		Method:      http.MethodGet,
		Path:        "/records",
		Summary:     "List execution records in append order",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *recordQuery) (*struct {
		Body []RecordDTO `json:"body"`
	}, error) {
		f, err := input.filter()
		if err != nil {
			return nil, err
		}
		out := []RecordDTO{}
		for rec := range records.Query(f) {
			out = append(out, toRecordDTO(rec))
		}
		if input.Limit > 0 && len(out) > input.Limit {
			out = out[len(out)-input.Limit:]
		}
		return &struct {
			Body []RecordDTO `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "metrics",
		Method:      http.MethodGet,
		Path:        "/metrics",
		Summary:     "Summarize execution records",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *recordQuery) (*struct {
		Body recorder.Metrics `json:"body"`
	}, error) {
		f, err := input.filter()
		if err != nil {
			return nil, err
		}
		return &struct {
			Body recorder.Metrics `json:"body"`
		}{Body: recorder.Summarize(records.Query(f), clock())}, nil
	})
}

func registerConfirmations(api huma.API, lister ConfirmationLister, commands CommandService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-confirmations",
		Method:      http.MethodGet,
		Path:        "/confirmations",
		Summary:     "List actions awaiting confirmation",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []dispatch.Pending `json:"body"`
	}, error) {
		pending := lister.PendingConfirmations()
		if pending == nil {
			pending = []dispatch.Pending{}
		}
		return &struct {
			Body []dispatch.Pending `json:"body"`
		}{Body: pending}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resolve-confirmation",
		Method:      http.MethodPost,
		Path:        "/confirmations/{id}",
		Summary:     "Approve or decline a held action",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string         `path:"id"`
		Body ResolveRequest `json:"body"`
	}) (*struct {
		Body CommandResponse `json:"body"`
	}, error) {
		resp, err := commands.Resolve(ctx, input.ID, input.Body.Approve)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, newAPIError(http.StatusNotFound, "", err.Error(), map[string]any{"id": input.ID})
		}
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "", err.Error(), nil)
		}
		return &struct {
			Body CommandResponse `json:"body"`
		}{Body: toCommandResponse(resp)}, nil
	})
}
