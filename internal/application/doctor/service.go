package doctor

import (
	"context"
	"fmt"
	"strings"

	appconfig "github.com/doeshing/smartos-go/internal/application/config"
	"github.com/doeshing/smartos-go/internal/application/intent"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/ports"
)

// ActionLister reports which actions have handlers.
type ActionLister interface {
	Actions() []domain.Action
}

// ToolChecker reports platform executables missing from PATH.
type ToolChecker interface {
	Required() []string
	Missing() []string
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Policy         ports.PolicyService
	Dispatcher     ActionLister
	History        ports.HistoryRepository
	Launcher       ports.ProcessLauncher
	Tools          ToolChecker
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded format %s", cfg.ConfigFormatVersion)))

	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config values", err.Error()))
	} else {
		checks = append(checks, ok("Config values", "consistent"))
	}

	checks = append(checks, registryCheck(cfg))

	if s.Dispatcher != nil {
		checks = append(checks, handlerCheck(s.Dispatcher.Actions()))
	}

	if s.Policy != nil {
		probe := domain.Intent{Action: domain.ActionOpenApplication, Target: "calculator", Confidence: 1}
		decision := s.Policy.Evaluate(probe)
		if decision.Verdict == domain.VerdictDeny {
			checks = append(checks, warn("Security policy", "denies a harmless probe: "+strings.Join(decision.Reasons, "; ")))
		} else {
			checks = append(checks, ok("Security policy", "rules loaded"))
		}
	} else {
		checks = append(checks, warn("Security policy", "policy not initialized"))
	}

	if s.History != nil {
		if _, err := s.History.Records(1, ""); err != nil {
			checks = append(checks, fail("Execution history", err.Error()))
		} else {
			checks = append(checks, ok("Execution history", s.History.Path()))
		}
	} else {
		checks = append(checks, warn("Execution history", "records kept in memory only"))
	}

	if s.Launcher == nil {
		checks = append(checks, warn("Process launcher", "not configured; applications cannot be opened"))
	} else {
		checks = append(checks, ok("Process launcher", "available"))
	}

	if s.Tools != nil {
		checks = append(checks, toolsCheck(s.Tools))
	}

	if cfg.VoiceEnabled {
		checks = append(checks, warn("Voice", "voice_enabled is set but no recognizer is installed; using text input"))
	}

	return domain.HealthReport{Checks: checks}, nil
}

func registryCheck(cfg domain.Config) domain.HealthCheck {
	reg, err := intent.BuildRegistry(cfg)
	if err != nil {
		return fail("Pattern registry", err.Error())
	}
	return ok("Pattern registry", fmt.Sprintf("%d rules", reg.Len()))
}

func toolsCheck(tools ToolChecker) domain.HealthCheck {
	if missing := tools.Missing(); len(missing) > 0 {
		return warn("Platform tools", "not on PATH: "+strings.Join(missing, ", "))
	}
	return ok("Platform tools", fmt.Sprintf("%d found", len(tools.Required())))
}

func handlerCheck(actions []domain.Action) domain.HealthCheck {
	have := make(map[domain.Action]bool, len(actions))
	for _, a := range actions {
		have[a] = true
	}
	var missing []string
	for _, a := range domain.BuiltinActions {
		if !have[a] {
			missing = append(missing, string(a))
		}
	}
	if len(missing) > 0 {
		return warn("Action handlers", "missing: "+strings.Join(missing, ", "))
	}
	return ok("Action handlers", fmt.Sprintf("%d actions", len(actions)))
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
