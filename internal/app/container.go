package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"

	"github.com/doeshing/smartos-go/internal/application/assistant"
	appconfig "github.com/doeshing/smartos-go/internal/application/config"
	"github.com/doeshing/smartos-go/internal/application/dispatch"
	"github.com/doeshing/smartos-go/internal/application/doctor"
	"github.com/doeshing/smartos-go/internal/application/intent"
	"github.com/doeshing/smartos-go/internal/application/recorder"
	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/infrastructure/config"
	"github.com/doeshing/smartos-go/internal/infrastructure/executor"
	"github.com/doeshing/smartos-go/internal/infrastructure/handlers"
	"github.com/doeshing/smartos-go/internal/infrastructure/history"
	"github.com/doeshing/smartos-go/internal/infrastructure/platform"
	"github.com/doeshing/smartos-go/internal/infrastructure/screenshot"
	"github.com/doeshing/smartos-go/internal/infrastructure/security"
	"github.com/doeshing/smartos-go/internal/pkg/filesystem"
	"github.com/doeshing/smartos-go/internal/pkg/logger"
	"github.com/doeshing/smartos-go/internal/ports"
)

// Options tune how the container is assembled.
type Options struct {
	ConfigPath string
	Verbose    bool
	// DryRun registers simulated handlers and never starts processes.
	DryRun bool
	// Override adjusts the loaded configuration (flags, environment).
	Override func(*domain.Config)
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigLoader   *config.FileLoader
	Logger         *logger.ZapLogger
	Registry       *intent.Registry
	Matcher        *intent.Matcher
	Policy         *security.Guardrail
	Launcher       ports.ProcessLauncher
	Dispatcher     *dispatch.Dispatcher
	Recorder       *recorder.Recorder
	HistoryStore   ports.HistoryRepository
	Assistant      *assistant.Service
	DoctorService  *doctor.Service
	DryRunLauncher *executor.DryRunLauncher

	closers []func() error
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Override != nil {
		opts.Override(&cfg)
	}
	if err := appconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgLoader.Path(), err)
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = "DEBUG"
	}
	log, err := logger.NewZap(level)
	if err != nil {
		return nil, err
	}

	registry, err := intent.BuildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("build pattern registry: %w", err)
	}
	categories, err := cfg.GetEnabledCategories()
	if err != nil {
		return nil, err
	}
	matcher := intent.NewMatcher(registry,
		intent.WithThreshold(cfg.GetConfidenceThreshold()),
		intent.WithCategories(categories...))

	categoryOf := func(a domain.Action) (domain.Category, bool) {
		rule, ok := registry.Lookup(a)
		return rule.Category, ok
	}
	guardrail, err := security.NewGuardrail(cfg.Security, security.WithCategoryLookup(categoryOf))
	if err != nil {
		log.Warn("policy rules unusable, falling back to defaults", map[string]interface{}{"error": err.Error()})
		guardrail, err = security.NewGuardrail(domain.SecuritySettings{}, security.WithCategoryLookup(categoryOf))
		if err != nil {
			return nil, err
		}
	}

	c := &Container{
		Config:       cfg,
		ConfigLoader: cfgLoader,
		Logger:       log,
		Registry:     registry,
		Matcher:      matcher,
		Policy:       guardrail,
	}
	if opts.DryRun {
		c.DryRunLauncher = &executor.DryRunLauncher{}
		c.Launcher = c.DryRunLauncher
	} else {
		c.Launcher = executor.NewLocalLauncher("", log)
	}

	c.Dispatcher = dispatch.New(dispatch.OptionsFromConfig(cfg), dispatch.Dependencies{
		Policy:      guardrail,
		Screenshots: screenshot.NewCapturer(c.Launcher, afero.NewOsFs(), cfg.Screenshots.Dir),
		Logger:      log,
	})
	for _, h := range c.actionHandlers(cfg, opts.DryRun) {
		if err := c.Dispatcher.Register(h); err != nil {
			return nil, fmt.Errorf("register handler: %w", err)
		}
	}

	var sinks []ports.ExecutionSink
	if store := c.openHistory(cfg); store != nil {
		c.HistoryStore = store
		sinks = append(sinks, store)
	}
	c.Recorder = recorder.New(log, sinks...)

	c.Assistant = &assistant.Service{
		Matcher:      matcher,
		Dispatcher:   c.Dispatcher,
		Recorder:     c.Recorder,
		Logger:       log,
		FallbackMode: cfg.FallbackMode,
	}
	c.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		Policy:         guardrail,
		Dispatcher:     c.Dispatcher,
		History:        c.HistoryStore,
		Launcher:       c.Launcher,
	}
	if !opts.DryRun {
		c.DoctorService.Tools = platform.NewToolProbe()
	}
	return c, nil
}

// RuleCategory reports the category of a registered action.
func (c *Container) RuleCategory(a domain.Action) (domain.Category, bool) {
	rule, ok := c.Registry.Lookup(a)
	return rule.Category, ok
}

func (c *Container) actionHandlers(cfg domain.Config, dryRun bool) []ports.ActionHandler {
	if dryRun {
		actions := append([]domain.Action(nil), domain.BuiltinActions...)
		for _, cc := range cfg.CustomCommands {
			actions = append(actions, domain.Action(cc.Action))
		}
		return []ports.ActionHandler{&handlers.SimulatedHandler{Actions: actions}}
	}

	fs := afero.NewOsFs()
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	out := []ports.ActionHandler{
		handlers.NewAppHandler(c.Launcher, runtime.GOOS, cfg.SupportedApps),
		handlers.NewFileHandler(fs, wd),
		handlers.NewSystemHandler(c.Launcher, runtime.GOOS),
		handlers.NewContentHandler(fs, wd, c.Launcher, defaultEditor(runtime.GOOS)),
	}
	if len(cfg.CustomCommands) > 0 {
		out = append(out, handlers.NewCustomHandler(c.Launcher, runtime.GOOS, cfg.CustomCommands))
	}
	return out
}

func (c *Container) openHistory(cfg domain.Config) ports.HistoryRepository {
	switch cfg.GetHistoryBackend() {
	case domain.HistoryBackendMemory:
		return nil
	case domain.HistoryBackendJSONL:
		dir := cfg.History.Path
		if dir == "" || filepath.Ext(dir) != "" {
			dir = filesystem.StateDir("logs")
		}
		return history.NewFileStore(afero.NewOsFs(), dir)
	default:
		store := history.NewSQLiteStore(cfg.History.Path)
		if store.Degraded() {
			c.Logger.Warn("sqlite history unavailable, writing JSONL files instead", map[string]interface{}{"path": store.Path()})
		}
		c.closers = append(c.closers, store.Close)
		return store
	}
}

// Close releases stores and flushes the logger.
func (c *Container) Close() error {
	var first error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	_ = c.Logger.Sync()
	return first
}

func defaultEditor(goos string) string {
	switch goos {
	case "windows":
		return "notepad.exe"
	case "darwin":
		return "open -e"
	default:
		return "xdg-open"
	}
}
