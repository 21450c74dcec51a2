package commands

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/smartos-go/internal/app"
	"github.com/doeshing/smartos-go/internal/domain"
)

// scriptConsole reads lines from in and answers confirmations with approve.
type scriptConsole struct {
	in       *bufio.Reader
	approve  bool
	prompted []domain.Intent
}

func (s *scriptConsole) Enabled() bool { return true }

func (s *scriptConsole) Confirm(in domain.Intent, _ []string) (bool, error) {
	s.prompted = append(s.prompted, in)
	return s.approve, nil
}

func (s *scriptConsole) Listen(context.Context) (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

type fixture struct {
	rt      *Runtime
	console *scriptConsole
	dir     string
}

func newFixture(t *testing.T, adjust func(*domain.Config)) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir()}
	f.rt = &Runtime{
		Options: func() app.Options {
			return app.Options{
				ConfigPath: filepath.Join(f.dir, "config.yaml"),
				DryRun:     true,
				Override: func(cfg *domain.Config) {
					cfg.History.Backend = domain.HistoryBackendJSONL
					cfg.History.Path = filepath.Join(f.dir, "logs")
					cfg.Security.RulesFile = ""
					if adjust != nil {
						adjust(cfg)
					}
				},
			}
		},
		Console: func(in io.Reader, _ io.Writer) Console {
			f.console = &scriptConsole{in: bufio.NewReader(in), approve: true}
			return f.console
		},
	}
	t.Cleanup(func() { _ = f.rt.Close() })
	return f
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	f := newFixture(t, nil)

	out, err := execute(t, NewRunCommand(f.rt), "", "open", "calculator")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK]")
	assert.Contains(t, out, "intent: open_application calculator")

	out, err = execute(t, NewRunCommand(f.rt), "", "--background", "create", "file", "test.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "file_operation")
}

func TestRunCommandUnrecognized(t *testing.T) {
	f := newFixture(t, nil)
	out, err := execute(t, NewRunCommand(f.rt), "", "asdkjasd")
	require.NoError(t, err)
	assert.Contains(t, out, "Could you rephrase")

	strict := newFixture(t, func(cfg *domain.Config) { cfg.FallbackMode = false })
	out, err = execute(t, NewRunCommand(strict.rt), "", "asdkjasd")
	assert.ErrorIs(t, err, domain.ErrUnrecognized)
	assert.Contains(t, out, "Could you rephrase")
}

func TestRunCommandConfirmation(t *testing.T) {
	f := newFixture(t, nil)
	out, err := execute(t, NewRunCommand(f.rt), "", "shutdown", "the", "computer")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK]")
	require.Len(t, f.console.prompted, 1)
	assert.Equal(t, domain.ActionSystemControl, f.console.prompted[0].Action)

	declined := newFixture(t, nil)
	declined.rt.Console = func(in io.Reader, _ io.Writer) Console {
		declined.console = &scriptConsole{in: bufio.NewReader(in), approve: false}
		return declined.console
	}
	out, err = execute(t, NewRunCommand(declined.rt), "", "shutdown", "the", "computer")
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, out, "UserDeclined")
}

func TestReplCommand(t *testing.T) {
	f := newFixture(t, nil)
	script := "help\n\nopen calculator\nasdkjasd\nhistory\nstats\nrotate\nexit\nopen notepad\n"
	out, err := execute(t, NewReplCommand(f.rt), script)
	require.NoError(t, err)

	assert.Contains(t, out, "Session commands")
	assert.Contains(t, out, "intent: open_application calculator")
	assert.Contains(t, out, "Could you rephrase")
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Sealed 2 records.")
	assert.Contains(t, out, "Goodbye.")
	assert.NotContains(t, out, "notepad")
}

func TestReplStopsAtEOF(t *testing.T) {
	f := newFixture(t, nil)
	out, err := execute(t, NewReplCommand(f.rt), "open calculator")
	require.NoError(t, err)
	assert.Contains(t, out, "calculator")
}

func TestHistoryCommands(t *testing.T) {
	f := newFixture(t, nil)
	_, err := execute(t, NewRunCommand(f.rt), "", "open", "calculator")
	require.NoError(t, err)
	_, err = execute(t, NewRunCommand(f.rt), "", "lock", "the", "computer")
	require.NoError(t, err)

	out, err := execute(t, NewHistoryCommand(f.rt), "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "calculator")
	assert.Contains(t, out, "system_control")

	out, err = execute(t, NewHistoryCommand(f.rt), "", "search", "calc")
	require.NoError(t, err)
	assert.Contains(t, out, "calculator")
	assert.NotContains(t, out, "system_control")

	out, err = execute(t, NewHistoryCommand(f.rt), "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total commands")
	assert.Contains(t, out, "Last hour")

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	watch := NewHistoryCommand(f.rt)
	var watched bytes.Buffer
	watch.SetOut(&watched)
	watch.SetArgs([]string{"stats", "--watch", "50ms"})
	require.NoError(t, watch.ExecuteContext(ctx))
	assert.GreaterOrEqual(t, strings.Count(watched.String(), "Metrics at"), 2)

	dest := filepath.Join(f.dir, "export.jsonl")
	out, err = execute(t, NewHistoryCommand(f.rt), "", "export", dest)
	require.NoError(t, err)
	assert.Contains(t, out, dest)

	out, err = execute(t, NewHistoryCommand(f.rt), "n\n", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, MsgClearCancelled)

	out, err = execute(t, NewHistoryCommand(f.rt), "", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, MsgHistoryCleared)

	out, err = execute(t, NewHistoryCommand(f.rt), "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, MsgNoHistoryRecorded)
}

func TestHistoryWithoutPersistence(t *testing.T) {
	f := newFixture(t, func(cfg *domain.Config) { cfg.History.Backend = domain.HistoryBackendMemory })
	_, err := execute(t, NewHistoryCommand(f.rt), "", "list")
	assert.EqualError(t, err, ErrHistoryStoreUnavailable)
}

func TestEvalCommand(t *testing.T) {
	f := newFixture(t, nil)
	out, err := execute(t, NewEvalCommand(f.rt), "", "--tier", "easy")
	require.NoError(t, err)
	assert.Contains(t, out, "pass rate > 90.0%: met")

	out, err = execute(t, NewEvalCommand(f.rt), "", "--tier", "easy", "--mode", "end_to_end", "--parallel", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "p80 latency < 3s: met")

	_, err = execute(t, NewEvalCommand(f.rt), "", "--mode", "bogus")
	assert.Error(t, err)
	_, err = execute(t, NewEvalCommand(f.rt), "", "--tier", "extreme")
	assert.Error(t, err)
}

func TestEvalCommandMissesTargets(t *testing.T) {
	f := newFixture(t, nil)
	corpus := filepath.Join(f.dir, "cases.yaml")
	body := "cases:\n  - name: wrong\n    tier: easy\n    input: open calculator\n    expected_action: file_operation\n"
	require.NoError(t, writeFile(corpus, body))

	out, err := execute(t, NewEvalCommand(f.rt), "", "--cases", corpus)
	assert.ErrorIs(t, err, ErrTargetsMissed)
	assert.Contains(t, out, "Failures")
}

func TestRulesCommand(t *testing.T) {
	f := newFixture(t, nil)
	out, err := execute(t, NewRulesCommand(f.rt), "")
	require.NoError(t, err)
	for _, action := range domain.BuiltinActions {
		assert.Contains(t, out, string(action))
	}

	out, err = execute(t, NewRulesCommand(f.rt), "", "explain", "open", "calculator")
	require.NoError(t, err)
	assert.Contains(t, out, `=> open_application target="calculator"`)
}

func TestConfigCommands(t *testing.T) {
	f := newFixture(t, nil)
	cfgPath := filepath.Join(f.dir, "config.yaml")

	out, err := execute(t, NewConfigCommand(f.rt), "", "path")
	require.NoError(t, err)
	assert.Equal(t, cfgPath+"\n", out)

	out, err = execute(t, NewConfigCommand(f.rt), "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, msgConfigurationValid)

	out, err = execute(t, NewConfigCommand(f.rt), "", "get", "history.backend")
	require.NoError(t, err)
	assert.Equal(t, "sqlite\n", out)

	_, err = execute(t, NewConfigCommand(f.rt), "", "get", "history.nope")
	assert.Error(t, err)

	require.NoError(t, writeFile(cfgPath, "confidence_threshold: 0.5\n"))
	out, err = execute(t, NewConfigCommand(f.rt), "", "diff")
	require.NoError(t, err)
	assert.Contains(t, out, "ConfidenceThreshold")
}

func TestDoctorAndVersion(t *testing.T) {
	f := newFixture(t, nil)
	out, err := execute(t, NewDoctorCommand(f.rt), "")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] Config file")

	out, err = execute(t, NewVersionCommand(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "SmartOS version dev")
}

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o600)
}
