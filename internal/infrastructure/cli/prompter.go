package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/ports"
)

// Prompter implements ConfirmationPrompter using stdin/stdout.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter constructs a prompter referencing stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	reader, ok := in.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(in)
	}
	return &Prompter{in: reader, out: out}
}

// Enabled indicates the prompter is interactive.
func (p *Prompter) Enabled() bool {
	return true
}

// Confirm asks the user whether a held action may run.
func (p *Prompter) Confirm(intent domain.Intent, reasons []string) (bool, error) {
	fmt.Fprintf(p.out, "\nConfirmation required for %s %s\n", intent.Action, intent.Target)
	for _, reason := range reasons {
		fmt.Fprintf(p.out, " - %s\n", reason)
	}
	fmt.Fprint(p.out, "Continue? [y/N]: ")
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

// Listen reads the next command line. It stands in for speech input when no
// recognizer is installed.
func (p *Prompter) Listen(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Say echoes spoken feedback as text.
func (p *Prompter) Say(_ context.Context, text string) error {
	_, err := fmt.Fprintf(p.out, "SmartOS: %s\n", text)
	return err
}

var (
	_ ports.ConfirmationPrompter = (*Prompter)(nil)
	_ ports.SpeechRecognizer     = (*Prompter)(nil)
	_ ports.Speaker              = (*Prompter)(nil)
)
