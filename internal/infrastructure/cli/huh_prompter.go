package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/doeshing/smartos-go/internal/domain"
	"github.com/doeshing/smartos-go/internal/ports"
)

// HuhPrompter asks for confirmation with a terminal form.
type HuhPrompter struct{}

// Enabled indicates the prompter is interactive.
func (HuhPrompter) Enabled() bool { return true }

// Confirm shows a yes/no form. Aborting the form declines the action.
func (HuhPrompter) Confirm(intent domain.Intent, reasons []string) (bool, error) {
	approved := false
	desc := strings.Join(reasons, "\n")
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Run %s %s?", intent.Action, intent.Target)).
		Description(desc).
		Affirmative("Run").
		Negative("Cancel").
		Value(&approved).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return approved, nil
}

var _ ports.ConfirmationPrompter = HuhPrompter{}
