package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrNonInteractive is returned when input is needed but stdin is not a terminal
var ErrNonInteractive = errors.New("input required in non-interactive mode")

// Prompter asks the user for input
type Prompter interface {
	Interactive() bool
	Input(label, defaultValue string) (string, error)
	Password(label string) (string, error)
	Select(label string, items []string) (int, error)
}

// TerminalPrompter prompts on the process terminal
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

// NewTerminalPrompter prompts on in, echoing labels to out
func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

// Interactive reports whether stdin is a terminal (not piped)
func (p *TerminalPrompter) Interactive() bool {
	return term.IsTerminal(int(p.in.Fd()))
}

func (p *TerminalPrompter) Input(label, defaultValue string) (string, error) {
	if !p.Interactive() {
		return "", fmt.Errorf("%w: %s", ErrNonInteractive, label)
	}

	prompt := promptui.Prompt{
		Label:     label,
		Default:   defaultValue,
		AllowEdit: true,
		Stdin:     p.in,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("input cancelled: %w", err)
	}
	return value, nil
}

func (p *TerminalPrompter) Password(label string) (string, error) {
	if !p.Interactive() {
		return "", fmt.Errorf("%w: %s", ErrNonInteractive, label)
	}

	fmt.Fprintf(p.out, "%s: ", label)
	bytePassword, err := term.ReadPassword(int(p.in.Fd()))
	fmt.Fprintln(p.out) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

func (p *TerminalPrompter) Select(label string, items []string) (int, error) {
	if !p.Interactive() {
		return 0, fmt.Errorf("%w: %s", ErrNonInteractive, label)
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("nothing to select for %s", label)
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ . | cyan }}",
		Inactive: "  {{ . }}",
		Selected: "{{ . | green }}",
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Templates: templates,
		Size:      10,
		Stdin:     p.in,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}
