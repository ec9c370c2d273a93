package notify

import (
	"fmt"
	"io"
)

// Notifier shows short, non-blocking notifications next to command output
type Notifier struct {
	out io.Writer
}

// New creates a notifier writing to out (normally stderr)
func New(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

// Success reports a completed action
func (n *Notifier) Success(description string) {
	fmt.Fprintf(n.out, "✓ %s\n", description)
}

// Error reports a failed action
func (n *Notifier) Error(description string) {
	fmt.Fprintf(n.out, "✗ Error: %s\n", description)
}

// Info prints a neutral message
func (n *Notifier) Info(format string, args ...any) {
	fmt.Fprintf(n.out, format+"\n", args...)
}
