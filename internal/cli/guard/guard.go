// Package guard decides whether a protected view may be shown for the current
// auth state.
package guard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/taskboard-dev/taskboard/internal/cli/session"
)

// LoginPath is where anonymous users are sent
const LoginPath = "/login"

// ErrLoginRequired is returned when a protected view is requested without a
// session and no interactive login is possible
var ErrLoginRequired = errors.New("login required")

// Location identifies a view, e.g. /tasks?status=Completed
type Location struct {
	Path  string
	Query url.Values
}

// String renders the location as path[?query]
func (l Location) String() string {
	path := l.Path
	if path == "" {
		path = "/"
	}
	if len(l.Query) == 0 {
		return path
	}
	return path + "?" + l.Query.Encode()
}

// ParseLocation parses path[?query]
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	if !strings.HasPrefix(u.Path, "/") {
		return Location{}, fmt.Errorf("invalid location %q: path must start with /", raw)
	}
	loc := Location{Path: u.Path}
	if q := u.Query(); len(q) > 0 {
		loc.Query = q
	}
	return loc, nil
}

// Outcome is what the guard decided
type Outcome int

const (
	// Pending means hydration has not finished; show only a loading indicator
	Pending Outcome = iota
	// Render means the requested view may be shown
	Render
	// Redirect means the user must log in first
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Decision is the guard's verdict for one navigation.
// For Redirect, To is the login view and From the location to return to.
type Decision struct {
	Outcome Outcome
	To      Location
	From    Location
}

// Evaluate decides what to show for requested given state. It is a pure
// function of its arguments.
func Evaluate(state session.State, requested Location) Decision {
	switch {
	case state.Loading:
		return Decision{Outcome: Pending}
	case state.Identity != nil:
		return Decision{Outcome: Render, To: requested}
	default:
		return Decision{
			Outcome: Redirect,
			To:      Location{Path: LoginPath},
			From:    requested,
		}
	}
}

// LoginRequiredError wraps ErrLoginRequired with the location to return to
type LoginRequiredError struct {
	From Location
}

func (e *LoginRequiredError) Error() string {
	return fmt.Sprintf("%s to view %s. Please run 'taskboard login --return-to %s'", ErrLoginRequired, e.From, shellQuote(e.From.String()))
}

func (e *LoginRequiredError) Unwrap() error {
	return ErrLoginRequired
}

// shellQuote wraps s in single quotes when it contains characters a shell
// would interpret
func shellQuote(s string) string {
	if !strings.ContainsAny(s, " ?&*'\"$") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
