package commands

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/taskboard-dev/taskboard/internal/cli/client"
	"github.com/taskboard-dev/taskboard/internal/cli/notify"
	"github.com/taskboard-dev/taskboard/internal/cli/output"
)

// Env carries what every view needs besides the session. The root command
// builds one per process.
type Env struct {
	Client   *client.Client
	Notifier *notify.Notifier
	Prompter Prompter
	Format   output.Format
	Out      io.Writer
	Err      io.Writer
	Logger   zerolog.Logger
}

type envKey struct{}

// WithEnv attaches env to ctx
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// envFrom returns the Env attached to ctx. Views are only reachable through
// the root command, so a missing Env is a wiring mistake.
func envFrom(ctx context.Context) *Env {
	env, ok := ctx.Value(envKey{}).(*Env)
	if !ok || env == nil {
		panic("commands: Env must be attached to the context with commands.WithEnv")
	}
	return env
}
