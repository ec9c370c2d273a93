package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/taskboard-dev/taskboard/internal/cli/guard"
	"github.com/taskboard-dev/taskboard/internal/cli/session"
)

// routeAnnotation holds the location pattern a view answers to, e.g. /tasks/:id
const routeAnnotation = "taskboard/route"

type runFunc func(cmd *cobra.Command, args []string) error

// routed marks cmd as the view for pattern
func routed(cmd *cobra.Command, pattern string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[routeAnnotation] = pattern
	return cmd
}

// protect runs view only once the guard allows it for the current session.
// While the session is still hydrating it waits; when nobody is logged in it
// either logs in interactively and returns to the requested location, or
// fails with a LoginRequiredError carrying that location.
func protect(view runFunc) runFunc {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := session.MustFromContext(ctx)
		env := envFrom(ctx)
		requested := locationOf(cmd, args)

		// Subscribed before the first read so no state change is missed
		changed := make(chan struct{}, 1)
		unsubscribe := svc.Subscribe(func(session.State) {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()

		shownLoading := false
		for {
			decision := guard.Evaluate(svc.State(), requested)
			env.Logger.Debug().
				Str("location", requested.String()).
				Stringer("outcome", decision.Outcome).
				Msg("Route guard decision")

			switch decision.Outcome {
			case guard.Pending:
				if !shownLoading && env.Prompter.Interactive() {
					fmt.Fprintln(env.Err, "Loading...")
					shownLoading = true
				}
				select {
				case <-changed:
				case <-svc.Ready():
				case <-ctx.Done():
					return ctx.Err()
				}

			case guard.Render:
				return view(cmd, args)

			case guard.Redirect:
				if !env.Prompter.Interactive() {
					return &guard.LoginRequiredError{From: decision.From}
				}
				env.Notifier.Info("Log in to continue to %s", decision.From)
				if err := runLogin(ctx, env, svc, loginOptions{}); err != nil {
					return err
				}
			}
		}
	}
}

// locationOf renders the invocation of a routed command as a location.
// Path parameters come from args and the query from flags set on cmd itself.
func locationOf(cmd *cobra.Command, args []string) guard.Location {
	pattern := cmd.Annotations[routeAnnotation]
	segments := strings.Split(pattern, "/")
	next := 0
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") && next < len(args) {
			segments[i] = url.PathEscape(args[next])
			next++
		}
	}

	loc := guard.Location{Path: strings.Join(segments, "/")}
	// LocalFlags returns a fresh set that never records which flags were set
	local := cmd.LocalFlags()
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if local.Lookup(f.Name) == nil || f.Annotations[sensitiveAnnotation] != nil {
			return
		}
		if loc.Query == nil {
			loc.Query = url.Values{}
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			for _, v := range sv.GetSlice() {
				loc.Query.Add(f.Name, v)
			}
			return
		}
		loc.Query.Set(f.Name, f.Value.String())
	})
	return loc
}

// sensitiveAnnotation keeps a flag value out of locations
const sensitiveAnnotation = "taskboard/sensitive"

func markSensitive(cmd *cobra.Command, name string) {
	_ = cmd.Flags().SetAnnotation(name, sensitiveAnnotation, []string{"true"})
}

// resolve finds the routed command under root that answers to loc and the
// positional arguments taken from its path
func resolve(root *cobra.Command, loc guard.Location) (*cobra.Command, []string, error) {
	want := strings.Split(strings.TrimSuffix(loc.Path, "/"), "/")

	// Literal segments win over parameters, so /projects/new is not a project ID
	var (
		best     *cobra.Command
		bestArgs []string
	)
	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		if pattern, ok := cmd.Annotations[routeAnnotation]; ok {
			args, ok := matchRoute(strings.Split(strings.TrimSuffix(pattern, "/"), "/"), want)
			if ok && (best == nil || len(args) < len(bestArgs)) {
				best, bestArgs = cmd, args
			}
		}
		for _, child := range cmd.Commands() {
			walk(child)
		}
	}

	walk(root)
	if best == nil {
		return nil, nil, fmt.Errorf("no view found for %s", loc)
	}
	return best, bestArgs, nil
}

func matchRoute(pattern, path []string) ([]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	var args []string
	for i, segment := range pattern {
		if strings.HasPrefix(segment, ":") {
			if path[i] == "" {
				return nil, false
			}
			arg, err := url.PathUnescape(path[i])
			if err != nil {
				return nil, false
			}
			args = append(args, arg)
			continue
		}
		if segment != path[i] {
			return nil, false
		}
	}
	return args, true
}

// navigate runs the view for loc with ctx, applying the query as flags
func navigate(ctx context.Context, root *cobra.Command, loc guard.Location) error {
	cmd, args, err := resolve(root, loc)
	if err != nil {
		return err
	}
	for name, values := range loc.Query {
		for _, value := range values {
			if err := cmd.Flags().Set(name, value); err != nil {
				return fmt.Errorf("invalid %s for %s: %w", name, loc.Path, err)
			}
		}
	}
	if cmd.Args != nil {
		if err := cmd.Args(cmd, args); err != nil {
			return err
		}
	}
	cmd.SetContext(ctx)
	return cmd.RunE(cmd, args)
}
