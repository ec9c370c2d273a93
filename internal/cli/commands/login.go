package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskboard-dev/taskboard/internal/cli/guard"
	"github.com/taskboard-dev/taskboard/internal/cli/session"
)

type loginOptions struct {
	email    string
	password string
}

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var opts loginOptions
	var returnTo string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the Taskboard API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)
			svc := session.MustFromContext(ctx)

			// Validate the return location before asking for credentials
			var target *guard.Location
			if returnTo != "" {
				loc, err := guard.ParseLocation(returnTo)
				if err != nil {
					return err
				}
				if strings.TrimSuffix(loc.Path, "/") == guard.LoginPath {
					return fmt.Errorf("invalid return location %s: cannot return to the login view", loc)
				}
				target = &loc
			}

			if err := runLogin(ctx, env, svc, opts); err != nil {
				return err
			}

			if target == nil {
				return nil
			}
			return navigate(ctx, cmd.Root(), *target)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "Email address (or set TASKBOARD_EMAIL)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (or set TASKBOARD_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&returnTo, "return-to", "", "View to open after logging in, e.g. /tasks?status=Completed")
	markSensitive(cmd, "password")

	return routed(cmd, guard.LoginPath)
}

func runLogin(ctx context.Context, env *Env, svc *session.Service, opts loginOptions) error {
	// Check for environment variables (useful for CI/CD)
	if opts.email == "" {
		opts.email = os.Getenv("TASKBOARD_EMAIL")
	}
	if opts.password == "" {
		opts.password = os.Getenv("TASKBOARD_PASSWORD")
	}

	if opts.email == "" && env.Prompter.Interactive() {
		email, err := env.Prompter.Input("Email", "")
		if err != nil {
			return err
		}
		opts.email = email
	}
	if opts.password == "" && env.Prompter.Interactive() {
		password, err := env.Prompter.Password("Password")
		if err != nil {
			return err
		}
		opts.password = password
	}

	form := loginForm{Email: opts.email, Password: opts.password}
	if err := validateForm(form); err != nil {
		return err
	}

	resp, err := env.Client.Login(ctx, form.Email, form.Password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	identity := session.Identity{
		ID:    resp.Data.ID,
		Name:  resp.Data.Name,
		Email: resp.Data.Email,
	}
	if err := svc.Login(identity, resp.TokenDetails.Token); err != nil {
		return err
	}

	env.Notifier.Success("Login successful!")
	env.Notifier.Info("  User: %s (%s)", identity.Name, identity.Email)
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)
			svc := session.MustFromContext(ctx)

			if err := svc.Logout(); err != nil {
				return err
			}
			env.Notifier.Success("Logged out")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: protect(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)
			identity := session.MustFromContext(ctx).State().Identity
			if identity == nil {
				return session.ErrNotAuthenticated
			}
			return writeOutput(env, identity, func(tw *table) {
				tw.row("NAME", "EMAIL", "ID")
				tw.rule("NAME", "EMAIL", "ID")
				tw.row(identity.Name, identity.Email, identity.ID)
			})
		}),
	}
	return routed(cmd, "/account")
}
