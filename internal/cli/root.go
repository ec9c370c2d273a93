package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskboard-dev/taskboard/internal/cli/client"
	"github.com/taskboard-dev/taskboard/internal/cli/commands"
	"github.com/taskboard-dev/taskboard/internal/cli/notify"
	"github.com/taskboard-dev/taskboard/internal/cli/output"
	"github.com/taskboard-dev/taskboard/internal/cli/session"
	"github.com/taskboard-dev/taskboard/internal/config"
	"github.com/taskboard-dev/taskboard/internal/logger"
)

var version = "dev" // Will be set during build

// Options replaces the process streams, mainly for tests
type Options struct {
	In       *os.File
	Out      io.Writer
	Err      io.Writer
	Prompter commands.Prompter
}

func (o *Options) defaults() {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
	if o.Prompter == nil {
		o.Prompter = commands.NewTerminalPrompter(o.In, o.Err)
	}
}

// NewRootCmd builds the taskboard command tree
func NewRootCmd(opts Options) *cobra.Command {
	opts.defaults()

	var (
		endpoint  string
		outputFmt string
		verbose   bool
		svc       *session.Service
	)

	rootCmd := &cobra.Command{
		Use:   "taskboard",
		Short: "Taskboard - projects and tasks from your terminal",
		Long: `Taskboard CLI - Track projects and tasks against a Taskboard API.

Log in once and your session is kept for the API origin, in the OS keyring
or in a file under your config directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// version and help need no session
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if endpoint != "" {
				cfg.API.Endpoint = strings.TrimRight(endpoint, "/")
			}

			level := cfg.Logging.Level
			if verbose {
				level = "debug"
			}
			logger.Init(level, cfg.Logging.Format, opts.Err)

			format, err := output.ParseFormat(outputFmt)
			if err != nil {
				return err
			}

			svc, err = newSessionService(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			go func() {
				if err := svc.Hydrate(ctx); err != nil {
					logger.Logger.Debug().Err(err).Msg("Session hydration interrupted")
				}
			}()

			apiClient := client.New(cfg.API.Endpoint, cfg.API.Timeout, svc)
			apiClient.SetLogger(logger.Logger.With().Str("component", "client").Logger())

			env := &commands.Env{
				Client:   apiClient,
				Notifier: notify.New(opts.Err),
				Prompter: opts.Prompter,
				Format:   format,
				Out:      opts.Out,
				Err:      opts.Err,
				Logger:   logger.Logger,
			}

			cmd.SetContext(commands.WithEnv(session.WithService(ctx, svc), env))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if svc != nil {
				svc.Dispose()
			}
		},
	}

	rootCmd.SetIn(opts.In)
	rootCmd.SetOut(opts.Out)
	rootCmd.SetErr(opts.Err)

	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "API base URL (or set TASKBOARD_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API requests and session changes")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskboard version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewDashCmd())
	rootCmd.AddCommand(commands.NewProjectsCmd())
	rootCmd.AddCommand(commands.NewTasksCmd())
	rootCmd.AddCommand(commands.NewOpenCmd())

	return rootCmd
}

// newSessionService builds the session service for the configured API origin.
// The identity is kept in a file; the token goes to the OS keyring unless the
// file store is configured.
func newSessionService(cfg *config.Config) (*session.Service, error) {
	origin, err := session.Origin(cfg.API.Endpoint)
	if err != nil {
		return nil, err
	}

	identities := session.NewFileBackend(cfg.Session.Dir, origin)
	var tokens session.Backend = identities
	if cfg.Session.TokenStore == "keyring" {
		tokens = session.NewKeyringBackend(origin)
	}

	log := logger.Logger.With().Str("component", "session").Str("origin", origin).Logger()
	return session.New(session.NewStore(identities, tokens, log), log), nil
}

// Execute runs the root command
func Execute() error {
	opts := Options{}
	opts.defaults()

	if err := NewRootCmd(opts).Execute(); err != nil {
		notify.New(opts.Err).Error(client.Message(err, err.Error()))
		return err
	}
	return nil
}
