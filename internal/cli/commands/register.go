package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskboard-dev/taskboard/internal/cli/client"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var form registerForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a Taskboard account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			if env.Prompter.Interactive() {
				if err := promptMissing(env.Prompter, &form.Name, "Name", ""); err != nil {
					return err
				}
				if err := promptMissing(env.Prompter, &form.Email, "Email", ""); err != nil {
					return err
				}
				if form.Password == "" {
					password, err := env.Prompter.Password("Password")
					if err != nil {
						return err
					}
					form.Password = password
				}
			}

			if err := validateForm(form); err != nil {
				return err
			}

			err := env.Client.Register(ctx, client.RegisterRequest{
				Name:     form.Name,
				Email:    form.Email,
				Password: form.Password,
			})
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			env.Notifier.Success("Account created")
			env.Notifier.Info("Log in with: taskboard login --email %s", form.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (will prompt if not provided)")
	markSensitive(cmd, "password")

	return routed(cmd, "/register")
}

// promptMissing asks for *value when it is still empty
func promptMissing(p Prompter, value *string, label, defaultValue string) error {
	if *value != "" {
		return nil
	}
	input, err := p.Input(label, defaultValue)
	if err != nil {
		return err
	}
	*value = input
	return nil
}
