package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskboard-dev/taskboard/internal/cli/client"
	"github.com/taskboard-dev/taskboard/internal/cli/output"
)

// NewProjectsCmd creates the projects command group
func NewProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(newProjectsListCmd())
	cmd.AddCommand(newProjectShowCmd())
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectEditCmd())

	return cmd
}

func newProjectsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all projects",
		Args:    cobra.NoArgs,
		RunE: protect(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			projects, err := env.Client.ListProjects(ctx)
			if err != nil {
				return err
			}

			if len(projects) == 0 && env.Format == output.Table {
				fmt.Fprintln(env.Out, "No projects found.")
				fmt.Fprintln(env.Out, "\nCreate a project with: taskboard projects new --title <title> --description <description>")
				return nil
			}

			return writeOutput(env, projects, func(t *table) {
				projectRows(t, projects)
			})
		}),
	}
	return routed(cmd, "/projects")
}

func newProjectShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: protect(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			project, err := env.Client.GetProject(ctx, args[0])
			if err != nil {
				return err
			}

			return writeOutput(env, project, func(t *table) {
				t.row("Title:", project.Title)
				t.row("Description:", orDash(project.Description))
				t.row("ID:", project.ID)
				t.row("Created:", formatTime(project.CreatedAt))
				t.row("Updated:", formatTime(project.UpdatedAt))
			})
		}),
	}
	return routed(cmd, "/projects/:id")
}

func newProjectCreateCmd() *cobra.Command {
	var form projectForm

	cmd := &cobra.Command{
		Use:     "new",
		Aliases: []string{"create"},
		Short:   "Create a project",
		Args:    cobra.NoArgs,
		RunE: protect(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			if env.Prompter.Interactive() {
				if err := promptMissing(env.Prompter, &form.Title, "Title", ""); err != nil {
					return err
				}
				if err := promptMissing(env.Prompter, &form.Description, "Description", ""); err != nil {
					return err
				}
			}
			if err := validateForm(form); err != nil {
				return err
			}

			project, err := env.Client.CreateProject(ctx, client.ProjectInput{
				Title:       form.Title,
				Description: form.Description,
			})
			if err != nil {
				return err
			}

			env.Notifier.Success("Project created successfully")
			if project != nil && project.ID != "" {
				env.Notifier.Info("  ID: %s", project.ID)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&form.Title, "title", "", "Project title")
	cmd.Flags().StringVar(&form.Description, "description", "", "Project description")

	return routed(cmd, "/projects/new")
}

func newProjectEditCmd() *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "edit <project-id>",
		Short: "Edit a project",
		Args:  cobra.ExactArgs(1),
		RunE: protect(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("description") {
				return errors.New("nothing to update (use --title or --description)")
			}

			project, err := env.Client.GetProject(ctx, args[0])
			if err != nil {
				return err
			}

			form := projectForm{Title: project.Title, Description: project.Description}
			if flags.Changed("title") {
				form.Title = title
			}
			if flags.Changed("description") {
				form.Description = description
			}
			if err := validateForm(form); err != nil {
				return err
			}

			_, err = env.Client.UpdateProject(ctx, project.ID, client.ProjectInput{
				Title:       form.Title,
				Description: form.Description,
			})
			if err != nil {
				return err
			}

			env.Notifier.Success("Project updated successfully")
			return nil
		}),
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")

	return routed(cmd, "/projects/:id/edit")
}
