package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskboard-dev/taskboard/internal/cli/client"
	"github.com/taskboard-dev/taskboard/internal/cli/filter"
	"github.com/taskboard-dev/taskboard/internal/cli/output"
	"github.com/taskboard-dev/taskboard/internal/cli/session"
)

// NewTasksCmd creates the tasks command group
func NewTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage tasks",
	}

	cmd.AddCommand(newTasksListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskEditCmd())

	return cmd
}

func newTasksListCmd() *cobra.Command {
	var (
		status   string
		deadline string
		assigned string
		search   string
		mine     bool
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks, optionally filtered",
		Args:    cobra.NoArgs,
		RunE: protect(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			criteria := filter.Criteria{
				Status:       status,
				AssignedUser: assigned,
				Search:       search,
			}
			if status != "" && status != filter.AllStatuses && !client.TaskStatus(status).Valid() {
				return fmt.Errorf("invalid status '%s', must be one of: all, %s, %s, %s",
					status, client.StatusToDo, client.StatusInProgress, client.StatusCompleted)
			}
			if deadline != "" {
				day, err := time.Parse(filter.DateLayout, deadline)
				if err != nil {
					return fmt.Errorf("invalid deadline '%s', expected YYYY-MM-DD", deadline)
				}
				criteria.Deadline = day
			}
			if mine {
				if identity := session.MustFromContext(ctx).State().Identity; identity != nil {
					criteria.AssignedUser = identity.ID
				}
			}

			tasks, err := env.Client.ListTasks(ctx)
			if err != nil {
				return err
			}
			matched := criteria.Apply(tasks)

			if len(matched) == 0 && env.Format == output.Table {
				fmt.Fprintln(env.Out, "No match found.")
				return nil
			}

			return writeOutput(env, matched, func(t *table) {
				taskRows(t, matched)
			})
		}),
	}

	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status (To-Do, In Progress, Completed or all)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Only tasks due on this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&assigned, "assigned", "", "Only tasks assigned to this user ID")
	cmd.Flags().StringVar(&search, "search", "", "Only tasks whose title or description contains this text")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only tasks assigned to you")

	return routed(cmd, "/tasks")
}

func newTaskShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: protect(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			task, err := env.Client.GetTask(ctx, args[0])
			if err != nil {
				return err
			}

			return writeOutput(env, task, func(t *table) {
				t.row("Title:", task.Title)
				t.row("Description:", orDash(task.Description))
				t.row("Status:", string(task.Status))
				t.row("Deadline:", formatDate(task.Deadline))
				t.row("Assigned user:", orDash(task.AssignedUser.Label()))
				t.row("Project:", orDash(task.Project.Label()))
				t.row("ID:", task.ID)
				t.row("Created:", formatTime(task.CreatedAt))
				t.row("Updated:", formatTime(task.UpdatedAt))
			})
		}),
	}
	return routed(cmd, "/tasks/:id")
}

func newTaskCreateCmd() *cobra.Command {
	form := taskForm{Status: string(client.StatusToDo)}

	cmd := &cobra.Command{
		Use:     "new",
		Aliases: []string{"create"},
		Short:   "Create a task",
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
				if err := promptMissing(env.Prompter, &form.Deadline, "Deadline (YYYY-MM-DD)", ""); err != nil {
					return err
				}
				if form.Project == "" {
					projectID, err := selectProject(ctx, env)
					if err != nil {
						return err
					}
					form.Project = projectID
				}
			}
			if err := validateForm(form); err != nil {
				return err
			}

			task, err := env.Client.CreateTask(ctx, form.input())
			if err != nil {
				return err
			}

			env.Notifier.Success("Task created successfully")
			if task != nil && task.ID != "" {
				env.Notifier.Info("  ID: %s", task.ID)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&form.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&form.Description, "description", "", "Task description")
	cmd.Flags().StringVar(&form.Status, "status", form.Status, "Task status (To-Do, In Progress, Completed)")
	cmd.Flags().StringVar(&form.Deadline, "deadline", "", "Deadline (YYYY-MM-DD)")
	cmd.Flags().StringVar(&form.Project, "project", "", "Project ID (will prompt if not provided)")

	return routed(cmd, "/tasks/new")
}

func newTaskEditCmd() *cobra.Command {
	var changes taskForm

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit a task",
		Args:  cobra.ExactArgs(1),
		RunE: protect(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			flags := cmd.Flags()
			fields := map[string]*string{
				"title":       &changes.Title,
				"description": &changes.Description,
				"status":      &changes.Status,
				"deadline":    &changes.Deadline,
				"project":     &changes.Project,
			}
			changed := false
			for name := range fields {
				changed = changed || flags.Changed(name)
			}
			if !changed {
				return errors.New("nothing to update (use --title, --description, --status, --deadline or --project)")
			}

			task, err := env.Client.GetTask(ctx, args[0])
			if err != nil {
				return err
			}

			form := taskForm{
				Title:       task.Title,
				Description: task.Description,
				Status:      string(task.Status),
				Project:     task.Project.ID,
			}
			if !task.Deadline.IsZero() {
				form.Deadline = task.Deadline.UTC().Format(filter.DateLayout)
			}
			current := map[string]*string{
				"title":       &form.Title,
				"description": &form.Description,
				"status":      &form.Status,
				"deadline":    &form.Deadline,
				"project":     &form.Project,
			}
			for name, value := range fields {
				if flags.Changed(name) {
					*current[name] = *value
				}
			}
			if err := validateForm(form); err != nil {
				return err
			}

			if _, err := env.Client.UpdateTask(ctx, task.ID, form.input()); err != nil {
				return err
			}

			env.Notifier.Success("Task updated successfully")
			return nil
		}),
	}

	cmd.Flags().StringVar(&changes.Title, "title", "", "New title")
	cmd.Flags().StringVar(&changes.Description, "description", "", "New description")
	cmd.Flags().StringVar(&changes.Status, "status", "", "New status (To-Do, In Progress, Completed)")
	cmd.Flags().StringVar(&changes.Deadline, "deadline", "", "New deadline (YYYY-MM-DD)")
	cmd.Flags().StringVar(&changes.Project, "project", "", "New project ID")

	return routed(cmd, "/tasks/:id/edit")
}

func (f taskForm) input() client.TaskInput {
	return client.TaskInput{
		Title:       f.Title,
		Description: f.Description,
		Status:      client.TaskStatus(f.Status),
		Deadline:    f.Deadline,
		Project:     f.Project,
	}
}

// selectProject lets the user pick one of their projects
func selectProject(ctx context.Context, env *Env) (string, error) {
	projects, err := env.Client.ListProjects(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load projects: %w", err)
	}
	if len(projects) == 0 {
		return "", errors.New("no projects found. Create one with: taskboard projects new")
	}

	items := make([]string, len(projects))
	for i, project := range projects {
		items[i] = project.Title
	}
	index, err := env.Prompter.Select("Select a project", items)
	if err != nil {
		return "", err
	}
	return projects[index].ID, nil
}
