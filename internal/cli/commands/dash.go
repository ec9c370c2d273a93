package commands

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/taskboard-dev/taskboard/internal/cli/client"
	"github.com/taskboard-dev/taskboard/internal/cli/filter"
	"github.com/taskboard-dev/taskboard/internal/cli/session"
)

type dashboard struct {
	User     *session.Identity `json:"user" yaml:"user"`
	Summary  summary           `json:"summary" yaml:"summary"`
	Projects []client.Project  `json:"projects" yaml:"projects"`
	Tasks    []client.Task     `json:"tasks" yaml:"tasks"`
}

type summary struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
}

// NewDashCmd creates the dash command
func NewDashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Show your projects and a task summary",
		Args:  cobra.NoArgs,
		RunE:  protect(runDash),
	}
	return routed(cmd, "/")
}

func runDash(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env := envFrom(ctx)
	svc := session.MustFromContext(ctx)

	var (
		wg          sync.WaitGroup
		projects    []client.Project
		tasks       []client.Task
		projectsErr error
		tasksErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		projects, projectsErr = env.Client.ListProjects(ctx)
	}()
	go func() {
		defer wg.Done()
		tasks, tasksErr = env.Client.ListTasks(ctx)
	}()
	wg.Wait()

	if projectsErr != nil {
		return fmt.Errorf("failed to load projects: %w", projectsErr)
	}
	if tasksErr != nil {
		return fmt.Errorf("failed to load tasks: %w", tasksErr)
	}

	view := dashboard{
		User:     svc.State().Identity,
		Summary:  summary{Total: len(tasks), Completed: filter.CountCompleted(tasks)},
		Projects: projects,
		Tasks:    tasks,
	}

	return writeOutput(env, view, func(t *table) {
		name := ""
		if view.User != nil {
			name = view.User.Name
		}
		t.row(fmt.Sprintf("Welcome, %s!", name))
		t.row("")
		t.row("Task Summary")
		t.row("Total Tasks:", fmt.Sprint(view.Summary.Total))
		t.row("Completed Tasks:", fmt.Sprint(view.Summary.Completed))
		t.row("")
		t.tw.Flush()

		t.row("Your Projects")
		if len(projects) == 0 {
			t.row("No projects yet.")
		} else {
			projectRows(t, projects)
		}
		t.row("")
		t.tw.Flush()

		t.row("Your Tasks")
		if len(tasks) == 0 {
			t.row("No tasks yet.")
		} else {
			taskRows(t, tasks)
		}
	})
}
