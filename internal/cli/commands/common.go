package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/taskboard-dev/taskboard/internal/cli/client"
	"github.com/taskboard-dev/taskboard/internal/cli/filter"
	"github.com/taskboard-dev/taskboard/internal/cli/output"
)

// table wraps a tabwriter so views can print rows without format strings
type table struct {
	tw *tabwriter.Writer
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) rule(headers ...string) {
	fmt.Fprintln(t.tw, output.Underline(headers...))
}

// writeOutput prints v in the selected format, using fill for the table format
func writeOutput(env *Env, v any, fill func(t *table)) error {
	return output.Write(env.Out, env.Format, v, func(w io.Writer) error {
		t := &table{tw: output.NewTable(w)}
		fill(t)
		return t.tw.Flush()
	})
}

// formatDate renders a deadline the way the views show it
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(filter.DateLayout)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to n runes for table cells
func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func taskRows(t *table, tasks []client.Task) {
	t.row("TITLE", "STATUS", "DEADLINE", "ASSIGNED", "PROJECT", "ID")
	t.rule("TITLE", "STATUS", "DEADLINE", "ASSIGNED", "PROJECT", "ID")
	for _, task := range tasks {
		t.row(
			truncate(task.Title, 40),
			string(task.Status),
			formatDate(task.Deadline),
			orDash(task.AssignedUser.Label()),
			orDash(task.Project.Label()),
			task.ID,
		)
	}
}

func projectRows(t *table, projects []client.Project) {
	t.row("TITLE", "DESCRIPTION", "ID")
	t.rule("TITLE", "DESCRIPTION", "ID")
	for _, project := range projects {
		t.row(truncate(project.Title, 40), orDash(truncate(project.Description, 50)), project.ID)
	}
}
