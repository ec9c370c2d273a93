package filter

import (
	"strings"
	"time"

	"github.com/taskboard-dev/taskboard/internal/cli/client"
)

// AllStatuses matches tasks of any status
const AllStatuses = "all"

// DateLayout is the deadline filter format
const DateLayout = "2006-01-02"

// Criteria narrows a task list. Zero values match everything.
type Criteria struct {
	Status       string    // "", "all" or a task status
	Deadline     time.Time // matches tasks due on the same UTC calendar day
	AssignedUser string    // user ID
	Search       string    // case-insensitive, over title and description
}

// Match reports whether task satisfies every criterion
func (c Criteria) Match(task client.Task) bool {
	// No status picked means every status, the same as "all"
	if c.Status != "" && c.Status != AllStatuses && string(task.Status) != c.Status {
		return false
	}

	if !c.Deadline.IsZero() && !sameDay(task.Deadline, c.Deadline) {
		return false
	}

	if c.AssignedUser != "" && task.AssignedUser.ID != c.AssignedUser {
		return false
	}

	if c.Search != "" {
		needle := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(task.Title), needle) &&
			!strings.Contains(strings.ToLower(task.Description), needle) {
			return false
		}
	}

	return true
}

// Apply returns the tasks matching c, in their original order
func (c Criteria) Apply(tasks []client.Task) []client.Task {
	matched := make([]client.Task, 0, len(tasks))
	for _, task := range tasks {
		if c.Match(task) {
			matched = append(matched, task)
		}
	}
	return matched
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// CountCompleted returns how many tasks are completed
func CountCompleted(tasks []client.Task) int {
	count := 0
	for _, task := range tasks {
		if task.Status == client.StatusCompleted {
			count++
		}
	}
	return count
}
