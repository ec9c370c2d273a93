package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TaskStatus is the workflow state of a task
type TaskStatus string

const (
	StatusToDo       TaskStatus = "To-Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// Statuses lists every status in workflow order
var Statuses = []TaskStatus{StatusToDo, StatusInProgress, StatusCompleted}

// Valid reports whether s is a known status
func (s TaskStatus) Valid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// User represents an account as returned by the API
type User struct {
	ID    string `json:"_id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// UserRef is a reference to a user that the API sends either as a bare ID or
// as an embedded user object
type UserRef struct {
	User `yaml:",inline"`
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*r = UserRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = UserRef{User{ID: id}}
		return nil
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("invalid user reference: %w", err)
	}
	*r = UserRef{user}
	return nil
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.Name == "" && r.Email == "" {
		return json.Marshal(r.ID)
	}
	return json.Marshal(r.User)
}

// Label returns the name when known, the ID otherwise
func (r UserRef) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Project represents a project as returned by the API
type Project struct {
	ID          string    `json:"_id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Owner       string    `json:"owner" yaml:"owner"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// ProjectRef is a reference to a project, either a bare ID or an embedded
// project object
type ProjectRef struct {
	ID    string `json:"_id" yaml:"id"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

func (r *ProjectRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*r = ProjectRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = ProjectRef{ID: id}
		return nil
	}
	var project Project
	if err := json.Unmarshal(data, &project); err != nil {
		return fmt.Errorf("invalid project reference: %w", err)
	}
	*r = ProjectRef{ID: project.ID, Title: project.Title}
	return nil
}

func (r ProjectRef) MarshalJSON() ([]byte, error) {
	if r.Title == "" {
		return json.Marshal(r.ID)
	}
	type plain ProjectRef
	return json.Marshal(plain(r))
}

// Label returns the title when known, the ID otherwise
func (r ProjectRef) Label() string {
	if r.Title != "" {
		return r.Title
	}
	return r.ID
}

// Task represents a task as returned by the API
type Task struct {
	ID           string     `json:"_id" yaml:"id"`
	Title        string     `json:"title" yaml:"title"`
	Description  string     `json:"description" yaml:"description"`
	Status       TaskStatus `json:"status" yaml:"status"`
	Deadline     time.Time  `json:"deadline" yaml:"deadline"`
	AssignedUser UserRef    `json:"assignedUser" yaml:"assignedUser"`
	Project      ProjectRef `json:"project" yaml:"project"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Data         User `json:"data"`
	TokenDetails struct {
		Token string `json:"token"`
	} `json:"tokenDetails"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProjectInput is the body of project create and update requests
type ProjectInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TaskInput is the body of task create and update requests
type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Deadline    string     `json:"deadline"` // YYYY-MM-DD
	Project     string     `json:"project"`
}

type projectsEnvelope struct {
	Projects []Project `json:"projects"`
}

type projectEnvelope struct {
	Project *Project `json:"project"`
}

type tasksEnvelope struct {
	Tasks []Task `json:"tasks"`
}

type taskEnvelope struct {
	Task *Task `json:"task"`
}
