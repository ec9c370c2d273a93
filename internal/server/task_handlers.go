package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/models"
)

const deadlineLayout = "2006-01-02"

// TaskRequest is the body of task create and update requests
type TaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Status      string `json:"status" binding:"omitempty,taskstatus"`
	Deadline    string `json:"deadline" binding:"required,datetime=2006-01-02"`
	Project     string `json:"project" binding:"required"`
}

// UserRef is an embedded user in task responses
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProjectRef is an embedded project in task responses
type ProjectRef struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// TaskDetail is a task as returned by the API
type TaskDetail struct {
	ID           string      `json:"_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Status       string      `json:"status"`
	Deadline     time.Time   `json:"deadline"`
	AssignedUser *UserRef    `json:"assignedUser"`
	Project      *ProjectRef `json:"project"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func taskDetail(task *models.Task) TaskDetail {
	detail := TaskDetail{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Deadline:    task.Deadline,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.AssignedUser != nil {
		detail.AssignedUser = &UserRef{ID: task.AssignedUser.ID, Name: task.AssignedUser.Name, Email: task.AssignedUser.Email}
	} else if task.AssignedUserID != "" {
		detail.AssignedUser = &UserRef{ID: task.AssignedUserID}
	}
	if task.Project != nil {
		detail.Project = &ProjectRef{ID: task.Project.ID, Title: task.Project.Title}
	} else if task.ProjectID != "" {
		detail.Project = &ProjectRef{ID: task.ProjectID}
	}
	return detail
}

// visibleTasks scopes a query to tasks assigned to the user or in projects
// the user owns
func (s *Server) visibleTasks(userID string) *gorm.DB {
	owned := s.db.Model(&models.Project{}).Select("id").Where("owner_id = ?", userID)
	return s.db.Preload("AssignedUser").Preload("Project").
		Where("(assigned_user_id = ? OR project_id IN (?))", userID, owned)
}

func (s *Server) visibleTask(c *gin.Context, userID, taskID string) (*models.Task, bool) {
	var task models.Task
	err := s.visibleTasks(userID).Where("id = ?", taskID).First(&task).Error
	if err == nil {
		return &task, true
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
	} else {
		s.logger.Error().Err(err).Str("task_id", taskID).Msg("Failed to load task")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
	return nil, false
}

func (s *Server) listTasks(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var tasks []models.Task
	if err := s.visibleTasks(sessionData.UserID).Order("deadline ASC, created_at ASC").Find(&tasks).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tasks")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list tasks"})
		return
	}

	details := make([]TaskDetail, len(tasks))
	for i := range tasks {
		details[i] = taskDetail(&tasks[i])
	}
	c.JSON(http.StatusOK, gin.H{"tasks": details})
}

func (s *Server) getTask(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	task, ok := s.visibleTask(c, sessionData.UserID, c.Param("id"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": taskDetail(task)})
}

func (s *Server) createTask(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingMessage(err)})
		return
	}

	project, ok := s.ownedProject(c, sessionData.UserID, req.Project)
	if !ok {
		return
	}

	// Already validated by the binding
	deadline, _ := time.Parse(deadlineLayout, req.Deadline)
	status := req.Status
	if status == "" {
		status = models.StatusToDo
	}

	task := &models.Task{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Status:         status,
		Deadline:       deadline.UTC(),
		AssignedUserID: sessionData.UserID,
		ProjectID:      project.ID,
	}
	if err := s.db.Create(task).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create task")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create task"})
		return
	}

	if err := models.FindByIDWithPreload(s.db, task.ID, task, "AssignedUser", "Project"); err != nil {
		s.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to reload task")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create task"})
		return
	}

	s.logger.Info().Str("task_id", task.ID).Str("project_id", project.ID).Msg("Task created")
	c.JSON(http.StatusCreated, gin.H{"task": taskDetail(task)})
}

func (s *Server) updateTask(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingMessage(err)})
		return
	}

	task, ok := s.visibleTask(c, sessionData.UserID, c.Param("id"))
	if !ok {
		return
	}

	if req.Project != task.ProjectID {
		project, ok := s.ownedProject(c, sessionData.UserID, req.Project)
		if !ok {
			return
		}
		task.ProjectID = project.ID
	}

	deadline, _ := time.Parse(deadlineLayout, req.Deadline)
	task.Title = strings.TrimSpace(req.Title)
	task.Description = req.Description
	task.Deadline = deadline.UTC()
	if req.Status != "" {
		task.Status = req.Status
	}

	err := s.db.Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]any{
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"deadline":    task.Deadline,
		"project_id":  task.ProjectID,
		"updated_at":  time.Now(),
	}).Error
	if err != nil {
		s.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to update task")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update task"})
		return
	}

	var updated models.Task
	if err := models.FindByIDWithPreload(s.db, task.ID, &updated, "AssignedUser", "Project"); err != nil {
		s.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to reload task")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": taskDetail(&updated)})
}
