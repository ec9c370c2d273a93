package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/models"
)

// ProjectRequest is the body of project create and update requests
type ProjectRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// ownedProject loads a project owned by the session user. It writes the
// error response and returns false when there is none.
func (s *Server) ownedProject(c *gin.Context, userID, projectID string) (*models.Project, bool) {
	var project models.Project
	err := s.db.Where("id = ? AND owner_id = ?", projectID, userID).First(&project).Error
	if err == nil {
		return &project, true
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
	} else {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Failed to load project")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
	return nil, false
}

func (s *Server) listProjects(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var projects []models.Project
	if err := s.db.Where("owner_id = ?", sessionData.UserID).Order("created_at ASC").Find(&projects).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list projects")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list projects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) getProject(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	project, ok := s.ownedProject(c, sessionData.UserID, c.Param("id"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (s *Server) createProject(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingMessage(err)})
		return
	}

	project := &models.Project{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		OwnerID:     sessionData.UserID,
	}
	if err := s.db.Create(project).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create project")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create project"})
		return
	}

	s.logger.Info().Str("project_id", project.ID).Str("user_id", sessionData.UserID).Msg("Project created")
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

func (s *Server) updateProject(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingMessage(err)})
		return
	}

	project, ok := s.ownedProject(c, sessionData.UserID, c.Param("id"))
	if !ok {
		return
	}

	project.Title = strings.TrimSpace(req.Title)
	project.Description = req.Description
	if err := s.db.Save(project).Error; err != nil {
		s.logger.Error().Err(err).Str("project_id", project.ID).Msg("Failed to update project")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}
