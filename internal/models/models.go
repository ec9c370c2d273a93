package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Task statuses accepted by the API
const (
	StatusToDo       = "To-Do"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// ValidStatus reports whether s is one of the task statuses
func ValidStatus(s string) bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"_id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config is the singleton row holding server-wide settings
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first start (64 hex chars)
}

// User represents a registered account
type User struct {
	BaseModel
	Email        string `json:"email" gorm:"unique;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Name         string `json:"name" gorm:"not null"`
}

// Project groups tasks and belongs to the user who created it
type Project struct {
	BaseModel
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	OwnerID     string `json:"owner" gorm:"type:varchar(26);not null;index"`
	Owner       *User  `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

// Task is a unit of work inside a project, assigned to one user
type Task struct {
	BaseModel
	Title          string    `json:"title" gorm:"not null"`
	Description    string    `json:"description" gorm:"type:text"`
	Status         string    `json:"status" gorm:"not null;default:'To-Do'"`
	Deadline       time.Time `json:"deadline" gorm:"not null;index"`
	AssignedUserID string    `json:"-" gorm:"type:varchar(26);not null;index"`
	AssignedUser   *User     `json:"assignedUser,omitempty" gorm:"foreignKey:AssignedUserID"`
	ProjectID      string    `json:"-" gorm:"type:varchar(26);not null;index"`
	Project        *Project  `json:"project,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&Config{}, &User{}, &Project{}, &Task{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id string, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
