package tracking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProjectStatusActive    = "active"
	ProjectStatusPaused    = "paused"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// IsValidProjectStatus reports whether s is one of the known project statuses.
func IsValidProjectStatus(s string) bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case ProjectStatusActive, ProjectStatusPaused, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	default:
		return false
	}
}

// Project is a first-level time bucket. TotalTime is derived from the session ledger.
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index:idx_project_owner_name,unique,priority:1" json:"owner_user_id"`
	Name        string    `gorm:"column:name;not null;index:idx_project_owner_name,unique,priority:2" json:"name"`

	// active|paused|completed|archived
	Status string `gorm:"column:status;not null;default:active;index" json:"status"`

	// minutes
	TotalTime float64 `gorm:"column:total_time;not null;default:0" json:"total_time"`

	StartDate   datatypes.Date `gorm:"column:start_date" json:"start_date"`
	LastUpdated time.Time      `gorm:"column:last_updated;not null" json:"last_updated"`
	Description string         `gorm:"column:description;type:text" json:"description"`

	ContextID *uuid.UUID `gorm:"type:uuid;index" json:"context_id,omitempty"`

	TagIDs []uuid.UUID `gorm:"-" json:"tag_ids,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// SubProject is a second-level bucket whose name is unique within its parent.
type SubProject struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	ParentProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_subproject_parent_name,unique,priority:1" json:"parent_project_id"`
	Name            string    `gorm:"column:name;not null;index:idx_subproject_parent_name,unique,priority:2" json:"name"`
	Description     string    `gorm:"column:description;type:text" json:"description"`

	TotalTime   float64        `gorm:"column:total_time;not null;default:0" json:"total_time"`
	StartDate   datatypes.Date `gorm:"column:start_date" json:"start_date"`
	LastUpdated time.Time      `gorm:"column:last_updated;not null" json:"last_updated"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (SubProject) TableName() string { return "subproject" }

func (s *SubProject) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Context groups projects (e.g. "work", "personal").
type Context struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index:idx_context_owner_name,unique,priority:1" json:"owner_user_id"`
	Name        string    `gorm:"column:name;not null;index:idx_context_owner_name,unique,priority:2" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Context) TableName() string { return "context" }

func (c *Context) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Tag struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index:idx_tag_owner_name,unique,priority:1" json:"owner_user_id"`
	Name        string    `gorm:"column:name;not null;index:idx_tag_owner_name,unique,priority:2" json:"name"`
	Color       string    `gorm:"column:color" json:"color"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Tag) TableName() string { return "tag" }

func (t *Tag) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ProjectTag is the project<->tag join row.
type ProjectTag struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey" json:"project_id"`
	TagID     uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"tag_id"`
}

func (ProjectTag) TableName() string { return "project_tag" }
