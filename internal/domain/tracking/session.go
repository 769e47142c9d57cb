package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is one tracked interval. It is active until EndTime is set, and immutable after that:
// edits are modelled as delete + re-create.
type Session struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`

	StartTime time.Time  `gorm:"column:start_time;not null;index" json:"start_time"`
	EndTime   *time.Time `gorm:"column:end_time;index" json:"end_time,omitempty"`
	Note      string     `gorm:"column:note;type:text" json:"note"`
	IsActive  bool       `gorm:"column:is_active;not null;index" json:"is_active"`

	// Written once at finalization; nil while active.
	DurationMinutes *float64 `gorm:"column:duration_minutes" json:"duration,omitempty"`

	SubProjectIDs []uuid.UUID `gorm:"-" json:"subproject_ids"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "session" }

func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.IsActive = s.EndTime == nil
	return nil
}

// Completed reports whether the session has an end time.
func (s *Session) Completed() bool {
	return s != nil && s.EndTime != nil
}

// Duration returns the session length in minutes, or 0 while active.
func (s *Session) Duration() float64 {
	if s == nil || s.EndTime == nil {
		return 0
	}
	if s.DurationMinutes != nil {
		return *s.DurationMinutes
	}
	return DurationMinutes(s.StartTime, *s.EndTime)
}

// DurationMinutes is (end - start) in fractional minutes.
func DurationMinutes(start, end time.Time) float64 {
	return end.Sub(start).Seconds() / 60.0
}

// SessionSubProject links a session to one of its project's subprojects.
type SessionSubProject struct {
	SessionID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"session_id"`
	SubProjectID uuid.UUID `gorm:"column:subproject_id;type:uuid;primaryKey;index" json:"subproject_id"`
}

func (SessionSubProject) TableName() string { return "session_subproject" }
