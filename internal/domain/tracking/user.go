package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the owner every tracked entity hangs off.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username string    `gorm:"column:username;not null;uniqueIndex" json:"username"`

	// IANA zone name used for owner-local dates; empty means the service default.
	Timezone string `gorm:"column:timezone" json:"timezone"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Location resolves the owner's zone, falling back to def.
func (u *User) Location(def *time.Location) *time.Location {
	if def == nil {
		def = time.UTC
	}
	if u == nil || u.Timezone == "" {
		return def
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return def
	}
	return loc
}
