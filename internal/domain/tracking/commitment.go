package tracking

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CommitmentTypeTime  = "time"
	CommitmentTypeCount = "count"
)

const (
	ProgressComplete    = "complete"
	ProgressApproaching = "approaching"
	ProgressOnTrack     = "on_track"
	ProgressWarning     = "warning"
	ProgressBehind      = "behind"
)

// Commitment is a recurring time or count goal for a project over a calendar period.
type Commitment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`

	Period         PeriodKind `gorm:"column:period;not null" json:"period"`
	CommitmentType string     `gorm:"column:commitment_type;not null" json:"commitment_type"`
	// minutes for time commitments, sessions for count commitments
	Target int  `gorm:"column:target;not null" json:"target"`
	Active bool `gorm:"column:active;not null" json:"active"`

	BankingEnabled bool       `gorm:"column:banking_enabled;not null" json:"banking_enabled"`
	Balance        int        `gorm:"column:balance;not null" json:"balance"`
	MinBalance     int        `gorm:"column:min_balance;not null" json:"min_balance"`
	MaxBalance     int        `gorm:"column:max_balance;not null" json:"max_balance"`
	LastReconciled *time.Time `gorm:"column:last_reconciled" json:"last_reconciled,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Commitment) TableName() string { return "commitment" }

func (c *Commitment) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Actual picks the measured quantity for the commitment type: minutes for time, sessions for count.
func (c *Commitment) Actual(minutes float64, count int64) float64 {
	if c != nil && c.CommitmentType == CommitmentTypeCount {
		return float64(count)
	}
	return minutes
}

// IsValidCommitmentType reports whether t is time or count.
func IsValidCommitmentType(t string) bool {
	switch strings.TrimSpace(strings.ToLower(t)) {
	case CommitmentTypeTime, CommitmentTypeCount:
		return true
	default:
		return false
	}
}

// DefaultBalanceBounds returns the clamp window used when a commitment does not set one.
func DefaultBalanceBounds(target int) (int, int) {
	if target <= 0 {
		return 0, 0
	}
	return -4 * target, 4 * target
}

// ClampBalance bounds v to [lo, hi].
func ClampBalance(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ProgressPercentage is 0 when target <= 0, else min(100, round(100*actual/target, 1)).
func ProgressPercentage(actual float64, target int) float64 {
	if target <= 0 {
		return 0
	}
	pct := math.Round(1000*actual/float64(target)) / 10
	if pct > 100 {
		return 100
	}
	return pct
}

// ProgressStatus buckets a percentage.
func ProgressStatus(pct float64) string {
	switch {
	case pct >= 100:
		return ProgressComplete
	case pct >= 75:
		return ProgressApproaching
	case pct >= 50:
		return ProgressOnTrack
	case pct >= 25:
		return ProgressWarning
	default:
		return ProgressBehind
	}
}
