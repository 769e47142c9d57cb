package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var SessionAggregateContract = Contract{
	Name:             "Tracking.SessionAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Locks:            []string{LockSession},
	Notes: "Owns session ledger writes together with the project/subproject total_time and " +
		"last_updated updates they cause, in one transaction per call.",
}

// SessionAggregate is the aggregate maintainer: every session mutation that can move a derived
// total goes through it.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type SessionAggregate interface {
	Aggregate

	// StartSession creates an active session. Active sessions contribute nothing to totals.
	StartSession(ctx context.Context, in StartSessionInput) (SessionResult, error)

	// RestartSession moves an active session's start time to now. Totals are untouched.
	RestartSession(ctx context.Context, in RestartSessionInput) (SessionResult, error)

	// FinalizeSession sets the end time once and adds the duration to the project and its linked subprojects.
	FinalizeSession(ctx context.Context, in FinalizeSessionInput) (SessionResult, error)

	// TrackSession creates an already-completed session and applies its duration.
	TrackSession(ctx context.Context, in TrackSessionInput) (SessionResult, error)

	// SetSessionSubProjects changes subproject membership; for completed sessions only the
	// subprojects that actually joined or left move by the session duration.
	SetSessionSubProjects(ctx context.Context, in SetSessionSubProjectsInput) (SessionResult, error)

	// DeleteSession removes a session and, if it was completed, retracts its duration (floored at 0).
	DeleteSession(ctx context.Context, in DeleteSessionInput) (SessionResult, error)

	// ReplaceSession retracts a completed session and asserts its replacement atomically.
	ReplaceSession(ctx context.Context, in ReplaceSessionInput) (SessionResult, error)
}

type StartSessionInput struct {
	OwnerUserID   uuid.UUID
	ProjectID     uuid.UUID
	SubProjectIDs []uuid.UUID
	StartTime     time.Time
	Note          string
}

type RestartSessionInput struct {
	OwnerUserID uuid.UUID
	SessionID   uuid.UUID
	// StartTime defaults to the aggregate clock when zero.
	StartTime time.Time
}

type FinalizeSessionInput struct {
	OwnerUserID uuid.UUID
	SessionID   uuid.UUID
	EndTime     time.Time
	Note        *string
}

type TrackSessionInput struct {
	OwnerUserID   uuid.UUID
	ProjectID     uuid.UUID
	SubProjectIDs []uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	Note          string
}

type SetSessionSubProjectsInput struct {
	OwnerUserID uuid.UUID
	SessionID   uuid.UUID
	Add         []uuid.UUID
	Remove      []uuid.UUID
	// Clear drops every current link before Add is applied.
	Clear bool
}

type DeleteSessionInput struct {
	OwnerUserID uuid.UUID
	SessionID   uuid.UUID
}

type ReplaceSessionInput struct {
	OwnerUserID uuid.UUID
	SessionID   uuid.UUID
	Replacement TrackSessionInput
}

// UpdatedAggregates reports the totals a session write left behind.
type UpdatedAggregates struct {
	ProjectID        uuid.UUID             `json:"project_id"`
	ProjectTotal     float64               `json:"project_total"`
	SubProjectTotals map[uuid.UUID]float64 `json:"subproject_totals"`
}

type SessionResult struct {
	SessionID  uuid.UUID
	Completed  bool
	Duration   float64
	Aggregates UpdatedAggregates
	AppliedAt  time.Time
}
