package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var MergeAggregateContract = Contract{
	Name:             "Tracking.MergeAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Locks:            []string{LockProject, LockSubProject},
	Notes: "Consolidates two projects or two subprojects, reassigning sessions and children, " +
		"then audits the result inside the same transaction.",
}

// MergeAggregate owns project and subproject merges.
type MergeAggregate interface {
	Aggregate

	MergeProjects(ctx context.Context, in MergeProjectsInput) (MergeProjectsResult, error)
	MergeSubProjects(ctx context.Context, in MergeSubProjectsInput) (MergeSubProjectsResult, error)
}

type MergeProjectsInput struct {
	OwnerUserID uuid.UUID
	ProjectAID  uuid.UUID
	ProjectBID  uuid.UUID
	NewName     string
}

type MergeProjectsResult struct {
	ProjectID       uuid.UUID
	TotalTime       float64
	SessionsMoved   int64
	SubProjectNames map[uuid.UUID]string
}

type MergeSubProjectsInput struct {
	OwnerUserID     uuid.UUID
	ParentProjectID uuid.UUID
	SubProjectXID   uuid.UUID
	SubProjectYID   uuid.UUID
	NewName         string
}

type MergeSubProjectsResult struct {
	SubProjectID  uuid.UUID
	TotalTime     float64
	SessionsMoved int64
}
