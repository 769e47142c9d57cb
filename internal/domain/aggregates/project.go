package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var ProjectAggregateContract = Contract{
	Name:             "Tracking.ProjectAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Locks:            []string{LockProject, LockSubProject},
	Notes:            "Owns project/subproject lifecycle: name uniqueness, status transitions and cascading deletes.",
}

// ProjectAggregate owns project and subproject lifecycle writes.
type ProjectAggregate interface {
	Aggregate

	CreateProject(ctx context.Context, in CreateProjectInput) (ProjectResult, error)
	UpdateProject(ctx context.Context, in UpdateProjectInput) (ProjectResult, error)
	DeleteProject(ctx context.Context, ownerUserID, projectID uuid.UUID) error
	SetProjectTags(ctx context.Context, ownerUserID, projectID uuid.UUID, tagIDs []uuid.UUID) (ProjectResult, error)

	CreateSubProject(ctx context.Context, in CreateSubProjectInput) (SubProjectResult, error)
	UpdateSubProject(ctx context.Context, in UpdateSubProjectInput) (SubProjectResult, error)
	DeleteSubProject(ctx context.Context, ownerUserID, subProjectID uuid.UUID) error
}

type CreateProjectInput struct {
	OwnerUserID uuid.UUID
	Name        string
	Status      string
	Description string
	ContextID   *uuid.UUID
	TagIDs      []uuid.UUID
}

// UpdateProjectInput applies only the non-nil fields.
type UpdateProjectInput struct {
	OwnerUserID  uuid.UUID
	ProjectID    uuid.UUID
	Name         *string
	Status       *string
	Description  *string
	ContextID    *uuid.UUID
	ClearContext bool
}

type ProjectResult struct {
	ProjectID uuid.UUID
	Name      string
	Status    string
}

type CreateSubProjectInput struct {
	OwnerUserID     uuid.UUID
	ParentProjectID uuid.UUID
	Name            string
	Description     string
}

type UpdateSubProjectInput struct {
	OwnerUserID  uuid.UUID
	SubProjectID uuid.UUID
	Name         *string
	Description  *string
}

type SubProjectResult struct {
	SubProjectID    uuid.UUID
	ParentProjectID uuid.UUID
	Name            string
}
