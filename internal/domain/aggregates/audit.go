package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var AuditAggregateContract = Contract{
	Name:             "Tracking.AuditAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Locks:            []string{LockProject, LockSubProject},
	Notes:            "Recomputes derived totals from the completed-session ledger; idempotent.",
}

// AuditAggregate recomputes total_time from scratch to correct drift.
type AuditAggregate interface {
	Aggregate

	AuditProject(ctx context.Context, projectID uuid.UUID) (AuditResult, error)
	AuditSubProject(ctx context.Context, subProjectID uuid.UUID) (AuditResult, error)
	// AuditProjectTree audits a project and every one of its subprojects in one transaction.
	AuditProjectTree(ctx context.Context, projectID uuid.UUID) ([]AuditResult, error)
}

type AuditEntity string

const (
	AuditEntityProject    AuditEntity = "project"
	AuditEntitySubProject AuditEntity = "subproject"
)

type AuditResult struct {
	Entity   AuditEntity
	ID       uuid.UUID
	Previous float64
	Total    float64
}

// Drift is how far the stored total was from the ledger.
func (r AuditResult) Drift() float64 {
	return r.Total - r.Previous
}
