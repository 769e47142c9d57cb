package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var CommitmentAggregateContract = Contract{
	Name:             "Tracking.CommitmentAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Locks:            []string{LockCommitment},
	Notes:            "Owns commitment creation and period-end banking against the last_reconciled watermark.",
}

// CommitmentAggregate owns commitment writes.
type CommitmentAggregate interface {
	Aggregate

	CreateCommitment(ctx context.Context, in CreateCommitmentInput) (CommitmentResult, error)

	// Reconcile banks every fully-ended period past the watermark. It returns false when there was
	// nothing new to reconcile; that is not an error.
	Reconcile(ctx context.Context, in ReconcileInput) (ReconcileResult, error)
}

type CreateCommitmentInput struct {
	OwnerUserID    uuid.UUID
	ProjectID      uuid.UUID
	Period         string
	CommitmentType string
	Target         int
	BankingEnabled bool
	MinBalance     *int
	MaxBalance     *int
}

type CommitmentResult struct {
	CommitmentID uuid.UUID
	MinBalance   int
	MaxBalance   int
}

type ReconcileInput struct {
	CommitmentID uuid.UUID
	Force        bool
	Now          time.Time
	Location     *time.Location
}

type ReconciledPeriod struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Actual  float64   `json:"actual"`
	Surplus float64   `json:"surplus"`
}

type ReconcileResult struct {
	Reconciled     bool               `json:"reconciled"`
	Periods        []ReconciledPeriod `json:"periods"`
	Balance        int                `json:"balance"`
	LastReconciled time.Time          `json:"last_reconciled"`
}
