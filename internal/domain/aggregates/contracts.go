package aggregates

// WriteTxOwnership says who opens the transaction around a write.
type WriteTxOwnership string

// WriteTxOwnedByAggregate: every write method runs in its own transaction and callers never
// pass one in.
const WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"

// ReadPolicy says which reads an aggregate may expose.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped: only the reads a write needs to check its invariants.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
	// ReadPolicyTableRepoQueries: listings and reports stay on the table repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

// Lock targets, in the order aggregates must take them. Two writers that both need a project
// and a session lock the project first.
const (
	LockCommitment = "commitment"
	LockProject    = "project"
	LockSubProject = "subproject"
	LockSession    = "session"
)

var lockRank = map[string]int{LockCommitment: 0, LockProject: 1, LockSubProject: 2, LockSession: 3}

// Contract documents an aggregate's transaction and locking rules.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	// Locks lists the row kinds the aggregate may lock with FOR UPDATE, in acquisition order.
	Locks []string
	Notes string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// LockOrderValid reports whether Locks only names known targets in the global order.
func (c Contract) LockOrderValid() bool {
	prev := -1
	for _, l := range c.Locks {
		r, ok := lockRank[l]
		if !ok || r <= prev {
			return false
		}
		prev = r
	}
	return true
}
