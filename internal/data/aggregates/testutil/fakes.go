// Package testutil holds aggregate test doubles: a hooks recorder and a transaction runner
// that fails at commit.
package testutil

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/autumn-backend/internal/data/aggregates"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

type DriftEvent struct {
	Entity string
	Drift  float64
}

// HooksRecorder keeps every hook call in arrival order.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
	Drifts     []DriftEvent
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) locked(fn func()) {
	h.mu.Lock()
	fn()
	h.mu.Unlock()
}

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.locked(func() { h.Operations = append(h.Operations, OperationEvent{name, status, dur}) })
}

func (h *HooksRecorder) IncConflict(name string) {
	h.locked(func() { h.Conflicts = append(h.Conflicts, name) })
}

func (h *HooksRecorder) IncRetry(name string) {
	h.locked(func() { h.Retries = append(h.Retries, name) })
}

func (h *HooksRecorder) ObserveDrift(entity string, drift float64) {
	h.locked(func() { h.Drifts = append(h.Drifts, DriftEvent{entity, drift}) })
}

// CommitFailRunner runs each write inside a real transaction on DB and then returns FailCommit,
// so every row the write touched is rolled back. A nil FailCommit commits normally.
type CommitFailRunner struct {
	DB         *gorm.DB
	FailCommit error

	mu        sync.Mutex
	Commits   int
	Rollbacks int
}

var _ aggregates.TxRunner = (*CommitFailRunner)(nil)

func (r *CommitFailRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
			return err
		}
		return r.FailCommit
	})
	r.mu.Lock()
	if err != nil {
		r.Rollbacks++
	} else {
		r.Commits++
	}
	r.mu.Unlock()
	return err
}
