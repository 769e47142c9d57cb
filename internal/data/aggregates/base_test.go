package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

// directRunner calls fn without a database.
type directRunner struct{}

func (directRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	statuses  []string
	conflicts int
	retries   int
}

func (h *spyHooks) ObserveOperation(_, status string, _ time.Duration) {
	h.statuses = append(h.statuses, status)
}
func (h *spyHooks) IncConflict(string)           { h.conflicts++ }
func (h *spyHooks) IncRetry(string)              { h.retries++ }
func (h *spyHooks) ObserveDrift(string, float64) {}

func TestExecuteWriteOutcomes(t *testing.T) {
	tests := []struct {
		name          string
		bodyErr       error
		maxAttempts   int
		wantStatus    string
		wantCalls     int
		wantConflicts int
		wantRetries   int
	}{
		{"success", nil, 0, statusSuccess, 1, 0, 0},
		{"invariant", InvariantError("negative total"), 0, string(domainagg.CodeInvariantViolation), 1, 0, 0},
		{"conflict", ConflictError("watermark moved"), 0, string(domainagg.CodeConflict), 1, 1, 0},
		{"validation", domainagg.Validationf("op", "bad"), 0, string(domainagg.CodeValidation), 1, 0, 0},
		{"plain error", errors.New("boom"), 0, string(domainagg.CodeInternal), 1, 0, 0},
		{"retry exhausted", RetryableError("database is locked"), 2, string(domainagg.CodeRetryable), 2, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hooks := &spyHooks{}
			calls := 0
			err := executeWrite(context.Background(), BaseDeps{
				Runner:      directRunner{},
				Hooks:       hooks,
				MaxAttempts: tt.maxAttempts,
			}, "Tracking.Test."+tt.name, func(_ dbctx.Context) error {
				calls++
				return tt.bodyErr
			})
			if got := aggregateErrorStatus(err); got != tt.wantStatus {
				t.Fatalf("status: want=%s got=%s (err=%v)", tt.wantStatus, got, err)
			}
			if calls != tt.wantCalls {
				t.Fatalf("attempts: want=%d got=%d", tt.wantCalls, calls)
			}
			if len(hooks.statuses) != 1 || hooks.statuses[0] != tt.wantStatus {
				t.Fatalf("observed statuses: want=[%s] got=%v", tt.wantStatus, hooks.statuses)
			}
			if hooks.conflicts != tt.wantConflicts || hooks.retries != tt.wantRetries {
				t.Fatalf("counters: want conflicts=%d retries=%d got conflicts=%d retries=%d",
					tt.wantConflicts, tt.wantRetries, hooks.conflicts, hooks.retries)
			}
		})
	}
}

func TestExecuteWriteRetriesUntilSuccess(t *testing.T) {
	hooks := &spyHooks{}
	calls := 0
	err := executeWrite(context.Background(), BaseDeps{Runner: directRunner{}, Hooks: hooks}, "Tracking.Test.Flaky", func(_ dbctx.Context) error {
		calls++
		if calls < defaultWriteAttempts {
			return RetryableError("serialization failure")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("flaky write: %v", err)
	}
	if calls != defaultWriteAttempts || hooks.retries != defaultWriteAttempts-1 {
		t.Fatalf("attempts: want=%d got=%d retries=%d", defaultWriteAttempts, calls, hooks.retries)
	}
	if hooks.statuses[0] != statusSuccess {
		t.Fatalf("status: want=success got=%s", hooks.statuses[0])
	}
}

func TestExecuteWriteStopsRetryingWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := executeWrite(ctx, BaseDeps{Runner: directRunner{}}, "Tracking.Test.Cancel", func(_ dbctx.Context) error {
		calls++
		cancel()
		return context.Canceled
	})
	if !domainagg.Retryable(err) || calls != 1 {
		t.Fatalf("canceled write: calls=%d err=%v", calls, err)
	}
}

func TestExecuteWriteDefaultsOpName(t *testing.T) {
	err := executeWrite(context.Background(), BaseDeps{Runner: directRunner{}}, "  ", func(_ dbctx.Context) error {
		return errors.New("boom")
	})
	var aggErr *domainagg.Error
	if !errors.As(err, &aggErr) || aggErr.Op != "aggregate.write" {
		t.Fatalf("default op: got=%+v", aggErr)
	}
}

func TestAggregateErrorStatusClassifiesRawErrors(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != statusSuccess {
		t.Fatalf("nil: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(context.DeadlineExceeded); got != string(domainagg.CodeRetryable) {
		t.Fatalf("deadline: want=retryable got=%s", got)
	}
}
