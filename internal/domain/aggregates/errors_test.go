package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodesSurviveWrapping(t *testing.T) {
	base := NotFoundf("Tracking.Project.Get", "project %s not found", "p1")
	wrapped := fmt.Errorf("handler: %w", base)
	if !IsCode(wrapped, CodeNotFound) {
		t.Fatalf("expected not_found through wrapping, got=%v", CodeOf(wrapped))
	}
	if IsCode(wrapped, CodeValidation) {
		t.Fatalf("not_found must not read as validation")
	}
}

func TestErrorString(t *testing.T) {
	err := Validationf("Tracking.Merge.Projects", "cannot merge a project with itself")
	want := "Tracking.Merge.Projects: cannot merge a project with itself (validation)"
	if err.Error() != want {
		t.Fatalf("error string: want=%q got=%q", want, err.Error())
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) must stay nil")
	}
}

func TestRetryableAndInvariant(t *testing.T) {
	if !Retryable(fmt.Errorf("tx: %w", NewError(CodeRetryable, "Tracking.Session.Start", "deadlock", nil))) {
		t.Fatalf("wrapped retryable must stay retryable")
	}
	if Retryable(Conflictf("op", "busy")) {
		t.Fatalf("conflict is not retryable")
	}
	err := Invariantf("Tracking.Audit.Project", "drift %d", 5)
	if CodeOf(err) != CodeInvariantViolation {
		t.Fatalf("code: want=%s got=%s", CodeInvariantViolation, CodeOf(err))
	}
	if got := (&Error{Code: CodeInternal}).Error(); got != "internal" {
		t.Fatalf("bare error string: want=internal got=%q", got)
	}
}
