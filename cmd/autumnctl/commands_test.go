package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/autumn-backend/internal/domain"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/services"
)

type fakeAudit struct {
	services.AuditService
	owners map[string]uuid.UUID
	swept  []uuid.UUID
	status string
}

func (f *fakeAudit) ResolveOwner(_ context.Context, username string) (uuid.UUID, error) {
	id, ok := f.owners[username]
	if !ok {
		return uuid.Nil, domainagg.NotFoundf("audit.resolve_owner", "user %q not found", username)
	}
	return id, nil
}

func (f *fakeAudit) Sweep(_ context.Context, owner uuid.UUID) (services.SweepReport, error) {
	f.swept = append(f.swept, owner)
	return services.SweepReport{Status: f.status, Projects: 2, Corrections: 1}, nil
}

type fakeCommitments struct {
	services.CommitmentService
	id    uuid.UUID
	force bool
}

func (f *fakeCommitments) Reconcile(_ context.Context, owner, id uuid.UUID, force bool) (domainagg.ReconcileResult, error) {
	f.id, f.force = id, force
	return domainagg.ReconcileResult{Reconciled: true, Balance: 45}, nil
}

type fakeTracking struct {
	services.TrackingService
}

func (fakeTracking) CreateUser(_ context.Context, username, tz string) (*types.User, error) {
	return &types.User{ID: uuid.New(), Username: username, Timezone: tz}, nil
}

func run(t *testing.T, audit *fakeAudit, commitments *fakeCommitments, args ...string) (string, error) {
	t.Helper()
	closed := 0
	core := func(context.Context) (services.TrackingService, services.CommitmentService, services.AuditService, func(), error) {
		return fakeTracking{}, commitments, audit, func() { closed++ }, nil
	}
	root := newRootCmdWith(core)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	if closed > 1 {
		t.Fatalf("core closed: want<=1 got=%d", closed)
	}
	return out.String(), err
}

func TestAuditCommand(t *testing.T) {
	ada := uuid.New()
	audit := &fakeAudit{owners: map[string]uuid.UUID{"ada": ada}, status: services.SweepSuccess}

	out, err := run(t, audit, &fakeCommitments{}, "audit")
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(audit.swept) != 1 || audit.swept[0] != uuid.Nil {
		t.Fatalf("global sweep owner: got=%v", audit.swept)
	}
	if !strings.Contains(out, "audit success: 2 projects") {
		t.Fatalf("output: got=%q", out)
	}

	if _, err := run(t, audit, &fakeCommitments{}, "audit", "--username", "ada"); err != nil {
		t.Fatalf("audit --username: %v", err)
	}
	if audit.swept[1] != ada {
		t.Fatalf("owner sweep: want=%s got=%s", ada, audit.swept[1])
	}

	_, err = run(t, audit, &fakeCommitments{}, "audit", "--username", "nobody")
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown user: want not_found got=%v", err)
	}

	audit.status = services.SweepPartial
	if _, err := run(t, audit, &fakeCommitments{}, "audit"); err == nil {
		t.Fatalf("partial sweep: want error got=nil")
	}
}

func TestReconcileCommand(t *testing.T) {
	c := &fakeCommitments{}
	id := uuid.New()
	out, err := run(t, &fakeAudit{}, c, "reconcile", id.String(), "--force")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if c.id != id || !c.force {
		t.Fatalf("reconcile args: id=%s force=%v", c.id, c.force)
	}
	if !strings.Contains(out, `"balance": 45`) {
		t.Fatalf("output: got=%q", out)
	}

	if _, err := run(t, &fakeAudit{}, c, "reconcile", "not-a-uuid"); err == nil {
		t.Fatalf("bad id: want error got=nil")
	}
}

func TestUserAddCommand(t *testing.T) {
	out, err := run(t, &fakeAudit{}, &fakeCommitments{}, "user", "add", "ada", "--timezone", "Europe/Oslo")
	if err != nil {
		t.Fatalf("user add: %v", err)
	}
	if !strings.Contains(out, `"username": "ada"`) || !strings.Contains(out, "Europe/Oslo") {
		t.Fatalf("output: got=%q", out)
	}
}
