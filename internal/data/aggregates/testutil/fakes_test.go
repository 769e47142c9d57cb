package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/autumn-backend/internal/platform/dbctx"
)

type row struct {
	ID   int
	Name string
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormLogger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&row{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&row{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestCommitFailRunnerRollsBackWrites(t *testing.T) {
	db := openDB(t)
	commitErr := errors.New("commit failed")
	r := &CommitFailRunner{DB: db, FailCommit: commitErr}

	err := r.InTx(context.Background(), func(dbc dbctx.Context) error {
		return dbc.Tx.Create(&row{Name: "a"}).Error
	})
	if !errors.Is(err, commitErr) {
		t.Fatalf("want commit err, got=%v", err)
	}
	if n := countRows(t, db); n != 0 {
		t.Fatalf("rows after rollback: want=0 got=%d", n)
	}
	if r.Commits != 0 || r.Rollbacks != 1 {
		t.Fatalf("counters: commits=%d rollbacks=%d", r.Commits, r.Rollbacks)
	}
}

func TestCommitFailRunnerCommitsWithoutFailure(t *testing.T) {
	db := openDB(t)
	r := &CommitFailRunner{DB: db}
	if err := r.InTx(context.Background(), func(dbc dbctx.Context) error {
		return dbc.Tx.Create(&row{Name: "a"}).Error
	}); err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if n := countRows(t, db); n != 1 || r.Commits != 1 {
		t.Fatalf("want one committed row, rows=%d commits=%d", n, r.Commits)
	}
}

func TestHooksRecorderKeepsOrder(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("Tracking.Audit.AuditProject", "success", time.Millisecond)
	h.IncRetry("Tracking.Session.StartSession")
	h.ObserveDrift("project", 12.5)
	h.ObserveDrift("subproject", -3)

	if len(h.Operations) != 1 || h.Operations[0].Status != "success" {
		t.Fatalf("operations: %+v", h.Operations)
	}
	if len(h.Retries) != 1 || len(h.Conflicts) != 0 {
		t.Fatalf("retries=%v conflicts=%v", h.Retries, h.Conflicts)
	}
	if len(h.Drifts) != 2 || h.Drifts[1].Entity != "subproject" || h.Drifts[1].Drift != -3 {
		t.Fatalf("drifts: %+v", h.Drifts)
	}
}
