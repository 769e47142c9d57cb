package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/yungbote/autumn-backend/internal/data/db"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.DB.Driver != db.DriverPostgres {
		t.Fatalf("defaults: port=%q driver=%q", cfg.Port, cfg.DB.Driver)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("location: want=UTC got=%v", cfg.Location)
	}
	if !cfg.AuditEnabled || cfg.AuditInterval != time.Hour || cfg.AuditMisfireGrace != time.Minute || cfg.AuditConcurrency != 4 {
		t.Fatalf("audit defaults: got=%+v", cfg)
	}
	if want := "postgres://postgres:@localhost:5432/autumn?sslmode=disable"; cfg.DB.PostgresDSN != want {
		t.Fatalf("dsn: want=%q got=%q", want, cfg.DB.PostgresDSN)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/autumn-test.db")
	t.Setenv("TIME_ZONE", "Europe/Oslo")
	t.Setenv("AUDIT_INTERVAL", "15m")
	t.Setenv("AUDIT_ENABLED", "false")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db:5432/x")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB.Driver != db.DriverSQLite || cfg.DB.SQLitePath != "/tmp/autumn-test.db" {
		t.Fatalf("db: got=%+v", cfg.DB)
	}
	if cfg.Location.String() != "Europe/Oslo" {
		t.Fatalf("location: want=Europe/Oslo got=%v", cfg.Location)
	}
	if cfg.AuditInterval != 15*time.Minute || cfg.AuditEnabled {
		t.Fatalf("audit: interval=%v enabled=%v", cfg.AuditInterval, cfg.AuditEnabled)
	}
	if cfg.DB.PostgresDSN != "postgres://u:p@db:5432/x" {
		t.Fatalf("dsn: got=%q", cfg.DB.PostgresDSN)
	}
	if strings.Join(cfg.CORSOrigins, "|") != "https://a.example|https://b.example" {
		t.Fatalf("cors: got=%v", cfg.CORSOrigins)
	}
}

func TestLoadConfigFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autumn.yaml")
	body := "PORT: \"9000\"\nAUDIT_CONCURRENCY: 2\nTIME_ZONE: Asia/Tokyo\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("AUDIT_CONCURRENCY", "8")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9000" || cfg.Location.String() != "Asia/Tokyo" {
		t.Fatalf("file values: port=%q tz=%v", cfg.Port, cfg.Location)
	}
	// env wins over the file
	if cfg.AuditConcurrency != 8 {
		t.Fatalf("concurrency: want=8 got=%d", cfg.AuditConcurrency)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("TIME_ZONE", "Mars/Olympus")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("unknown zone: want error got=nil")
	}
	t.Setenv("TIME_ZONE", "UTC")
	t.Setenv("AUDIT_INTERVAL", "0s")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("zero interval: want error got=nil")
	}
}
