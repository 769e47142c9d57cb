package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/autumn-backend/internal/data/db"
)

// ConfigFileEnv names an optional YAML file whose keys use the same names as the env vars.
const ConfigFileEnv = "AUTUMN_CONFIG"

type Config struct {
	LogMode string
	Port    string

	DB db.Config

	Location *time.Location

	AuditEnabled      bool
	AuditInterval     time.Duration
	AuditMisfireGrace time.Duration
	AuditConcurrency  int
	AuditLockTTL      time.Duration
	RedisAddr         string

	MetricsEnabled bool
	MetricsAddr    string

	OtelEnabled     bool
	OtelServiceName string
	OtelEnvironment string
	OtelVersion     string
	OtelEndpoint    string
	OtelHeaders     string
	OtelInsecure    bool
	OtelSampleRatio float64

	CORSOrigins []string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("PORT", "8080")

	v.SetDefault("DB_DRIVER", db.DriverPostgres)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("POSTGRES_NAME", "autumn")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("SQLITE_PATH", "autumn.db")

	v.SetDefault("TIME_ZONE", "UTC")

	v.SetDefault("AUDIT_ENABLED", true)
	v.SetDefault("AUDIT_INTERVAL", time.Hour)
	v.SetDefault("AUDIT_MISFIRE_GRACE", 60*time.Second)
	v.SetDefault("AUDIT_CONCURRENCY", 4)
	v.SetDefault("AUDIT_LOCK_TTL", 30*time.Minute)

	v.SetDefault("METRICS_ENABLED", false)
	v.SetDefault("METRICS_ADDR", ":9090")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "autumn")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
	return v
}

// LoadConfig reads env vars over defaults, with the optional AUTUMN_CONFIG file in between.
func LoadConfig() (Config, error) {
	v := newViper()
	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}
	return configFrom(v)
}

func configFrom(v *viper.Viper) (Config, error) {
	tz := strings.TrimSpace(v.GetString("TIME_ZONE"))
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("TIME_ZONE %q: %w", tz, err)
	}

	cfg := Config{
		LogMode:  v.GetString("LOG_MODE"),
		Port:     strings.TrimSpace(v.GetString("PORT")),
		Location: loc,
		DB: db.Config{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			PostgresDSN:  postgresDSN(v),
			SQLitePath:   v.GetString("SQLITE_PATH"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},

		AuditEnabled:      v.GetBool("AUDIT_ENABLED"),
		AuditInterval:     v.GetDuration("AUDIT_INTERVAL"),
		AuditMisfireGrace: v.GetDuration("AUDIT_MISFIRE_GRACE"),
		AuditConcurrency:  v.GetInt("AUDIT_CONCURRENCY"),
		AuditLockTTL:      v.GetDuration("AUDIT_LOCK_TTL"),
		RedisAddr:         strings.TrimSpace(v.GetString("REDIS_ADDR")),

		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		MetricsAddr:    v.GetString("METRICS_ADDR"),

		OtelEnabled:     v.GetBool("OTEL_ENABLED"),
		OtelServiceName: v.GetString("OTEL_SERVICE_NAME"),
		OtelEnvironment: v.GetString("OTEL_ENVIRONMENT"),
		OtelVersion:     v.GetString("OTEL_SERVICE_VERSION"),
		OtelEndpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelHeaders:     v.GetString("OTEL_EXPORTER_OTLP_HEADERS"),
		OtelInsecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		OtelSampleRatio: v.GetFloat64("OTEL_SAMPLE_RATIO"),

		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.AuditInterval <= 0 {
		return Config{}, fmt.Errorf("AUDIT_INTERVAL must be positive, got %s", cfg.AuditInterval)
	}
	return cfg, nil
}

// postgresDSN prefers POSTGRES_DSN and otherwise assembles one from the POSTGRES_* parts.
func postgresDSN(v *viper.Viper) string {
	if dsn := strings.TrimSpace(v.GetString("POSTGRES_DSN")); dsn != "" {
		return dsn
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(v.GetString("POSTGRES_USER"), v.GetString("POSTGRES_PASSWORD")),
		Host:     v.GetString("POSTGRES_HOST") + ":" + v.GetString("POSTGRES_PORT"),
		Path:     "/" + v.GetString("POSTGRES_NAME"),
		RawQuery: "sslmode=" + url.QueryEscape(v.GetString("POSTGRES_SSLMODE")),
	}
	return u.String()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
