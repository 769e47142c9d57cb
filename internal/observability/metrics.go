package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/autumn-backend/internal/platform/envutil"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

// Metrics is the process-wide metric registry. Every method is safe on a nil receiver so
// callers can wire it unconditionally.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	auditDrift       *HistogramVec
	auditCorrections *CounterVec

	sweepRuns     *CounterVec
	sweepSkipped  *CounterVec
	sweepDuration *HistogramVec
	sweepProjects *CounterVec

	reconciles *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	scrapeInterval time.Duration
}

const driftEpsilon = 1e-6

func New() *Metrics {
	latency := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	return &Metrics{
		apiRequests: NewCounterVec("autumn_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("autumn_api_request_duration_seconds", "API request latency in seconds.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGauge("autumn_api_inflight_requests", "In-flight API requests."),

		aggregateOps:       NewCounterVec("autumn_aggregate_operations_total", "Aggregate writes by operation/status.", []string{"op", "status"}),
		aggregateLatency:   NewHistogramVec("autumn_aggregate_operation_duration_seconds", "Aggregate write latency in seconds.", []string{"op"}, latency),
		aggregateConflicts: NewCounterVec("autumn_aggregate_conflicts_total", "Aggregate writes rejected as conflicts.", []string{"op"}),
		aggregateRetries:   NewCounterVec("autumn_aggregate_retryable_total", "Aggregate writes that failed with a retryable error.", []string{"op"}),

		auditDrift: NewHistogramVec(
			"autumn_audit_drift_minutes",
			"Absolute difference between a stored total and the session ledger at audit time.",
			[]string{"entity"},
			[]float64{0, 0.01, 1, 5, 15, 60, 240, 1440},
		),
		auditCorrections: NewCounterVec("autumn_audit_corrections_total", "Audits that changed a stored total.", []string{"entity"}),

		sweepRuns:     NewCounterVec("autumn_audit_sweep_runs_total", "Scheduled audit sweeps by outcome.", []string{"status"}),
		sweepSkipped:  NewCounterVec("autumn_audit_sweep_skipped_total", "Audit sweep ticks that did not run.", []string{"reason"}),
		sweepDuration: NewHistogramVec("autumn_audit_sweep_duration_seconds", "Audit sweep wall time.", nil, []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900}),
		sweepProjects: NewCounterVec("autumn_audit_sweep_projects_total", "Projects visited by audit sweeps.", []string{"status"}),

		reconciles: NewCounterVec("autumn_commitment_reconciles_total", "Commitment reconcile calls by outcome.", []string{"outcome"}),

		pgStats:   NewGaugeVec("autumn_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("autumn_redis_up", "1 when the last redis ping succeeded."),
		redisPing: NewGauge("autumn_redis_ping_seconds", "Last redis ping round trip."),

		scrapeInterval: envutil.Duration("METRICS_SCRAPE_INTERVAL", 10*time.Second),
	}
}

func (m *Metrics) collectors() []collector {
	return []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.auditDrift, m.auditCorrections,
		m.sweepRuns, m.sweepSkipped, m.sweepDuration, m.sweepProjects,
		m.reconciles,
		m.pgStats, m.redisUp, m.redisPing,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors() {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

// ObserveAuditDrift records the absolute drift one audit corrected, in minutes.
func (m *Metrics) ObserveAuditDrift(entity string, drift float64) {
	if m == nil {
		return
	}
	if drift < 0 {
		drift = -drift
	}
	m.auditDrift.Observe(drift, entity)
	if drift > driftEpsilon {
		m.auditCorrections.Inc(entity)
	}
}

// ObserveSweep records one finished sweep. status is success, partial or failed.
func (m *Metrics) ObserveSweep(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.sweepRuns.Inc(status)
	m.sweepDuration.Observe(dur.Seconds())
}

// IncSweepSkipped counts a tick that did not run: overlap, misfire or locked.
func (m *Metrics) IncSweepSkipped(reason string) {
	if m == nil {
		return
	}
	m.sweepSkipped.Inc(reason)
}

func (m *Metrics) IncSweepProject(status string) {
	if m == nil {
		return
	}
	m.sweepProjects.Inc(status)
}

// IncReconcile counts a reconcile outcome: reconciled, noop or failed.
func (m *Metrics) IncReconcile(outcome string) {
	if m == nil {
		return
	}
	m.reconciles.Inc(outcome)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
