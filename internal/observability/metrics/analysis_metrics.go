package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	bidanalysisdomain "github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
	"gorm.io/gorm"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

const (
	FailureReasonDeadlineExceeded     = "deadline_exceeded"
	FailureReasonInvalidInput         = "invalid_input"
	FailureReasonNotFound             = "not_found"
	FailureReasonDBLockTimeout        = "db_lock_timeout"
	FailureReasonSerializationFailure = "serialization_failure"
	FailureReasonDBUnavailable        = "db_unavailable"
	FailureReasonDB                   = "db"
	FailureReasonUnknown              = "unknown"
)

// AnalysisMetrics captures price analysis latency and failure signals.
type AnalysisMetrics struct {
	runDuration   *prometheus.HistogramVec
	runFailures   *prometheus.CounterVec
	itemsResolved prometheus.Counter
}

var (
	analysisMetricsOnce sync.Once
	analysisMetrics     *AnalysisMetrics
)

// NewAnalysisMetrics returns the process-wide analysis metrics registered on
// the default prometheus registry.
func NewAnalysisMetrics(cfg Config) *AnalysisMetrics {
	analysisMetricsOnce.Do(func() {
		analysisMetrics = newAnalysisMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return analysisMetrics
}

func newAnalysisMetrics(registerer prometheus.Registerer, cfg Config) *AnalysisMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	constLabels := prometheus.Labels{
		"service": serviceNameOrDefault(cfg.ServiceName),
		"env":     environmentOrDefault(cfg.Environment),
	}

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "tenderscope_analysis_run_duration_seconds",
		Help:        "Tender analysis latency by operation and outcome.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	}, []string{"operation", "outcome"})
	runFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "tenderscope_analysis_failures_total",
		Help:        "Tender analysis failures by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"operation", "reason"})
	itemsResolved := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "tenderscope_analysis_items_resolved_total",
		Help:        "Line items resolved to a winner or to no winner.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(runDuration, runFailures, itemsResolved)

	return &AnalysisMetrics{
		runDuration:   runDuration,
		runFailures:   runFailures,
		itemsResolved: itemsResolved,
	}
}

// ObserveRun records the latency of one analysis operation and, on failure,
// its classified reason.
func (m *AnalysisMetrics) ObserveRun(operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if elapsed < 0 {
		elapsed = 0
	}
	m.runDuration.WithLabelValues(operation, Outcome(err)).Observe(elapsed.Seconds())
	if err != nil {
		m.runFailures.WithLabelValues(operation, ClassifyFailureReason(err)).Inc()
	}
}

// AddItemsResolved increments the resolved line item counter.
func (m *AnalysisMetrics) AddItemsResolved(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.itemsResolved.Add(float64(count))
}

// Outcome maps an operation error to a metric label value.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// ClassifyFailureReason maps analysis errors to low-cardinality reasons.
func ClassifyFailureReason(err error) string {
	switch {
	case err == nil:
		return FailureReasonUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return FailureReasonDeadlineExceeded
	case errors.Is(err, bidanalysisdomain.ErrInvalidTender), errors.Is(err, bidanalysisdomain.ErrInvalidLineItem):
		return FailureReasonInvalidInput
	case errors.Is(err, bidanalysisdomain.ErrTenderNotFound),
		errors.Is(err, bidanalysisdomain.ErrLineItemNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return FailureReasonNotFound
	case hasPGCode(err, "55P03"):
		return FailureReasonDBLockTimeout
	case hasPGCode(err, "40001"):
		return FailureReasonSerializationFailure
	case hasPGClass(err, "08"):
		return FailureReasonDBUnavailable
	case isDBError(err):
		return FailureReasonDB
	default:
		return FailureReasonUnknown
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func hasPGClass(err error, class string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, class)
	}
	return false
}

func isDBError(err error) bool {
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrInvalidField) ||
		errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrUnsupportedDriver) ||
		errors.Is(err, gorm.ErrNotImplemented) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}

func serviceNameOrDefault(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "tenderscope"
	}
	return name
}

func environmentOrDefault(env string) string {
	env = strings.TrimSpace(env)
	if env == "" {
		return "unknown"
	}
	return env
}
