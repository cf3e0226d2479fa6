package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	apperrors "github.com/bfhl/bfhl/internal/errors"
	"github.com/bfhl/bfhl/internal/metrics"
	"github.com/bfhl/bfhl/internal/server/envelope"
)

// Check results.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusTimeout   = "timeout"
)

// HealthChecker defines interface for health checkable components
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

// ErrDegraded marks a check that failed without making the service unready.
var ErrDegraded = stderrors.New("degraded")

// ReadinessReport is the data payload of GET /health/ready.
type ReadinessReport struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthManager manages health checks and readiness state
type HealthManager struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	version  string
	timeout  time.Duration
}

// NewHealthManager creates a new health manager
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		version:  version,
		timeout:  5 * time.Second,
	}
}

// RegisterChecker registers a health checker
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = checker
}

func (hm *HealthManager) runHealthChecks(ctx context.Context) map[string]string {
	hm.mu.RLock()
	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	hm.mu.RUnlock()
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	for _, name := range names {
		hm.mu.RLock()
		checker := hm.checkers[name]
		hm.mu.RUnlock()

		if ctx.Err() != nil {
			checks[name] = StatusTimeout
			continue
		}

		start := time.Now()
		err := checker.CheckHealth(ctx)
		switch {
		case err == nil:
			checks[name] = StatusHealthy
		case stderrors.Is(err, ErrDegraded):
			checks[name] = StatusDegraded
		default:
			checks[name] = StatusUnhealthy
		}
		metrics.RecordHealthCheck(name, err == nil, time.Since(start))
	}
	return checks
}

func determineOverallStatus(checks map[string]string) string {
	degraded := false
	for _, status := range checks {
		if status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if status == StatusDegraded || status == StatusTimeout {
			degraded = true
		}
	}
	if degraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// HealthHandler serves GET /health: the identity alone, or 500 when no
// official email is configured.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := envelope.OfficialEmail(r.Context()); !ok {
		apperrors.RespondWithEnvelope(w, r, apperrors.NewConfigInvalidError(MsgServerNotConfigured))
		return
	}
	envelope.Write(w, http.StatusOK, envelope.Success(r.Context(), nil))
}

// ReadinessHandler serves GET /health/ready. Degraded checks still report
// ready; any unhealthy check yields 503.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	checkCtx, cancel := context.WithTimeout(r.Context(), hm.timeout)
	defer cancel()

	checks := hm.runHealthChecks(checkCtx)
	status := determineOverallStatus(checks)

	if status == StatusUnhealthy {
		env := apperrors.NewServiceUnavailableError("Service not ready")
		apperrors.RespondWithEnvelope(w, r, enrichHealthEnvelope(env, status, checks))
		return
	}

	envelope.Write(w, http.StatusOK, envelope.Success(r.Context(), ReadinessReport{
		Status:    status,
		Version:   hm.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}))
}

func enrichHealthEnvelope(env *errors.ErrorEnvelope, status string, checks map[string]string) *errors.ErrorEnvelope {
	if env == nil {
		return nil
	}

	contextData := map[string]interface{}{
		"status": status,
	}

	var unhealthy []string
	for name, result := range checks {
		if result != StatusHealthy {
			unhealthy = append(unhealthy, name)
		}
	}
	if len(unhealthy) > 0 {
		sort.Strings(unhealthy)
		contextData["unhealthy_checks"] = unhealthy
	}

	if updated, err := env.WithContext(contextData); err == nil {
		env = updated
	}
	return env
}
