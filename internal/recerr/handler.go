package recerr

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultLogCap bounds the rolling error log.
const DefaultLogCap = 1000

// Context names the operation that failed and the ids it was working on.
type Context struct {
	Operation    string   `json:"operation"`
	ComponentIDs []string `json:"component_ids,omitempty"`
}

// Entry is one handled error in the rolling log.
type Entry struct {
	Kind      Kind      `json:"kind"`
	Severity  Severity  `json:"severity"`
	Operation string    `json:"operation"`
	IDs       []string  `json:"ids,omitempty"`
	Message   string    `json:"message"`
	Fallback  string    `json:"fallback"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthThresholds configure when the error log marks the system unhealthy.
type HealthThresholds struct {
	MaxErrorsPerHour int `yaml:"max_errors_per_hour" mapstructure:"max_errors_per_hour"`
	MaxAIErrors      int `yaml:"max_ai_errors" mapstructure:"max_ai_errors"`
}

// DefaultHealthThresholds returns the reference limits.
func DefaultHealthThresholds() HealthThresholds {
	return HealthThresholds{MaxErrorsPerHour: 10, MaxAIErrors: 5}
}

// Health is the degradation report derived from the last hour of errors.
type Health struct {
	OK             bool      `json:"healthy"`
	ErrorsLastHour int       `json:"errors_last_hour"`
	CriticalErrors int       `json:"critical_errors"`
	AIErrors       int       `json:"ai_service_errors"`
	ExternalErrors int       `json:"external_api_errors"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Handler records handled errors in a capped FIFO log and issues fallback
// values. It is the single choke point for degradation: callers never
// implement ad hoc retry or fallback logic.
type Handler struct {
	mu         sync.Mutex
	entries    []Entry
	cap        int
	thresholds HealthThresholds
	now        func() time.Time
}

// NewHandler creates a Handler with the given log cap (<=0 uses DefaultLogCap).
func NewHandler(logCap int, thresholds HealthThresholds) *Handler {
	if logCap <= 0 {
		logCap = DefaultLogCap
	}
	if thresholds.MaxErrorsPerHour <= 0 {
		thresholds = DefaultHealthThresholds()
	}
	return &Handler{
		cap:        logCap,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (h *Handler) WithNow(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Record classifies and logs a failure, evicting the oldest entry past the cap.
func (h *Handler) Record(err error, opCtx Context, severity Severity) Entry {
	kind := Classify(err)
	entry := Entry{
		Kind:      kind,
		Severity:  severity,
		Operation: opCtx.Operation,
		IDs:       opCtx.ComponentIDs,
		Message:   err.Error(),
		Fallback:  FallbackStrategy(kind),
		Retryable: Retryable(kind),
		Timestamp: h.now().UTC(),
	}

	h.mu.Lock()
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
	h.mu.Unlock()

	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("operation", opCtx.Operation),
		zap.Strings("ids", opCtx.ComponentIDs),
		zap.String("fallback", entry.Fallback),
		zap.Bool("retryable", entry.Retryable),
		zap.Error(err),
	}
	switch severity {
	case SeverityLow:
		zap.L().Debug("recerr: degraded operation", fields...)
	case SeverityMedium:
		zap.L().Warn("recerr: degraded operation", fields...)
	default:
		zap.L().Error("recerr: degraded operation", fields...)
	}

	return entry
}

// Handle records err and returns fallback. It never re-raises; degradation
// is always preferred over failing the caller.
func Handle[T any](h *Handler, err error, opCtx Context, fallback T, severity Severity) T {
	h.Record(err, opCtx, severity)
	return fallback
}

// Recent returns a copy of the rolling log, oldest first.
func (h *Handler) Recent() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Health derives the health report from the last hour of handled errors.
func (h *Handler) Health() Health {
	now := h.now().UTC()
	cutoff := now.Add(-time.Hour)

	h.mu.Lock()
	defer h.mu.Unlock()

	report := Health{OK: true, CheckedAt: now}
	for _, e := range h.entries {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		report.ErrorsLastHour++
		if e.Severity == SeverityCritical {
			report.CriticalErrors++
		}
		switch e.Kind {
		case KindAIServiceError:
			report.AIErrors++
		case KindExternalAPIError:
			report.ExternalErrors++
		}
	}

	if report.ErrorsLastHour > h.thresholds.MaxErrorsPerHour {
		report.OK = false
	}
	if report.CriticalErrors > 0 {
		report.OK = false
	}
	if report.AIErrors > h.thresholds.MaxAIErrors {
		report.OK = false
	}
	return report
}
