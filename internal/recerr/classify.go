// Package recerr is the shared error taxonomy and degradation policy for the
// recommendation and prediction engines. Every public engine operation
// funnels failures through a Handler, which records the error and hands the
// caller a safe fallback value instead of propagating.
package recerr

import "strings"

// Kind is the closed set of recommendation error classes.
type Kind string

const (
	KindInsufficientData     Kind = "insufficient_data"
	KindCompatibilityUnknown Kind = "compatibility_unknown"
	KindPriceDataStale       Kind = "price_data_stale"
	KindAIServiceError       Kind = "ai_service_error"
	KindExternalAPIError     Kind = "external_api_error"
)

// Severity tiers the log verbosity and health accounting of a handled error.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var classifyPatterns = []struct {
	kind     Kind
	keywords []string
}{
	{KindInsufficientData, []string{"not found", "missing", "empty", "no data", "insufficient", "no usage history"}},
	{KindExternalAPIError, []string{"timeout", "timed out", "network", "fetch", "connection", "unreachable", "too many requests", "service unavailable"}},
	{KindAIServiceError, []string{"model", "assistant", "completion", "ai service"}},
	{KindPriceDataStale, []string{"price", "stale", "outdated"}},
}

// Classify maps a raw error onto the taxonomy by keyword inspection of its
// normalized message. Unmatched errors land in compatibility_unknown.
func Classify(err error) Kind {
	if err == nil {
		return KindCompatibilityUnknown
	}
	msg := strings.ToLower(err.Error())
	for _, p := range classifyPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(msg, kw) {
				return p.kind
			}
		}
	}
	return KindCompatibilityUnknown
}

var fallbackStrategies = map[Kind]string{
	KindInsufficientData:     "return a neutral result flagged as low confidence",
	KindCompatibilityUnknown: "exclude the candidate and explain the unknown",
	KindPriceDataStale:       "use cached price data with a staleness indicator",
	KindAIServiceError:       "fall back to rule-based scoring without assistant input",
	KindExternalAPIError:     "serve the last cached value and retry on the next refresh",
}

// FallbackStrategy returns the fixed degradation description for a kind.
func FallbackStrategy(k Kind) string {
	return fallbackStrategies[k]
}

// Retryable reports whether operations failing with this kind are safe to
// retry. Exactly the transient classes qualify.
func Retryable(k Kind) bool {
	switch k {
	case KindExternalAPIError, KindAIServiceError, KindPriceDataStale:
		return true
	default:
		return false
	}
}
