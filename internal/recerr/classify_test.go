package recerr

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want Kind
	}{
		{"not found", "component abc not found", KindInsufficientData},
		{"missing", "missing usage metrics", KindInsufficientData},
		{"empty", "empty candidate set", KindInsufficientData},
		{"timeout", "request timeout after 10s", KindExternalAPIError},
		{"network", "network is down", KindExternalAPIError},
		{"fetch", "fetch failed with 503", KindExternalAPIError},
		{"model", "model overloaded", KindAIServiceError},
		{"assistant", "assistant returned malformed reply", KindAIServiceError},
		{"price stale", "price snapshot is stale", KindPriceDataStale},
		{"unmatched", "something inexplicable happened", KindCompatibilityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(eris.New(tt.msg)))
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Equal(t, KindCompatibilityUnknown, Classify(nil))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(KindExternalAPIError))
	assert.True(t, Retryable(KindAIServiceError))
	assert.True(t, Retryable(KindPriceDataStale))
	assert.False(t, Retryable(KindInsufficientData))
	assert.False(t, Retryable(KindCompatibilityUnknown))
}

func TestFallbackStrategy_CoversAllKinds(t *testing.T) {
	for _, k := range []Kind{
		KindInsufficientData, KindCompatibilityUnknown,
		KindPriceDataStale, KindAIServiceError, KindExternalAPIError,
	} {
		assert.NotEmpty(t, FallbackStrategy(k), string(k))
	}
}
