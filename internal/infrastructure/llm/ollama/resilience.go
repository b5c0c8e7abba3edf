package ollama

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"office-archive-indexer/internal/infrastructure/resilience"
)

// Only a rate limit is worth retrying: any other upstream failure means
// the caller should degrade to deterministic extraction right away.
func classifyAnalyzeError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if isRateLimitError(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(err.Error(), "429")
}
