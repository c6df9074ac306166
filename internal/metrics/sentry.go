package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryMetrics emits Sentry performance spans around compiler calls.
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a Sentry metrics client; always enabled, a
// no-op when Sentry itself was never initialized (CurrentHub().Client()
// is nil, same guard internal/logger uses).
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{enabled: true}
}

// RecordCompile records one compiler invocation as a Sentry span named
// compiler.<op>, tagged with its outcome and carrying the diagnostic
// counts and duration as data. The span is started after the invocation
// has returned, so its own timing does not cover the call; duration_ms
// does.
func (m *SentryMetrics) RecordCompile(ctx context.Context, op string, success bool, errorCount, warningCount int, duration time.Duration) {
	if !m.enabled || sentry.CurrentHub().Client() == nil {
		return
	}

	span := sentry.StartSpan(ctx, "compiler."+op)
	defer span.Finish()

	span.SetTag("operation", op)
	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("error_count", errorCount)
	span.SetData("warning_count", warningCount)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("compiler.%s", op)
}
