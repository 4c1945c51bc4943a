package instrumentation

import (
	"context"
	"time"
)

// TrackGoogleCall runs fn inside a client span and records its outcome and
// latency under service and operation. m may be nil.
func TrackGoogleCall(ctx context.Context, m *Metrics, service, operation string, fn func(context.Context) error) error {
	ctx, span := StartGoogleAPISpan(ctx, service, operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := StatusSuccess
	if err != nil {
		status = StatusError
		SetSpanError(span, err)
	} else {
		SetSpanSuccess(span)
	}
	m.RecordGoogleAPIOperation(ctx, service, operation, status, time.Since(start))
	return err
}
