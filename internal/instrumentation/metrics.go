package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrStrategy  = "strategy"
	attrTool      = "tool"
	attrDomain    = "sender_domain"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics and a nil *Metrics are both valid no-op recorders.
type Metrics struct {
	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// Parsing metrics
	strategyAttemptsTotal metric.Int64Counter
	strategyDuration      metric.Float64Histogram

	// Workflow metrics
	filesProcessedTotal   metric.Int64Counter
	rowsAppendedTotal     metric.Int64Counter
	dedupRemovedTotal     metric.Int64Counter
	attachmentsSavedTotal metric.Int64Counter

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether sender domains are added to attachment metrics
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	m.strategyAttemptsTotal, err = meter.Int64Counter(
		"parse_strategy_attempts_total",
		metric.WithDescription("Total number of parsing strategy attempts by strategy and outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse_strategy_attempts_total counter: %w", err)
	}

	m.strategyDuration, err = meter.Float64Histogram(
		"parse_strategy_duration_seconds",
		metric.WithDescription("Parsing strategy duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse_strategy_duration_seconds histogram: %w", err)
	}

	m.filesProcessedTotal, err = meter.Int64Counter(
		"files_processed_total",
		metric.WithDescription("Total number of spreadsheet files processed by outcome"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create files_processed_total counter: %w", err)
	}

	m.rowsAppendedTotal, err = meter.Int64Counter(
		"sheet_rows_appended_total",
		metric.WithDescription("Total number of rows appended to the destination sheet"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet_rows_appended_total counter: %w", err)
	}

	m.dedupRemovedTotal, err = meter.Int64Counter(
		"sheet_dedup_removed_total",
		metric.WithDescription("Total number of duplicate rows removed by the consolidation pass"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet_dedup_removed_total counter: %w", err)
	}

	m.attachmentsSavedTotal, err = meter.Int64Counter(
		"attachments_saved_total",
		metric.WithDescription("Total number of mail attachments uploaded to Drive by outcome"),
		metric.WithUnit("{attachment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachments_saved_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (gmail, drive, sheets)
//   - operation: Operation type (list, get, create, append, clear, ...)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStrategyAttempt records one parsing strategy attempt.
// Status is "success", "empty", "error" or "skipped".
func (m *Metrics) RecordStrategyAttempt(ctx context.Context, strategy, status string, duration time.Duration) {
	if m == nil || m.strategyAttemptsTotal == nil || m.strategyDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrStrategy, strategy),
		attribute.String(attrStatus, status),
	)
	m.strategyAttemptsTotal.Add(ctx, 1, attrs)
	if status != StatusSkipped {
		m.strategyDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// RecordFileProcessed records the outcome of one ingested file.
func (m *Metrics) RecordFileProcessed(ctx context.Context, status string) {
	if m == nil || m.filesProcessedTotal == nil {
		return
	}
	m.filesProcessedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordRowsAppended adds n to the appended-row counter.
func (m *Metrics) RecordRowsAppended(ctx context.Context, n int) {
	if m == nil || m.rowsAppendedTotal == nil || n <= 0 {
		return
	}
	m.rowsAppendedTotal.Add(ctx, int64(n))
}

// RecordDedupRemoved adds n to the dedup-removal counter.
func (m *Metrics) RecordDedupRemoved(ctx context.Context, n int) {
	if m == nil || m.dedupRemovedTotal == nil || n <= 0 {
		return
	}
	m.dedupRemovedTotal.Add(ctx, int64(n))
}

// RecordAttachment records one attachment upload. The sender domain is only
// attached when detailed labels are enabled.
func (m *Metrics) RecordAttachment(ctx context.Context, status, senderEmail string) {
	if m == nil || m.attachmentsSavedTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String(attrStatus, status)}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrDomain, ExtractSenderDomain(senderEmail)))
	}
	m.attachmentsSavedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}
