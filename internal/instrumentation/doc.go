// Package instrumentation provides OpenTelemetry metrics and tracing for grnsync.
//
// # Metrics
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// Parsing Metrics:
//   - parse_strategy_attempts_total: Counter of strategy attempts by strategy and status
//     (success, empty, error, skipped)
//   - parse_strategy_duration_seconds: Histogram of strategy durations
//
// Workflow Metrics:
//   - files_processed_total: Counter of ingested files by status
//   - sheet_rows_appended_total: Counter of rows appended to the destination sheet
//   - sheet_dedup_removed_total: Counter of rows removed by the consolidation pass
//   - attachments_saved_total: Counter of attachment uploads by status
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds
//
// # Export
//
// The prometheus exporter writes into a registry owned by the Provider. The
// serve command exposes it over HTTP; one-shot runs can dump it to a
// node_exporter textfile via METRICS_TEXTFILE.
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 1.0)
//   - METRICS_TEXTFILE: path written on shutdown
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordStrategyAttempt(ctx, "excelize", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
