package instrumentation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics_NilAndZeroAreNoOps(t *testing.T) {
	ctx := context.Background()
	for _, m := range []*Metrics{nil, {}} {
		m.RecordGoogleAPIOperation(ctx, ServiceDrive, OperationList, StatusSuccess, time.Second)
		m.RecordStrategyAttempt(ctx, "excelize", StatusEmpty, time.Millisecond)
		m.RecordFileProcessed(ctx, StatusError)
		m.RecordRowsAppended(ctx, 3)
		m.RecordDedupRemoved(ctx, 1)
		m.RecordAttachment(ctx, StatusSuccess, "a@b.c")
		m.RecordToolInvocation(ctx, "grn_run_workflow", StatusSuccess, time.Second)
	}
}

func TestMetrics_RecordAll(t *testing.T) {
	provider, ctx := newTestProvider(t)
	m := provider.Metrics()

	m.RecordGoogleAPIOperation(ctx, ServiceSheets, OperationAppend, StatusSuccess, 200*time.Millisecond)
	m.RecordStrategyAttempt(ctx, "excelize", StatusEmpty, 10*time.Millisecond)
	m.RecordStrategyAttempt(ctx, "raw", StatusSuccess, 5*time.Millisecond)
	m.RecordStrategyAttempt(ctx, "ssconvert", StatusSkipped, 0)
	m.RecordFileProcessed(ctx, StatusSuccess)
	m.RecordRowsAppended(ctx, 12)
	m.RecordRowsAppended(ctx, 0)
	m.RecordDedupRemoved(ctx, 2)
	m.RecordAttachment(ctx, StatusSuccess, "ds-alerts@ninjacart.in")
	m.RecordToolInvocation(ctx, "grn_ingest_files", StatusSuccess, time.Second)

	rec := httptest.NewRecorder()
	provider.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, name := range []string{
		"google_api_operations_total",
		"parse_strategy_attempts_total",
		"parse_strategy_duration_seconds",
		"files_processed_total",
		"sheet_rows_appended_total",
		"sheet_dedup_removed_total",
		"attachments_saved_total",
		"mcp_tool_invocations_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in exposition", name)
		}
	}
	if strings.Contains(body, "sender_domain") {
		t.Error("sender_domain label must be absent without detailed labels")
	}
}
