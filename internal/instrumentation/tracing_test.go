package instrumentation

import (
	"context"
	"errors"
	"testing"
)

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("grn_ingest_files").
		WithRun("run-1").
		WithFile("grn.xlsx", "file-1").
		WithStrategy("raw").
		WithRows(4).
		Build()

	if len(attrs) != 6 {
		t.Fatalf("expected 6 attributes, got %d", len(attrs))
	}

	attrMap := make(map[string]interface{})
	for _, attr := range attrs {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}

	want := map[string]interface{}{
		SpanAttrTool:     "grn_ingest_files",
		SpanAttrRunID:    "run-1",
		SpanAttrFileName: "grn.xlsx",
		SpanAttrFileID:   "file-1",
		SpanAttrStrategy: "raw",
		SpanAttrRows:     int64(4),
	}
	for k, v := range want {
		if attrMap[k] != v {
			t.Errorf("attribute %s = %v, want %v", k, attrMap[k], v)
		}
	}
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithStrategy("excelize").
		WithRun("").
		WithFile("", "").
		Build()

	if len(attrs) != 1 {
		t.Errorf("expected 1 attribute (only strategy), got %d", len(attrs))
	}
}

func TestSpans(t *testing.T) {
	_, ctx := newTestProvider(t)

	spanCtx, span := StartSpan(ctx, "ingest.file")
	if spanCtx == nil || span == nil {
		t.Fatal("expected span and context")
	}
	AddSpanEvent(span, "strategy.attempt")
	SetSpanError(span, errors.New("test error"))
	SetSpanError(span, nil)
	span.End()

	_, toolSpan := StartToolSpan(ctx, "grn_run_workflow")
	SetSpanSuccess(toolSpan)
	toolSpan.End()

	_, apiSpan := StartGoogleAPISpan(ctx, ServiceSheets, OperationAppend)
	SetSpanSuccess(apiSpan)
	apiSpan.End()
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if traceID := GetTraceID(context.Background()); traceID != "" {
		t.Errorf("expected empty trace ID for context without span, got %q", traceID)
	}
}
