package instrumentation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTrackGoogleCall(t *testing.T) {
	provider, ctx := newTestProvider(t)
	m := provider.Metrics()

	calls := 0
	err := TrackGoogleCall(ctx, m, ServiceDrive, OperationList, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := errors.New("rate limited")
	err = TrackGoogleCall(ctx, m, ServiceSheets, OperationAppend, func(context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}

	rec := httptest.NewRecorder()
	provider.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, s := range []string{`service="drive"`, `service="sheets"`, `status="error"`} {
		if !strings.Contains(body, s) {
			t.Errorf("expected %s in exposition", s)
		}
	}
}

func TestTrackGoogleCall_NilMetrics(t *testing.T) {
	err := TrackGoogleCall(context.Background(), nil, ServiceGmail, OperationSearch, func(context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
