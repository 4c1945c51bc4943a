package common

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/grnsync/internal/config"
	"github.com/teemow/grnsync/internal/instrumentation"
	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/server"
)

func newServerContext(t *testing.T, opts ...server.Option) *server.ServerContext {
	t.Helper()
	opts = append([]server.Option{
		server.WithLogger(logging.New(io.Discard, "error", "text")),
		server.WithLookPath(func(string) (string, error) { return "", errors.New("not found") }),
	}, opts...)
	sc, err := server.NewServerContext(context.Background(), config.Default(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc := newServerContext(t)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	sc := newServerContext(t)

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	_, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})
	assert.Equal(t, expectedErr, err)
}

func TestInstrumentedToolHandler_ErrorResultWithMetrics(t *testing.T) {
	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)
	sc := newServerContext(t, server.WithMetrics(metrics))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("something went wrong"), nil
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"account": "work"}
	result, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
