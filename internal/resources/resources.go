package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/server"
)

const (
	// ConfigURI is the effective configuration with secrets masked.
	ConfigURI = "grnsync://config"
	// StrategiesURI is the parsing cascade with host capabilities.
	StrategiesURI = "grnsync://strategies"
)

// StrategyStatus describes one cascade entry.
type StrategyStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Binary    string `json:"binary,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// RegisterResources registers the read-only grnsync resources.
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	configResource := mcp.NewResource(
		ConfigURI,
		"grnsync Configuration",
		mcp.WithResourceDescription("The effective grnsync configuration: sender, search term, Drive folders, destination sheet and parsing settings"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(configResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleConfig(ctx, request, sc)
	})

	strategiesResource := mcp.NewResource(
		StrategiesURI,
		"Parsing Strategies",
		mcp.WithResourceDescription("The parsing strategies in cascade order and whether each can run on this host"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(strategiesResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleStrategies(ctx, request, sc)
	})

	return nil
}

func handleConfig(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, sc.Config().Redacted())
}

// Strategies reports the cascade of sc in order.
func Strategies(sc *server.ServerContext) []StrategyStatus {
	caps := sc.Capabilities()
	names := sc.Cascade(logging.Discard).Strategies()
	out := make([]StrategyStatus, 0, len(names))
	for _, name := range names {
		out = append(out, StrategyStatus{
			Name:      name,
			Available: caps.IsAvailable(name),
			Binary:    caps.Binary(name),
			Reason:    caps.Reason(name),
		})
	}
	return out
}

func handleStrategies(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, Strategies(sc))
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
