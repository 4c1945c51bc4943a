package grn_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/server"
	"github.com/teemow/grnsync/internal/table"
	"github.com/teemow/grnsync/internal/tools/batch"
	"github.com/teemow/grnsync/internal/tools/common"
	"github.com/teemow/grnsync/internal/workflow"
)

// DefaultPreviewRows is how many cleaned rows grn_parse_file returns per file.
const DefaultPreviewRows = 5

func registerParseTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	parseTool := mcp.NewTool("grn_parse_file",
		mcp.WithDescription("Parse local spreadsheet files (xlsx, xls, pdf, or mislabelled exports) through the strategy cascade and report the strategy used, the attempts and a preview of the cleaned rows"),
		mcp.WithString("paths",
			mcp.Required(),
			mcp.Description("Path of a file on the server host, or an array of paths"),
		),
		mcp.WithNumber("headerRow",
			mcp.Description("Zero-based header row, or -1 for synthetic column names (default: the configured header row)"),
		),
		mcp.WithNumber("preview",
			mcp.Description(fmt.Sprintf("Number of cleaned rows to include per file (default: %d)", DefaultPreviewRows)),
		),
	)
	s.AddTool(parseTool, common.InstrumentedToolHandler("grn_parse_file", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleParseFile(ctx, request, sc)
		}))

	listTool := mcp.NewTool("grn_list_strategies",
		mcp.WithDescription("List the parsing strategies in cascade order and explain which ones cannot run on this host"),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler("grn_list_strategies", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListStrategies(ctx, request, sc)
		}))

	return nil
}

func handleParseFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	paths, err := batch.ParseStringOrArray(args["paths"], "paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	headerRow := common.GetIntArg(args, "headerRow", sc.Config().Sheet.HeaderRow)
	if headerRow < -1 {
		return mcp.NewToolResultError("headerRow must be -1 or a zero-based row index"), nil
	}
	policy := table.Row(headerRow)
	if headerRow < 0 {
		policy = table.None()
	}
	preview := common.GetIntArg(args, "preview", DefaultPreviewRows)

	cascade := sc.Cascade(logging.Discard)
	results := batch.ProcessBatch(ctx, paths, func(ctx context.Context, path string) (parseSummary, error) {
		report, err := workflow.ParseFile(ctx, cascade, path, policy)
		if err != nil {
			return parseSummary{}, err
		}
		if !report.Result.OK() {
			return parseSummary{}, fmt.Errorf("%w: %s", workflow.ErrUnparseable, diagnosisText(report))
		}
		return summarizeParse(report, preview), nil
	})

	out, err := batch.FormatResults(results)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func diagnosisText(report *workflow.ParseReport) string {
	if report.Result.Diagnosis == nil {
		return "no diagnosis"
	}
	return report.Result.Diagnosis.String()
}

func handleListStrategies(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	caps := sc.Capabilities()
	var b strings.Builder
	b.WriteString("Parsing strategies in cascade order:\n")
	for i, name := range sc.Cascade(logging.Discard).Strategies() {
		state := "available"
		if !caps.IsAvailable(name) {
			state = "unavailable"
		} else if bin := caps.Binary(name); bin != "" {
			state = "available (" + bin + ")"
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, name, state)
	}
	if missing := describeUnavailable(sc); missing != "" {
		b.WriteString("\nUnavailable:\n")
		b.WriteString(missing)
	}
	return mcp.NewToolResultText(b.String()), nil
}
