package grn_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/server"
	"github.com/teemow/grnsync/internal/tools/common"
	"github.com/teemow/grnsync/internal/workflow"
)

// DefaultLogLines is how many progress lines a workflow tool returns.
const DefaultLogLines = 50

// RegisterGRNTools registers the workflow and parsing tools.
func RegisterGRNTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	accountOpt := mcp.WithString("account",
		mcp.Description("Account name (default: the configured account). Used to manage multiple Google accounts."),
	)
	logLinesOpt := mcp.WithNumber("logLines",
		mcp.Description(fmt.Sprintf("Number of progress log lines to return (default: %d)", DefaultLogLines)),
	)

	fetchTool := mcp.NewTool("grn_fetch_attachments",
		mcp.WithDescription("Search Gmail for recent GRN emails from the configured sender and save their spreadsheet attachments to Drive, one folder per sender"),
		accountOpt,
		logLinesOpt,
	)
	s.AddTool(fetchTool, common.InstrumentedToolHandler("grn_fetch_attachments", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleWorkflow(ctx, request, sc, runFetch)
		}))

	ingestTool := mcp.NewTool("grn_ingest_files",
		mcp.WithDescription("Parse the spreadsheets created today in the source Drive folder and append them to the GRN sheet, then remove duplicate rows"),
		accountOpt,
		logLinesOpt,
	)
	s.AddTool(ingestTool, common.InstrumentedToolHandler("grn_ingest_files", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleWorkflow(ctx, request, sc, runIngest)
		}))

	runTool := mcp.NewTool("grn_run_workflow",
		mcp.WithDescription("Run the complete workflow: save Gmail attachments to Drive, then ingest today's Drive files into the sheet"),
		accountOpt,
		logLinesOpt,
	)
	s.AddTool(runTool, common.InstrumentedToolHandler("grn_run_workflow", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleWorkflow(ctx, request, sc, runBoth)
		}))

	return registerParseTools(s, sc)
}

type phase func(ctx context.Context, r *workflow.Runner, out *runSummary) error

func runFetch(ctx context.Context, r *workflow.Runner, out *runSummary) error {
	report, err := r.Fetch(ctx)
	out.Fetch = summarizeFetch(report)
	return err
}

func runIngest(ctx context.Context, r *workflow.Runner, out *runSummary) error {
	report, err := r.Ingest(ctx)
	out.Ingest = summarizeIngest(report)
	return err
}

func runBoth(ctx context.Context, r *workflow.Runner, out *runSummary) error {
	report, err := r.Run(ctx)
	if report != nil {
		out.Fetch = summarizeFetch(report.Fetch)
		out.Ingest = summarizeIngest(report.Ingest)
	}
	return err
}

func handleWorkflow(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, run phase) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args, sc.Config().Account)
	logLines := common.GetIntArg(args, "logLines", DefaultLogLines)

	sink := logging.NewLines(logging.WithLogger(sc.Logger()))
	runner, err := sc.Runner(ctx, account, sink)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to prepare account %s: %v", account, err)), nil
	}

	out := &runSummary{}
	runErr := run(ctx, runner, out)
	out.Log = sink.Tail(logLines)
	if runErr != nil {
		out.Error = runErr.Error()
		result, _ := jsonResult(out)
		result.IsError = true
		return result, nil
	}
	return jsonResult(out)
}

// describeUnavailable renders the capability report for tool output.
func describeUnavailable(sc *server.ServerContext) string {
	caps := sc.Capabilities()
	var b strings.Builder
	for _, name := range caps.Unavailable() {
		fmt.Fprintf(&b, "  - %s: %s\n", name, caps.Reason(name))
	}
	return b.String()
}
