// Package grn_tools exposes the GRN workflow as MCP tools.
//
// Available tools:
//   - grn_fetch_attachments: save matching Gmail attachments to Drive
//   - grn_ingest_files: parse today's Drive files and append them to the sheet
//   - grn_run_workflow: both phases in sequence
//   - grn_parse_file: parse local files through the strategy cascade
//   - grn_list_strategies: the cascade order and which strategies can run here
//
// Workflow tools return a JSON summary with the tail of the progress log.
package grn_tools
