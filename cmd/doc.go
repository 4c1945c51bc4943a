// Package cmd implements the command-line interface for grnsync.
//
// This package provides the following commands:
//   - run: Fetch attachments, then ingest today's files (the default)
//   - fetch: Save matching Gmail attachments to Drive
//   - ingest: Parse today's Drive spreadsheets into the Google Sheet
//   - parse: Parse local files and print the cleaned table as CSV
//   - strategies: Show the parsing cascade and what this host can run
//   - auth: Authorize a Google account
//   - config: Write or show the configuration
//   - serve: Start the MCP server to provide tools for AI assistants
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
