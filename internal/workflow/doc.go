// Package workflow runs the two phases of grnsync.
//
// Fetch searches Gmail for recent messages from the configured sender,
// keeps the spreadsheet attachments and uploads each one to Drive as
// <base folder>/<sender>/<message id>_<file name>.
//
// Ingest lists the spreadsheets created today (UTC) in the source folder,
// parses each one through the strategy cascade, cleans the table and
// appends it to the destination sheet. Files are handled one at a time in
// batches; a failing file never stops the run. When at least one table was
// appended the sheet is deduplicated once at the end.
//
// Run chains both phases with a short pause in between, and ParseFile
// exposes the parsing half for local diagnosis.
package workflow
