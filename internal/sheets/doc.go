// Package sheets stores ingested goods receipt rows in a Google Sheet.
//
// Client implements consolidate.Store with three value calls: a read of the
// used range for header presence and the last row, a RAW update at a row
// offset for appends, and clear plus update for the dedup rewrite.
package sheets
