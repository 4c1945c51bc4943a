// Package rawsheet recovers tabular data from an Office Open XML workbook by
// reading its zip container directly.
//
// It is the last structured fallback when every spreadsheet library rejects a
// file: truncated exports, nonstandard writers and mislabeled attachments
// usually still carry a readable xl/sharedStrings.xml and a first worksheet
// part. The decoder scans those parts with tolerant patterns, rebuilds a
// dense grid from cell references, drops blank rows and applies the run's
// header policy.
package rawsheet
