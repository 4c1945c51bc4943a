// Package ingest turns a downloaded spreadsheet of unknown quality into a
// table.
//
// A Cascade holds an ordered list of Strategy values. Each strategy is tried
// against a fresh reader over the same bytes, bounded by a timeout, with
// errors and panics recorded as a failed attempt. The first strategy that
// returns a non-empty table wins. Strategies backed by an external program
// (LibreOffice, Gnumeric) implement Requirer and are skipped when the
// Capabilities registry found none of their executables at startup.
//
// When every strategy fails the cascade reports a Diagnosis: the leading
// bytes in hex, the sniffed MIME type, and for OLE2 containers the stream
// names, which reveal password-protected workbooks.
//
// The default order is:
//
//	excelize, xls, xlsx-alt, pdf, desktop, raw, libreoffice, ssconvert
package ingest
