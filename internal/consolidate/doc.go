// Package consolidate appends parsed tables to the shared destination sheet
// and removes duplicate receipt lines afterwards.
//
// The Store interface is the sheet contract; internal/sheets implements it
// on the Google Sheets API and MemoryStore implements it in process. A
// RunContext threads the per-run state (whether the header still has to be
// written, counters, per-file outcomes) through the ingestion loop.
package consolidate
