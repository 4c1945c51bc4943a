// Package logging provides structured logging utilities for grnsync.
//
// Two channels exist side by side:
//
//   - slog for structured, machine-readable logs (text or JSON handler built by New)
//   - Sink for the human-readable progress lines a workflow emits, one per
//     strategy attempt, upload or append
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "ingest.file")
//	logger.Info("parsed file",
//	    logging.File(name),
//	    logging.Strategy("excelize"),
//	    logging.Status(logging.StatusSuccess))
//
// Collect progress lines for display:
//
//	lines := logging.NewLines(logging.WithWriter(os.Stdout))
//	lines.Printf("Processing %s", name)
//
// Sender addresses are hashed with AnonymizeEmail before they reach slog output.
package logging
