// Package batch runs a tool operation over several inputs and reports the
// per-item outcomes together, so one bad input does not fail the call.
package batch
