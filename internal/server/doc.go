// Package server holds the state shared by the grnsync commands and the
// MCP tools, and the HTTP side of the serve command.
//
// ServerContext loads nothing itself. It is given a config, probes which
// parsing strategies can run on this host, and creates the Gmail, Drive and
// Sheets clients of an account on first use, caching them for later calls.
// Runner assembles those pieces into a workflow.Runner.
//
// MetricsServer exposes /metrics from the instrumentation provider's own
// Prometheus registry, together with the probes of HealthChecker:
//   - /healthz: the process is alive
//   - /readyz: the server is ready and not shutting down
//   - /healthz/detailed: uptime, unavailable strategies and token presence
package server
