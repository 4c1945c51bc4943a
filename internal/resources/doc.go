// Package resources exposes read-only grnsync state as MCP resources:
// the effective configuration (grnsync://config) and the parsing cascade
// with this host's capabilities (grnsync://strategies).
package resources
