package instrumentation

import "strings"

// ExtractSenderDomain extracts the domain part from a sender address.
// Metrics carry the domain, never the full address.
//
// Example:
//
//	ExtractSenderDomain("ds-alerts@ninjacart.in")  // "ninjacart.in"
//	ExtractSenderDomain("invalid")                 // "unknown"
//	ExtractSenderDomain("")                        // "unknown"
func ExtractSenderDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}

// Operation names for Google API metrics.
const (
	OperationList     = "list"
	OperationGet      = "get"
	OperationDownload = "download"
	OperationCreate   = "create"
	OperationUpload   = "upload"
	OperationSearch   = "search"
	OperationRead     = "read"
	OperationAppend   = "append"
	OperationClear    = "clear"
	OperationUpdate   = "update"
)
