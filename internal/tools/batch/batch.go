package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Item statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one item of a batch. Result holds the item's
// JSON payload on success.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult aggregates the results of a batch.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray accepts a tool parameter given either as one string or
// as an array of strings. Blank entries are rejected.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var items []string
	switch v := param.(type) {
	case string:
		items = []string{v}
	case []string:
		items = v
	case []interface{}:
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			items = append(items, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	for i, item := range items {
		if strings.TrimSpace(item) == "" {
			if len(items) == 1 {
				return nil, fmt.Errorf("%s cannot be empty", paramName)
			}
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
	}
	return items, nil
}

// Summarize counts successes and failures.
func Summarize(results []Result) BatchResult {
	br := BatchResult{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FormatResults renders the batch summary as indented JSON.
func FormatResults(results []Result) (string, error) {
	data, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode batch results: %w", err)
	}
	return string(data), nil
}

// ProcessBatch applies fn to every id in order. Items left when ctx is
// cancelled are recorded as errors without calling fn.
func ProcessBatch[T any](ctx context.Context, ids []string, fn func(ctx context.Context, id string) (T, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, res))
	}
	return results
}

// NewSuccessResult creates a success result.
func NewSuccessResult(id string, payload any) Result {
	return Result{ID: id, Status: StatusSuccess, Result: payload}
}

// NewErrorResult creates an error result.
func NewErrorResult(id string, err error) Result {
	return Result{ID: id, Status: StatusError, Error: err.Error()}
}
