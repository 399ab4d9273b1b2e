package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one item in a batch.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult aggregates the results of a batch operation.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses a parameter given either as an array of strings or as a
// single, possibly comma-separated, string. Values are trimmed and duplicates dropped
// while keeping the first occurrence order.
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var raw []string
	switch v := param.(type) {
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []any:
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if strings.TrimSpace(str) == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	seen := make(map[string]bool, len(raw))
	result := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		result = append(result, s)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}

	return result, nil
}

// Summarize counts successes and failures.
func Summarize(results []Result) BatchResult {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FormatResults renders the summarized results as indented JSON.
func FormatResults(results []Result) (string, error) {
	data, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format batch results: %w", err)
	}
	return string(data), nil
}

// ProcessBatch calls fn for each id in order. A failing item does not stop the batch;
// once ctx is done the remaining items are reported with the context error.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (any, error)) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		var (
			res any
			err = ctx.Err()
		)
		if err == nil {
			res, err = fn(ctx, id)
		}

		if err != nil {
			results = append(results, Result{ID: id, Status: StatusError, Error: err.Error()})
			continue
		}
		results = append(results, Result{ID: id, Status: StatusSuccess, Result: res})
	}

	return results
}
