package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is the normalized error surfaced for every non-2xx terminal
// outcome. Transport-level failures are not wrapped in it; they propagate as
// plain errors.
type APIError struct {
	Message string
	Status  int
	Detail  string
	Fields  map[string][]string
}

func (e *APIError) Error() string { return e.Message }

// errorBody covers the error shapes the backend is known to produce. Detail
// is kept raw because it is either a plain string or a list of field
// violations; each shape is attempted explicitly.
type errorBody struct {
	Message string              `json:"message"`
	Detail  json.RawMessage     `json:"detail"`
	Errors  map[string][]string `json:"errors"`
}

type fieldViolation struct {
	Msg string   `json:"msg"`
	Loc []string `json:"loc"`
}

// decodeResponse normalizes a settled HTTP response: 204 resolves without
// touching the body, error statuses become an *APIError, success bodies are
// decoded into out. A malformed body never masks the HTTP status.
func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newAPIError(resp.StatusCode, raw, isJSON)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if !isJSON {
		if s, ok := out.(*string); ok {
			*s = string(raw)
		}
		return nil
	}

	// A malformed success body degrades to an empty one instead of masking
	// the 2xx outcome with a parse error.
	if err := json.Unmarshal(raw, out); err != nil {
		return nil
	}
	return nil
}

func newAPIError(status int, raw []byte, isJSON bool) *APIError {
	apiErr := &APIError{
		Status:  status,
		Message: fmt.Sprintf("Error %d", status),
	}

	if !isJSON {
		if len(raw) > 0 {
			apiErr.Detail = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}

	apiErr.Fields = body.Errors
	if body.Message != "" {
		apiErr.Message = body.Message
	}

	if len(body.Detail) == 0 {
		return apiErr
	}

	// detail is either a plain string or a list of {msg, loc} violations.
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err != nil {
		var violations []fieldViolation
		if err := json.Unmarshal(body.Detail, &violations); err != nil || len(violations) == 0 {
			return apiErr
		}
		detail = joinViolations(violations)
	}

	apiErr.Detail = detail
	if body.Message == "" && detail != "" {
		apiErr.Message = detail
	}
	return apiErr
}

// joinViolations renders validation items as "<field>: <message>" pairs,
// using the last element of the location path as the field name.
func joinViolations(violations []fieldViolation) string {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		field := ""
		if len(v.Loc) > 0 {
			field = v.Loc[len(v.Loc)-1]
		}
		if field == "" {
			parts = append(parts, v.Msg)
			continue
		}
		parts = append(parts, field+": "+v.Msg)
	}
	return strings.Join(parts, ", ")
}
