package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnreachable wraps transport failures: the service could not be reached
// or the connection broke before a response arrived.
var ErrUnreachable = errors.New("analysis service unreachable")

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	// Detail is the human-readable message from the response body, if any.
	Detail    string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Detail returns the server-provided detail carried by err, or "".
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// UserMessage returns the server detail for err, or fallback when the error
// carries none (transport failures, empty bodies).
func UserMessage(err error, fallback string) string {
	if d := Detail(err); d != "" {
		return d
	}
	return fallback
}

func newAPIError(status int, body []byte, requestID string) *APIError {
	return &APIError{StatusCode: status, Detail: parseDetail(body), RequestID: requestID}
}

// parseDetail extracts a message from an error body. It understands
// {"detail": "..."}, validation lists {"detail": [{"msg": "..."}]} and
// {"error": "..."}.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return strings.TrimSpace(s)
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return strings.TrimSpace(payload.Error)
}
