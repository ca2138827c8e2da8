package partnerships

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is a non-2xx response from the partnerships service. Message is safe to display.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// DisplayMessage returns the operator-facing message.
func (e *APIError) DisplayMessage() string {
	return e.Message
}

// HTTPStatus returns the upstream status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// decodeAPIError extracts a readable message from an error body. The service answers with
// {"detail": ...}, {"message": ...}, {"error": ...} or a map of field errors.
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if msg := rawMessage(payload[key]); msg != "" {
				apiErr.Message = msg
				return apiErr
			}
		}

		fields := make([]string, 0, len(payload))
		for field := range payload {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if msg := rawMessage(payload[field]); msg != "" {
				apiErr.Message = fmt.Sprintf("%s: %s", field, msg)
				return apiErr
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		apiErr.Message = text
		return apiErr
	}

	apiErr.Message = http.StatusText(status)
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("partnerships service returned status %d", status)
	}
	return apiErr
}

// rawMessage accepts either a string or a list of strings.
func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}
