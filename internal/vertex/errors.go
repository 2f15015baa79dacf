package vertex

import "fmt"

// APIError is any failed predict call: transport failure, non-2xx status or
// a response without image bytes. StatusCode is zero for transport failures.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
	Cause      error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Messages for failures that do not come from an HTTP status.
const (
	MsgNetworkError    = "Network error: Unable to reach Imagen API. Please try again."
	MsgInvalidResponse = "Invalid response format from Imagen API"
	MsgAuthFailed      = "Authentication error with Imagen API. Please check credentials."
)

// StatusMessage returns the human-readable message for an upstream status code.
func StatusMessage(status int) string {
	switch {
	case status == 400:
		return "Bad request to Imagen API. The prompt or parameters may be invalid."
	case status == 401:
		return MsgAuthFailed
	case status == 403:
		return "Permission denied by Imagen API. Check your quota and permissions."
	case status == 429:
		return "Rate limit exceeded. Please try again in a few moments."
	case status >= 500:
		return "Imagen API server error. Please try again later."
	default:
		return fmt.Sprintf("Imagen API error: %d", status)
	}
}
