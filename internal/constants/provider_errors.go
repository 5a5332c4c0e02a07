package constants

// Error codes for external collaborators (session log source, endorsement
// registry, notifier, reference dataset).

const (
	ErrCodeNetworkError      = "NETWORK_ERROR"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInvalidAPIKey     = "INVALID_API_KEY"
	ErrCodeUpstreamError     = "UPSTREAM_ERROR"
	ErrCodeMalformedPayload  = "MALFORMED_PAYLOAD"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidDataFormat = "INVALID_DATA_FORMAT"
	ErrCodeRetriesExhausted  = "RETRIES_EXHAUSTED"
)

var providerErrorMessages = map[string]string{
	ErrCodeNetworkError:      "Unable to reach the upstream service",
	ErrCodeTimeout:           "The upstream call timed out",
	ErrCodeRateLimited:       "Rate limit exceeded. Please try again later",
	ErrCodeInvalidAPIKey:     "The upstream API key is invalid or has been revoked",
	ErrCodeUpstreamError:     "The upstream service returned an error response",
	ErrCodeMalformedPayload:  "The upstream response could not be parsed",
	ErrCodeNotFound:          "The requested entry does not exist upstream",
	ErrCodeInvalidDataFormat: "The request data format is invalid",
	ErrCodeRetriesExhausted:  "All retry attempts against the upstream service failed",
}

// GetErrorMessage returns the human-readable message for an error code.
func GetErrorMessage(code string) string {
	if msg, exists := providerErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
