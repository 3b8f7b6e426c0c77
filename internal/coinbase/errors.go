package coinbase

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// APIError error response from the Coinbase API.
type APIError struct {
	StatusCode int
	ID         string
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("coinbase api error %d: %s", e.StatusCode, msg)
}

// newAPIError decodes the Coinbase error envelope from an error response
// body. Bodies that are not the documented envelope are tolerated.
func newAPIError(statusCode int, url string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, URL: url}

	var envelope errorsResponse
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		apiErr.ID = envelope.Errors[0].ID
		apiErr.Message = envelope.Errors[0].Message
	}

	return apiErr
}

// IsAuthenticationError reports whether err is a credential failure, either
// by status or by the error id Coinbase assigns to bad keys.
func IsAuthenticationError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.StatusCode == http.StatusUnauthorized ||
		apiErr.ID == "authentication_error" ||
		apiErr.ID == "invalid_api_key"
}
