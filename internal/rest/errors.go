package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// APIError is the normalized failure shape for every vendor call. Network
// is true when no HTTP response was received (timeout, DNS, refused
// connection); StatusCode is then 0 and Body empty. Otherwise StatusCode
// and the raw vendor payload are preserved so callers can branch on them.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
	Network    bool
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Network {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, msg)
}

// Unwrap exposes the underlying transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is eligible for retry: a
// network-level failure or a server-side 5xx. Client errors are final.
func (e *APIError) Retryable() bool {
	return e.Network || e.StatusCode >= 500
}

// IsNotFound returns true if the error is a 404 Not Found.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 Unauthorized.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsRateLimited returns true if the error is a 429 Too Many Requests.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// errorResponse covers the common vendor error body shapes. Vendors
// disagree on the field name; the first non-empty one wins.
type errorResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	Code        string `json:"code"`
	ErrorMsg    string `json:"error_message"`
	Information string `json:"Information"`
}

// CheckResponse converts a non-2xx response into an *APIError carrying the
// status and raw body. Returns nil for successful responses.
func CheckResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}

	var errResp errorResponse
	if err := json.Unmarshal(resp.Body(), &errResp); err != nil {
		// Not JSON; the status line is all we have.
		return apiErr
	}
	switch {
	case errResp.Error != "":
		apiErr.Message = errResp.Error
	case errResp.Message != "":
		apiErr.Message = errResp.Message
	case errResp.ErrorMsg != "":
		apiErr.Message = errResp.ErrorMsg
	case errResp.Information != "":
		apiErr.Message = errResp.Information
	}
	apiErr.Code = errResp.Code

	return apiErr
}
