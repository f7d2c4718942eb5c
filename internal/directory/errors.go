package directory

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// minErrorStatusCode is the minimum HTTP status code considered an error.
const minErrorStatusCode = 400

// APIError represents a non-success response from the directory API.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("directory API error (%d %s): %s", e.StatusCode, e.Status, e.Body)
	}
	return fmt.Sprintf("directory API error: %d %s", e.StatusCode, e.Status)
}

// NetworkError represents a transport-level failure reaching the directory
// API (DNS, timeout, connection reset).
type NetworkError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("directory request %s failed: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// parseAPIError reads the response body of a non-success response into a
// structured APIError.
func parseAPIError(resp *http.Response) error {
	if resp.StatusCode < minErrorStatusCode {
		return nil
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       fmt.Sprintf("failed to read error response body: %v", err),
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(bodyBytes),
	}
}

// IsAPIError checks if an error is an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// StatusCode extracts the HTTP status code from an error if it is an APIError.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}
