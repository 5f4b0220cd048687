package googlebusiness

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrAuthExpired marks a rejected or unrefreshable credential. The account
// must be reconnected by the user; automation skips it until then.
var ErrAuthExpired = errors.New("google credential expired or revoked")

// APIError is a non-2xx answer from a Google Business Profile endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("google business api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("google business api: status %d", e.StatusCode)
}

func newAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	// Error bodies look like {"error": {"message": "...", "status": "..."}}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(raw) > 0 {
		var payload struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error.Message != "" {
			apiErr.Message = payload.Error.Message
		} else {
			apiErr.Message = string(raw)
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrAuthExpired, apiErr)
	}
	return apiErr
}

// IsAuthExpired reports whether the error requires a user reconnect.
func IsAuthExpired(err error) bool {
	if errors.Is(err, ErrAuthExpired) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsRateLimited reports whether the platform throttled the call.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsTransient reports whether the failure is a server-side error worth
// retrying on a later tick.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 500
}
