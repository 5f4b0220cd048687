package googlebusiness

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	unauthorized := &APIError{StatusCode: http.StatusUnauthorized}
	throttled := &APIError{StatusCode: http.StatusTooManyRequests}
	serverErr := &APIError{StatusCode: http.StatusBadGateway}
	notFound := &APIError{StatusCode: http.StatusNotFound}

	assert.True(t, IsAuthExpired(unauthorized))
	assert.True(t, IsAuthExpired(ErrAuthExpired))
	assert.True(t, IsAuthExpired(fmt.Errorf("%w: token refresh failed", ErrAuthExpired)))
	assert.False(t, IsAuthExpired(throttled))
	assert.False(t, IsAuthExpired(errors.New("unrelated")))

	assert.True(t, IsRateLimited(throttled))
	assert.False(t, IsRateLimited(serverErr))

	assert.True(t, IsTransient(serverErr))
	assert.False(t, IsTransient(notFound))
	assert.False(t, IsTransient(errors.New("unrelated")))
}

func TestAPIErrorMessage(t *testing.T) {
	withMessage := &APIError{StatusCode: 403, Message: "quota exceeded"}
	assert.Contains(t, withMessage.Error(), "status 403")
	assert.Contains(t, withMessage.Error(), "quota exceeded")

	bare := &APIError{StatusCode: 500}
	assert.Contains(t, bare.Error(), "status 500")
}
