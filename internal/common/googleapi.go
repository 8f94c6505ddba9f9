package common

import (
	"errors"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
)

// retryableStatus lists the Google API status codes worth another attempt.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// ClassifyGoogleError tags an error returned by a Google API call as
// retryable or permanent so WithRetry can act on it.
func ClassifyGoogleError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return Transient(errors.Join(ErrRateLimit, err))
		}
		if retryableStatus[apiErr.Code] {
			return Transient(err)
		}
		return Permanent(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient(err)
	}

	return Permanent(err)
}

// StatusCode returns the HTTP status carried by a Google API error, or 0.
func StatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
