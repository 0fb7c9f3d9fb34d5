package github

import (
	"errors"
	"net/http"

	"github.com/google/go-github/v74/github"
)

// Transient reports whether err is a submit failure that may succeed on
// retry. It uses typed checking rather than string matching:
//   - rate limiting is checked via *github.RateLimitError and
//     *github.AbuseRateLimitError,
//   - HTTP failures via *github.ErrorResponse (429 / 5xx),
//   - anything without an HTTP response is a network-level failure.
//
// Client errors (4xx other than 429) are not retried.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		if respErr.Response == nil {
			return true
		}
		code := respErr.Response.StatusCode
		return code == http.StatusTooManyRequests || code >= 500
	}

	return true
}
