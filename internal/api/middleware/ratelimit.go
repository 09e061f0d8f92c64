package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit blocks each request until limiter admits it. A request whose context
// ends first fails with the context error and is never sent.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if limiter == nil {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(req)
		})
	}
}
