// Package middleware provides the http.RoundTripper wrappers the gateway's
// outbound requests pass through, plus the CORS policy of the test backend.
package middleware

import "net/http"

// Middleware wraps a RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain wraps base with mws. The first middleware sees the request first.
//
// Example:
//
//	transport := middleware.Chain(http.DefaultTransport,
//	    middleware.RequestID(),
//	    middleware.Bearer(tokens),
//	)
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}
