package middleware

import "net/http"

// TokenSource supplies the current bearer credential ("" when there is none).
type TokenSource interface {
	Current() string
}

// Bearer attaches "Authorization: Bearer <token>" while tokens holds a credential.
// The token is read per request, so clearing it takes effect for the next call.
func Bearer(tokens TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			token := tokens.Current()
			if token == "" {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(req)
		})
	}
}
