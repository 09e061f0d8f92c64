package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger logs every outbound request with its status and latency. Headers are
// never logged, so the credential stays out of the log.
func Logger(log zerolog.Logger) Middleware {
	// Strip CR/LF from request values to prevent log injection.
	sanitize := strings.NewReplacer("\n", "", "\r", "").Replace

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			event := log.Debug()
			if err != nil {
				event = log.Warn().Err(err)
			} else if resp.StatusCode >= http.StatusInternalServerError {
				event = log.Warn()
			}
			if resp != nil {
				event = event.Int("status", resp.StatusCode)
			}
			event.
				Str("method", sanitize(req.Method)).
				Str("path", sanitize(req.URL.Path)).
				Str("request_id", req.Header.Get(RequestIDHeader)).
				Dur("duration", time.Since(start)).
				Msg("Backend request")

			return resp, err
		})
	}
}
