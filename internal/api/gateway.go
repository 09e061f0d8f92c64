// Package api is the client's single point of contact with the forecasting
// backend. Every request goes through Gateway.Do, which attaches the credential,
// maps failures onto the apperrors classes and runs the global 401 interceptor.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Segevolp/AlgoTrade/internal/api/middleware"
	"github.com/Segevolp/AlgoTrade/internal/apperrors"
	"github.com/Segevolp/AlgoTrade/internal/events"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 16 << 20

// Credentials is the part of the token store the gateway needs.
type Credentials interface {
	Current() string
	Clear(ctx context.Context) (bool, error)
}

// Publisher receives the session-invalidated signal.
type Publisher interface {
	Publish(events.EventData)
}

// Gateway issues JSON requests against the backend.
type Gateway struct {
	baseURL string
	client  *http.Client
	tokens  Credentials
	bus     Publisher
	log     zerolog.Logger
}

// Option configures a Gateway.
type Option func(*gatewayOptions)

type gatewayOptions struct {
	transport http.RoundTripper
	timeout   time.Duration
	rateLimit float64
}

// WithTransport sets the base transport (http.DefaultTransport by default).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *gatewayOptions) { o.transport = rt }
}

// WithTimeout bounds every request, including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(o *gatewayOptions) { o.timeout = d }
}

// WithRateLimit limits outbound requests to perSecond. Zero or less disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(o *gatewayOptions) { o.rateLimit = perSecond }
}

// NewGateway creates a Gateway for the backend at baseURL.
//
// Parameters:
//   - baseURL: backend root, without trailing slash (e.g. "http://localhost:5555")
//   - tokens: the credential holder; its value is attached as a bearer token
//   - bus: receives events.SessionInvalidatedData whenever the backend answers 401
//   - log: request logging, at debug level
func NewGateway(baseURL string, tokens Credentials, bus Publisher, log zerolog.Logger, opts ...Option) *Gateway {
	o := gatewayOptions{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	var limiter *rate.Limiter
	if o.rateLimit > 0 {
		burst := int(o.rateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(o.rateLimit), burst)
	}

	log = log.With().Str("component", "gateway").Logger()
	transport := middleware.Chain(o.transport,
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.RateLimit(limiter),
		middleware.Bearer(tokens),
	)

	return &Gateway{
		baseURL: baseURL,
		client:  &http.Client{Transport: transport, Timeout: o.timeout},
		tokens:  tokens,
		bus:     bus,
		log:     log,
	}
}

// Do sends body (JSON encoded, omitted when nil) to path and decodes the response into out
// (skipped when nil).
//
// Errors:
//   - *apperrors.NetworkError when no HTTP response was received
//   - *apperrors.APIError with Kind ErrUnauthorized (401, after the credential was
//     cleared and the invalidation published), ErrNotFound (404), ErrServer (other
//     4xx/5xx or an undecodable body) or ErrRejected (2xx with success=false)
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &apperrors.NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &apperrors.NetworkError{Method: method, Path: path, Err: err}
	}
	raw = sanitizeJSON(raw)

	if resp.StatusCode == http.StatusUnauthorized {
		g.invalidate(ctx, method, path)
		return g.apiError(apperrors.ErrUnauthorized, resp.StatusCode, method, path, raw)
	}
	if resp.StatusCode == http.StatusNotFound {
		return g.apiError(apperrors.ErrNotFound, resp.StatusCode, method, path, raw)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return g.apiError(apperrors.ErrServer, resp.StatusCode, method, path, raw)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return g.malformed(resp.StatusCode, method, path, raw, err)
	}
	if env.Success != nil && !*env.Success {
		return g.apiError(apperrors.ErrRejected, resp.StatusCode, method, path, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return g.malformed(resp.StatusCode, method, path, raw, err)
		}
	}
	return nil
}

// envelope is the lenient view of a response used for classification. A missing
// "success" field counts as success.
type envelope struct {
	Success *bool           `json:"success"`
	Error   json.RawMessage `json:"error"`
	Message json.RawMessage `json:"message"`
	Msg     json.RawMessage `json:"msg"`
}

// text returns the first human-readable message the body carries.
func (e envelope) text() string {
	for _, raw := range []json.RawMessage{e.Error, e.Message, e.Msg} {
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		return string(raw)
	}
	return ""
}

func (g *Gateway) apiError(kind error, status int, method, path string, raw []byte) *apperrors.APIError {
	var env envelope
	message := ""
	if err := json.Unmarshal(raw, &env); err == nil {
		message = env.text()
	}
	if message == "" && kind != apperrors.ErrRejected {
		message = http.StatusText(status)
	}
	return &apperrors.APIError{
		Kind:       kind,
		StatusCode: status,
		Message:    message,
		Method:     method,
		Path:       path,
		Body:       raw,
	}
}

func (g *Gateway) malformed(status int, method, path string, raw []byte, err error) *apperrors.APIError {
	g.log.Warn().Err(err).Str("path", path).Msg("Malformed backend response")
	return &apperrors.APIError{
		Kind:       apperrors.ErrServer,
		StatusCode: status,
		Message:    "malformed response: " + err.Error(),
		Method:     method,
		Path:       path,
		Body:       raw,
	}
}

// invalidate is the global 401 interceptor. It runs for every 401 regardless of
// which operation issued the request.
func (g *Gateway) invalidate(ctx context.Context, method, path string) {
	had, err := g.tokens.Clear(context.WithoutCancel(ctx))
	if err != nil {
		g.log.Error().Err(err).Msg("Failed to clear credential after 401")
	}
	g.log.Info().
		Str("method", method).
		Str("path", path).
		Bool("had_credential", had).
		Msg("Session invalidated by backend")

	if g.bus != nil {
		g.bus.Publish(&events.SessionInvalidatedData{
			Method:        method,
			Path:          path,
			HadCredential: had,
		})
	}
}

// UnavailableBody returns the response body of err when it is an API error carrying a
// missing-model report.
func UnavailableBody(err error) ([]byte, bool) {
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		return nil, false
	}
	if errors.Is(apiErr.Kind, apperrors.ErrUnauthorized) || errors.Is(apiErr.Kind, apperrors.ErrNotFound) {
		return nil, false
	}
	var body struct {
		MissingModels json.RawMessage `json:"missing_models"`
	}
	if err := json.Unmarshal(apiErr.Body, &body); err != nil {
		return nil, false
	}
	if len(body.MissingModels) == 0 || string(body.MissingModels) == "null" {
		return nil, false
	}
	return apiErr.Body, true
}
