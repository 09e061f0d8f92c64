package middleware_test

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Segevolp/AlgoTrade/internal/api/middleware"
	"github.com/Segevolp/AlgoTrade/internal/testutil"
)

type staticToken string

func (s staticToken) Current() string { return string(s) }

func send(t *testing.T, rt http.RoundTripper, req *http.Request) {
	t.Helper()
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip() returned unexpected error: %v", err)
	}
	resp.Body.Close()
}

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://backend.test/portfolios", nil)
	if err != nil {
		t.Fatalf("NewRequest() returned unexpected error: %v", err)
	}
	return req
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return middleware.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}

	rec := testutil.NewRoundTripRecorder(http.StatusOK, `{}`)
	send(t, middleware.Chain(rec, mark("outer"), mark("inner")), newRequest(t))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("Expected outer,inner, got %v", order)
	}
}

func TestBearer(t *testing.T) {
	t.Run("attaches the token without touching the original request", func(t *testing.T) {
		rec := testutil.NewRoundTripRecorder(http.StatusOK, `{}`)
		req := newRequest(t)

		send(t, middleware.Chain(rec, middleware.Bearer(staticToken("abc"))), req)

		if got := rec.Last().Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("Expected 'Bearer abc', got %q", got)
		}
		if req.Header.Get("Authorization") != "" {
			t.Error("Original request was modified")
		}
	})

	t.Run("omits the header without a token", func(t *testing.T) {
		rec := testutil.NewRoundTripRecorder(http.StatusOK, `{}`)

		send(t, middleware.Chain(rec, middleware.Bearer(staticToken(""))), newRequest(t))

		if _, ok := rec.Last().Header["Authorization"]; ok {
			t.Error("Expected no Authorization header")
		}
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates a fresh id per request", func(t *testing.T) {
		rec := testutil.NewRoundTripRecorder(http.StatusOK, `{}`)
		rt := middleware.Chain(rec, middleware.RequestID())

		send(t, rt, newRequest(t))
		send(t, rt, newRequest(t))

		reqs := rec.Requests()
		first := reqs[0].Header.Get(middleware.RequestIDHeader)
		second := reqs[1].Header.Get(middleware.RequestIDHeader)
		if first == "" || first == second {
			t.Errorf("Expected distinct ids, got %q and %q", first, second)
		}
	})

	t.Run("keeps an id set by the caller", func(t *testing.T) {
		rec := testutil.NewRoundTripRecorder(http.StatusOK, `{}`)
		req := newRequest(t)
		req.Header.Set(middleware.RequestIDHeader, "fixed")

		send(t, middleware.Chain(rec, middleware.RequestID()), req)

		if got := rec.Last().Header.Get(middleware.RequestIDHeader); got != "fixed" {
			t.Errorf("Expected 'fixed', got %q", got)
		}
	})
}

func TestLogger_NeverLogsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	rec := testutil.NewRoundTripRecorder(http.StatusOK, `{}`)

	send(t, middleware.Chain(rec, middleware.Bearer(staticToken("secret-token")), middleware.Logger(log)), newRequest(t))

	out := buf.String()
	if !strings.Contains(out, `"path":"/portfolios"`) || !strings.Contains(out, `"status":200`) {
		t.Errorf("Expected path and status in log, got %s", out)
	}
	if strings.Contains(out, "secret-token") {
		t.Errorf("Credential leaked into log: %s", out)
	}
}

func TestRateLimit(t *testing.T) {
	t.Run("nil limiter passes through", func(t *testing.T) {
		rec := testutil.NewRoundTripRecorder(http.StatusOK, `{}`)

		send(t, middleware.Chain(rec, middleware.RateLimit(nil)), newRequest(t))

		if len(rec.Requests()) != 1 {
			t.Errorf("Expected 1 request, got %d", len(rec.Requests()))
		}
	})

	t.Run("cancelled request is never sent", func(t *testing.T) {
		rec := testutil.NewRoundTripRecorder(http.StatusOK, `{}`)
		limiter := rate.NewLimiter(rate.Limit(0.001), 1)
		rt := middleware.Chain(rec, middleware.RateLimit(limiter))
		send(t, rt, newRequest(t))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := rt.RoundTrip(newRequest(t).WithContext(ctx)); err == nil {
			t.Fatal("Expected an error for a cancelled request")
		}
		if len(rec.Requests()) != 1 {
			t.Errorf("Expected the second request to be held back, got %d sent", len(rec.Requests()))
		}
	})
}
