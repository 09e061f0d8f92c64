package testutil

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// RoundTripRecorder is an http.RoundTripper that records the requests it sees and
// answers each with a fixed status and body. Use it as the innermost transport when
// testing round-tripper middleware without a server.
//
// Example:
//
//	rec := testutil.NewRoundTripRecorder(http.StatusOK, `{"success":true}`)
//	client := &http.Client{Transport: middleware.Chain(rec, middleware.RequestID())}
type RoundTripRecorder struct {
	mu       sync.Mutex
	status   int
	body     string
	requests []*http.Request
}

// NewRoundTripRecorder creates a recorder answering status with body.
func NewRoundTripRecorder(status int, body string) *RoundTripRecorder {
	return &RoundTripRecorder{status: status, body: body}
}

func (r *RoundTripRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()

	return &http.Response{
		StatusCode: r.status,
		Status:     http.StatusText(r.status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Request:    req,
	}, nil
}

// Requests returns the requests recorded so far.
func (r *RoundTripRecorder) Requests() []*http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*http.Request, len(r.requests))
	copy(out, r.requests)
	return out
}

// Last returns the most recent request, or nil.
func (r *RoundTripRecorder) Last() *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return nil
	}
	return r.requests[len(r.requests)-1]
}
