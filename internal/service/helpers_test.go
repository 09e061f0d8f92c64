package service_test

import (
	"testing"
	"time"

	"github.com/Segevolp/AlgoTrade/internal/app"
	"github.com/Segevolp/AlgoTrade/internal/testutil"
	"github.com/Segevolp/AlgoTrade/internal/tokenstore"
)

// testEnv bundles a fake backend with a client wired against it.
type testEnv struct {
	fb        *testutil.FakeBackend
	app       *app.App
	persister *tokenstore.MemoryPersister
}

func newTestEnv(t *testing.T, opts ...app.Option) *testEnv {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	a, persister := testutil.NewTestApp(t, fb, opts...)
	return &testEnv{fb: fb, app: a, persister: persister}
}

// newLoggedInEnv returns an environment whose client is logged in as a fresh user.
func newLoggedInEnv(t *testing.T) (*testEnv, string) {
	t.Helper()
	env := newTestEnv(t)
	username := testutil.LoginTestApp(t, env.app, env.fb)
	return env, username
}

// waitFor polls cond until it holds or a second has passed.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
