package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Segevolp/AlgoTrade/internal/api/request"
	"github.com/Segevolp/AlgoTrade/internal/api/response"
	"github.com/Segevolp/AlgoTrade/internal/apperrors"
	"github.com/Segevolp/AlgoTrade/internal/events"
	"github.com/Segevolp/AlgoTrade/internal/model"
	"github.com/Segevolp/AlgoTrade/internal/validation"
)

// TokenStore is the credential holder the session controller drives.
// *tokenstore.Store is the production implementation.
type TokenStore interface {
	Current() string
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) (bool, error)
	Restore(ctx context.Context) (string, error)
}

// SessionController owns the authentication state machine:
// initializing -> anonymous | authenticated, and authenticated -> anonymous on
// logout or when the gateway reports the session invalidated.
type SessionController struct {
	mu    sync.RWMutex
	state model.SessionState
	user  *model.User

	gateway Gateway
	tokens  TokenStore
	bus     *events.Bus
	seq     *Sequencer
	log     zerolog.Logger

	unsubscribe func()
}

// NewSessionController creates a SessionController in the initializing state and
// subscribes it to session invalidation on bus.
func NewSessionController(gateway Gateway, tokens TokenStore, bus *events.Bus, seq *Sequencer, log zerolog.Logger) *SessionController {
	c := &SessionController{
		state:   model.SessionInitializing,
		gateway: gateway,
		tokens:  tokens,
		bus:     bus,
		seq:     seq,
		log:     log.With().Str("component", "session").Logger(),
	}
	c.unsubscribe = bus.Subscribe(events.SessionInvalidated, c.onInvalidated)
	return c
}

// Close detaches the controller from the event bus.
func (c *SessionController) Close() {
	c.unsubscribe()
}

// State returns the current session state.
func (c *SessionController) State() model.SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// User returns the authenticated user, or false when the session is not authenticated.
func (c *SessionController) User() (model.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return model.User{}, false
	}
	return *c.user, true
}

// Boot restores the persisted credential and validates it against /profile.
// Any failure clears the credential and leaves the session anonymous; the error
// explains why. No persisted credential is not an error.
func (c *SessionController) Boot(ctx context.Context) error {
	ticket := c.seq.Begin(TargetSession)

	token, err := c.tokens.Restore(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("Could not restore persisted credential")
		c.becomeAnonymous(ticket)
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if token == "" {
		c.becomeAnonymous(ticket)
		return nil
	}

	user, err := c.fetchProfile(ctx)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.seq.Accept(ticket) {
			return apperrors.ErrSuperseded
		}
		if _, clearErr := c.tokens.Clear(ctx); clearErr != nil {
			c.log.Error().Err(clearErr).Msg("Failed to clear rejected credential")
		}
		c.state = model.SessionAnonymous
		c.user = nil
		c.log.Info().Err(err).Msg("Persisted session rejected")
		return fmt.Errorf("failed to restore session: %w", err)
	}

	c.mu.Lock()
	if !c.seq.Accept(ticket) {
		c.mu.Unlock()
		return apperrors.ErrSuperseded
	}
	c.state = model.SessionAuthenticated
	c.user = &user
	c.mu.Unlock()

	c.log.Info().Str("username", user.Username).Msg("Session restored")
	c.bus.Publish(&events.SessionStartedData{UserID: user.ID.String(), Username: user.Username})
	return nil
}

// Login authenticates with the backend. On success the credential is stored and the
// session becomes authenticated. On failure the session state and credential are
// left as they were and the error carries the server's message.
func (c *SessionController) Login(ctx context.Context, creds model.Credentials) (model.User, error) {
	req := request.LoginRequest{Username: creds.Username, Password: creds.Password}
	if err := validation.ValidateLogin(req); err != nil {
		return model.User{}, err
	}

	ticket := c.seq.Begin(TargetSession)

	var resp response.LoginResponse
	if err := c.gateway.Do(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		c.settleIfInitializing()
		c.log.Info().Str("username", creds.Username).Msg("Login failed")
		return model.User{}, err
	}
	if resp.AccessToken == "" {
		c.settleIfInitializing()
		return model.User{}, apperrors.ErrMissingCredential
	}

	user := model.User{Username: creds.Username}
	if resp.User != nil {
		user = *resp.User
	}

	c.mu.Lock()
	if !c.seq.Accept(ticket) {
		c.mu.Unlock()
		return model.User{}, apperrors.ErrSuperseded
	}
	if err := c.tokens.Set(ctx, resp.AccessToken); err != nil {
		c.mu.Unlock()
		return model.User{}, err
	}
	c.state = model.SessionAuthenticated
	c.user = &user
	c.mu.Unlock()

	c.log.Info().Str("username", user.Username).Msg("Logged in")
	c.bus.Publish(&events.SessionStartedData{UserID: user.ID.String(), Username: user.Username})
	return user, nil
}

// Register validates the sign-up form, creates the account and then logs in with
// the same username and password. The result is the login result.
func (c *SessionController) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	req, err := validation.ValidateRegistration(reg)
	if err != nil {
		return model.User{}, err
	}

	var resp response.Envelope
	if err := c.gateway.Do(ctx, http.MethodPost, "/register", req, &resp); err != nil {
		c.log.Info().Str("username", req.Username).Msg("Registration failed")
		return model.User{}, err
	}
	c.log.Info().Str("username", req.Username).Msg("Registered, logging in")

	return c.Login(ctx, model.Credentials{Username: req.Username, Password: req.Password})
}

// Logout ends the session. In-flight session requests are discarded when they complete.
func (c *SessionController) Logout(ctx context.Context) error {
	c.seq.Supersede(TargetSession)

	c.mu.Lock()
	_, err := c.tokens.Clear(ctx)
	c.state = model.SessionAnonymous
	c.user = nil
	c.mu.Unlock()

	c.log.Info().Msg("Logged out")
	c.bus.Publish(&events.SessionEndedData{})
	return err
}

// Refresh re-validates an authenticated session against /profile and updates the user.
// A 401 ends the session through the gateway's invalidation signal.
func (c *SessionController) Refresh(ctx context.Context) (model.User, error) {
	if c.State() != model.SessionAuthenticated {
		return model.User{}, apperrors.ErrNotAuthenticated
	}

	ticket := c.seq.Begin(TargetSession)
	user, err := c.fetchProfile(ctx)
	if err != nil {
		return model.User{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seq.Accept(ticket) || c.state != model.SessionAuthenticated {
		return model.User{}, apperrors.ErrSuperseded
	}
	c.user = &user
	return user, nil
}

func (c *SessionController) fetchProfile(ctx context.Context) (model.User, error) {
	var resp response.ProfileResponse
	if err := c.gateway.Do(ctx, http.MethodGet, "/profile", nil, &resp); err != nil {
		return model.User{}, err
	}
	if resp.User == nil {
		return model.User{}, missingField(http.MethodGet, "/profile", "user")
	}
	return *resp.User, nil
}

func (c *SessionController) becomeAnonymous(ticket Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq.Accept(ticket) {
		c.state = model.SessionAnonymous
		c.user = nil
	}
}

// settleIfInitializing leaves the initializing state after a failed login that raced boot.
func (c *SessionController) settleIfInitializing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == model.SessionInitializing {
		c.state = model.SessionAnonymous
	}
}

func (c *SessionController) onInvalidated(e *events.Event) {
	c.mu.Lock()
	wasAuthenticated := c.state == model.SessionAuthenticated
	c.state = model.SessionAnonymous
	c.user = nil
	c.mu.Unlock()

	if wasAuthenticated {
		c.log.Info().Msg("Session invalidated by backend")
	}
}

// IsAuthError reports whether err means the user has to log in (again).
func IsAuthError(err error) bool {
	return errors.Is(err, apperrors.ErrUnauthorized) || errors.Is(err, apperrors.ErrNotAuthenticated)
}
