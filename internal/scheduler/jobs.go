package scheduler

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Segevolp/AlgoTrade/internal/apperrors"
	"github.com/Segevolp/AlgoTrade/internal/model"
	"github.com/Segevolp/AlgoTrade/internal/service"
)

// SessionKeepaliveJob re-validates the session against the backend so an expired
// credential is noticed (and cleared) without waiting for the next user action.
type SessionKeepaliveJob struct {
	session *service.SessionController
	log     zerolog.Logger
}

// NewSessionKeepaliveJob creates a new keepalive job
func NewSessionKeepaliveJob(session *service.SessionController, log zerolog.Logger) *SessionKeepaliveJob {
	return &SessionKeepaliveJob{
		session: session,
		log:     log.With().Str("job", "session_keepalive").Logger(),
	}
}

// Name returns the job name
func (j *SessionKeepaliveJob) Name() string {
	return "session_keepalive"
}

// Run refreshes the profile. It does nothing while no session is authenticated.
func (j *SessionKeepaliveJob) Run(ctx context.Context) error {
	if j.session.State() != model.SessionAuthenticated {
		j.log.Debug().Msg("No session, skipping")
		return nil
	}
	user, err := j.session.Refresh(ctx)
	if err != nil {
		return err
	}
	j.log.Debug().Str("username", user.Username).Msg("Session still valid")
	return nil
}

// PortfolioRefreshJob reloads the portfolio cache from the backend.
type PortfolioRefreshJob struct {
	session    *service.SessionController
	portfolios *service.PortfolioStore
	log        zerolog.Logger
}

// NewPortfolioRefreshJob creates a new portfolio refresh job
func NewPortfolioRefreshJob(session *service.SessionController, portfolios *service.PortfolioStore, log zerolog.Logger) *PortfolioRefreshJob {
	return &PortfolioRefreshJob{
		session:    session,
		portfolios: portfolios,
		log:        log.With().Str("job", "portfolio_refresh").Logger(),
	}
}

// Name returns the job name
func (j *PortfolioRefreshJob) Name() string {
	return "portfolio_refresh"
}

// Run reloads the portfolios. It does nothing while no session is authenticated,
// and a reload overtaken by a user change is not a failure.
func (j *PortfolioRefreshJob) Run(ctx context.Context) error {
	if j.session.State() != model.SessionAuthenticated {
		return nil
	}
	portfolios, err := j.portfolios.Load(ctx)
	if errors.Is(err, apperrors.ErrSuperseded) {
		// A newer confirmed state is already cached.
		j.log.Debug().Msg("Portfolio refresh superseded")
		return nil
	}
	if err != nil {
		return err
	}
	j.log.Debug().Int("count", len(portfolios)).Msg("Portfolios refreshed")
	return nil
}
