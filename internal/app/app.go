// Package app builds the client's object graph: one credential, one portfolio
// cache and the services around them, owned by an App value instead of globals.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fernet/fernet-go"
	"github.com/rs/zerolog"

	"github.com/Segevolp/AlgoTrade/internal/api"
	"github.com/Segevolp/AlgoTrade/internal/config"
	"github.com/Segevolp/AlgoTrade/internal/database"
	"github.com/Segevolp/AlgoTrade/internal/events"
	"github.com/Segevolp/AlgoTrade/internal/repository"
	"github.com/Segevolp/AlgoTrade/internal/scheduler"
	"github.com/Segevolp/AlgoTrade/internal/service"
	"github.com/Segevolp/AlgoTrade/internal/tokenstore"
)

// App is the client context. Create it with New and release it with Close.
type App struct {
	Config *config.Config
	Log    zerolog.Logger

	// State is the durable key/value store the credential lives in. Front ends
	// may keep their own small values (such as the selected portfolio) there too.
	State tokenstore.Persister

	Bus         *events.Bus
	Tokens      *tokenstore.Store
	Gateway     *api.Gateway
	Session     *service.SessionController
	Portfolios  *service.PortfolioStore
	Predictions *service.PredictionOrchestrator
	Models      *service.ModelService
	Scheduler   *scheduler.Scheduler

	db *sql.DB
}

// Option customizes New.
type Option func(*options)

type options struct {
	gatewayOpts []api.Option
	persister   tokenstore.Persister
	key         *fernet.Key
}

// WithGatewayOptions passes extra options to the gateway, e.g. a test transport.
func WithGatewayOptions(opts ...api.Option) Option {
	return func(o *options) { o.gatewayOpts = append(o.gatewayOpts, opts...) }
}

// WithPersister replaces the sqlite state database as credential storage.
func WithPersister(p tokenstore.Persister) Option {
	return func(o *options) { o.persister = p }
}

// WithCredentialKey sets the credential encryption key instead of resolving it from config.
func WithCredentialKey(k *fernet.Key) Option {
	return func(o *options) { o.key = k }
}

// New opens local storage and wires every component. It does not contact the
// backend; call Session.Boot for that.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Log: log}

	persister := o.persister
	if persister == nil && cfg.Storage.Path == database.MemoryPath {
		persister = tokenstore.NewMemoryPersister()
	}

	key := o.key
	if key == nil && cfg.Storage.Path == database.MemoryPath && cfg.Storage.CredentialKey == "" {
		k, err := tokenstore.GenerateKey()
		if err != nil {
			return nil, err
		}
		key = k
	}
	if key == nil {
		k, err := tokenstore.LoadKey(cfg.Storage.CredentialKey, cfg.Storage.KeyPath)
		if err != nil {
			return nil, err
		}
		key = k
	}

	if persister == nil {
		db, err := database.Open(ctx, cfg.Storage.Path, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open state database: %w", err)
		}
		a.db = db
		persister = repository.NewCredentialRepository(db)
		log.Debug().Str("path", cfg.Storage.Path).Msg("State database opened")
	}

	a.State = persister
	a.Bus = events.NewBus(log)
	a.Tokens = tokenstore.New(persister, key, log)

	gatewayOpts := append([]api.Option{
		api.WithTimeout(cfg.API.Timeout),
		api.WithRateLimit(cfg.API.RateLimit),
	}, o.gatewayOpts...)
	a.Gateway = api.NewGateway(cfg.API.BaseURL, a.Tokens, a.Bus, log, gatewayOpts...)

	seq := service.NewSequencer()
	a.Session = service.NewSessionController(a.Gateway, a.Tokens, a.Bus, seq, log)
	a.Portfolios = service.NewPortfolioStore(a.Gateway, a.Bus, seq, log)
	a.Models = service.NewModelService(a.Gateway, log)
	a.Predictions = service.NewPredictionOrchestrator(a.Gateway, a.Portfolios, a.Models, seq, log)

	a.Scheduler = scheduler.New(log, cfg.API.Timeout)
	if err := a.Scheduler.AddJob(cfg.Scheduler.SessionKeepalive, scheduler.NewSessionKeepaliveJob(a.Session, log)); err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid SESSION_KEEPALIVE schedule: %w", err)
	}
	if err := a.Scheduler.AddJob(cfg.Scheduler.PortfolioRefresh, scheduler.NewPortfolioRefreshJob(a.Session, a.Portfolios, log)); err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid PORTFOLIO_REFRESH schedule: %w", err)
	}

	return a, nil
}

// Close detaches the components from the bus and closes local storage.
// The scheduler is stopped by whoever started it.
func (a *App) Close() error {
	if a.Session != nil {
		a.Session.Close()
	}
	if a.Portfolios != nil {
		a.Portfolios.Close()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
