package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Segevolp/AlgoTrade/internal/app"
	"github.com/Segevolp/AlgoTrade/internal/apperrors"
	"github.com/Segevolp/AlgoTrade/internal/config"
	"github.com/Segevolp/AlgoTrade/internal/events"
	"github.com/Segevolp/AlgoTrade/internal/logger"
	"github.com/Segevolp/AlgoTrade/internal/validation"
)

// activePortfolioKey is the client_state key the selected portfolio is kept under.
const activePortfolioKey = "activePortfolio"

// application is the client context of the running command.
var application *app.App

// setup loads configuration, builds the client and restores the stored session.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: cmd.ErrOrStderr()})

	// A failed command skips teardown.
	teardown(cmd, nil)
	application, err = app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	application.Bus.Subscribe(events.SessionInvalidated, func(e *events.Event) {
		if data, ok := e.Data.(*events.SessionInvalidatedData); ok && data.HadCredential {
			fmt.Fprintln(stderr, "session expired, please log in again")
		}
	})

	if err := application.Session.Boot(cmd.Context()); err != nil {
		log.Debug().Err(err).Msg("Starting without a session")
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) {
	if application != nil {
		application.Close()
		application = nil
	}
}

// requireSession fails unless the stored session was accepted by the server.
func requireSession() error {
	if _, ok := application.Session.User(); !ok {
		return fmt.Errorf("%w: run 'algotrade login' first", apperrors.ErrNotAuthenticated)
	}
	return nil
}

// loadPortfolios fills the cache and restores the selection saved by an earlier run.
func loadPortfolios(ctx context.Context) error {
	if err := requireSession(); err != nil {
		return err
	}
	if _, err := application.Portfolios.Load(ctx); err != nil {
		return err
	}
	saved, ok, err := application.State.Load(ctx, activePortfolioKey)
	if err == nil && ok {
		_ = application.Portfolios.Select(saved)
	}
	return nil
}

// saveSelection remembers the active portfolio for the next run.
func saveSelection(ctx context.Context) error {
	active, ok := application.Portfolios.Active()
	if !ok {
		return application.State.Delete(ctx, activePortfolioKey)
	}
	return application.State.Save(ctx, activePortfolioKey, active.ID.String())
}

// resolvePortfolio returns the explicit id, or the active portfolio's.
func resolvePortfolio(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	active, ok := application.Portfolios.Active()
	if !ok {
		return "", fmt.Errorf("%w: create one with 'algotrade portfolio create'", apperrors.ErrNoActivePortfolio)
	}
	return active.ID.String(), nil
}

// readSecret returns value, or the first line of in when value is empty.
func readSecret(in io.Reader, out io.Writer, prompt, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return "invalid input: " + verr.Error()
	}
	return apperrors.Message(err)
}
