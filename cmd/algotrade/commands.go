package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	username        string
	email           string
	password        string
	confirmPassword string

	itemTicker        string
	itemQuantity      string
	itemPurchasePrice string
	itemNotes         string

	portfolioID      string
	predictMethod    string
	predictDays      int
	predictPreflight bool

	trainTicker    string
	trainStart     string
	trainEnd       string
	sequenceLength int
	exogTickers    []string
	forecastTicker string
	forecastDays   int

	rootCmd = &cobra.Command{
		Use:   "algotrade",
		Short: "Client for the AlgoTrade forecasting service",
		Long: `algotrade manages your portfolios on an AlgoTrade server and asks it
for earnings predictions from the LSTM, ARIMA and Prophet models.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: teardown,
	}

	// --- Session ---
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE:  runLogin, // Defined in cmd_session.go
	}
	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE:  runRegister, // Defined in cmd_session.go
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE:  runLogout, // Defined in cmd_session.go
	}
	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE:  runWhoami, // Defined in cmd_session.go
	}

	// --- Portfolios ---
	portfolioCmd = &cobra.Command{
		Use:     "portfolio",
		Short:   "Manage portfolios",
		Aliases: []string{"p"},
	}
	portfolioListCmd = &cobra.Command{
		Use:   "list",
		Short: "List portfolios; the active one is marked with *",
		Args:  cobra.NoArgs,
		RunE:  runPortfolioList, // Defined in cmd_portfolio.go
	}
	portfolioCreateCmd = &cobra.Command{
		Use:   "create [name]",
		Short: "Create a portfolio and make it active",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPortfolioCreate, // Defined in cmd_portfolio.go
	}
	portfolioDeleteCmd = &cobra.Command{
		Use:   "delete [portfolio_id]",
		Short: "Delete a portfolio",
		Args:  cobra.ExactArgs(1),
		RunE:  runPortfolioDelete, // Defined in cmd_portfolio.go
	}
	portfolioSelectCmd = &cobra.Command{
		Use:   "select [portfolio_id]",
		Short: "Make a portfolio the active one",
		Args:  cobra.ExactArgs(1),
		RunE:  runPortfolioSelect, // Defined in cmd_portfolio.go
	}
	portfolioShowCmd = &cobra.Command{
		Use:   "show [portfolio_id]",
		Short: "Show the holdings of a portfolio (default: the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPortfolioShow, // Defined in cmd_portfolio.go
	}

	// --- Items ---
	itemCmd = &cobra.Command{
		Use:   "item",
		Short: "Manage the holdings of the active portfolio",
	}
	itemAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Add a holding",
		Args:  cobra.NoArgs,
		RunE:  runItemAdd, // Defined in cmd_portfolio.go
	}
	itemUpdateCmd = &cobra.Command{
		Use:   "update [item_id]",
		Short: "Replace a holding",
		Args:  cobra.ExactArgs(1),
		RunE:  runItemUpdate, // Defined in cmd_portfolio.go
	}
	itemRemoveCmd = &cobra.Command{
		Use:   "remove [item_id]",
		Short: "Remove a holding",
		Args:  cobra.ExactArgs(1),
		RunE:  runItemRemove, // Defined in cmd_portfolio.go
	}

	// --- Predictions ---
	predictCmd = &cobra.Command{
		Use:   "predict",
		Short: "Predict the earnings of the active portfolio",
		Args:  cobra.NoArgs,
		RunE:  runPredict, // Defined in cmd_predict.go
	}

	// --- Models ---
	modelCmd = &cobra.Command{
		Use:   "model",
		Short: "Train and query the single forecasting models",
	}
	modelTrainCmd = &cobra.Command{
		Use:   "train [lstm|arima|prophet]",
		Short: "Train a model for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE:  runModelTrain, // Defined in cmd_model.go
	}
	modelPredictCmd = &cobra.Command{
		Use:   "predict [lstm|arima|prophet]",
		Short: "Forecast a ticker with one model",
		Args:  cobra.ExactArgs(1),
		RunE:  runModelPredict, // Defined in cmd_model.go
	}
	modelListCmd = &cobra.Command{
		Use:   "list [lstm|arima|prophet]",
		Short: "List the tickers a model is trained for",
		Args:  cobra.ExactArgs(1),
		RunE:  runModelList, // Defined in cmd_model.go
	}

	// --- Background ---
	daemonCmd = &cobra.Command{
		Use:   "daemon",
		Short: "Keep the session alive and the portfolio cache fresh until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runDaemon, // Defined in cmd_daemon.go
	}
)

func init() {
	// session commands
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
	loginCmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Account password (read from stdin when omitted)")
	registerCmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	registerCmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	registerCmd.Flags().StringVarP(&password, "password", "p", "", "Account password (read from stdin when omitted)")
	registerCmd.Flags().StringVar(&confirmPassword, "confirm-password", "", "Repeat the password (defaults to --password)")

	// portfolio commands
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(portfolioListCmd, portfolioCreateCmd, portfolioDeleteCmd, portfolioSelectCmd, portfolioShowCmd)

	// item commands
	rootCmd.AddCommand(itemCmd)
	itemCmd.AddCommand(itemAddCmd, itemUpdateCmd, itemRemoveCmd)
	itemCmd.PersistentFlags().StringVar(&portfolioID, "portfolio", "", "Portfolio id (default: the active portfolio)")
	for _, c := range []*cobra.Command{itemAddCmd, itemUpdateCmd} {
		c.Flags().StringVarP(&itemTicker, "ticker", "t", "", "Ticker symbol")
		c.Flags().StringVarP(&itemQuantity, "quantity", "q", "", "Number of shares")
		c.Flags().StringVar(&itemPurchasePrice, "price", "", "Purchase price per share")
		c.Flags().StringVar(&itemNotes, "notes", "", "Free-form notes")
	}

	// prediction command
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringVar(&portfolioID, "portfolio", "", "Portfolio id (default: the active portfolio)")
	predictCmd.Flags().StringVarP(&predictMethod, "method", "m", "average", "Prediction method: average, lstm, arima or prophet")
	predictCmd.Flags().IntVarP(&predictDays, "days", "d", 30, "Prediction horizon in days (1-365)")
	predictCmd.Flags().BoolVar(&predictPreflight, "preflight", false, "Only check which models are missing")

	// model commands
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelTrainCmd, modelPredictCmd, modelListCmd)
	modelTrainCmd.Flags().StringVarP(&trainTicker, "ticker", "t", "", "Ticker to train on (default ^GSPC)")
	modelTrainCmd.Flags().StringVar(&trainStart, "start", "", "First day of training data (YYYY-MM-DD)")
	modelTrainCmd.Flags().StringVar(&trainEnd, "end", "", "Last day of training data (YYYY-MM-DD)")
	modelTrainCmd.Flags().IntVar(&sequenceLength, "sequence-length", 0, "LSTM input window")
	modelTrainCmd.Flags().StringSliceVar(&exogTickers, "exog", nil, "ARIMA exogenous tickers")
	modelPredictCmd.Flags().StringVarP(&forecastTicker, "ticker", "t", "", "Ticker to forecast (default ^GSPC)")
	modelPredictCmd.Flags().IntVarP(&forecastDays, "days", "d", 0, "Forecast horizon in days")
	modelPredictCmd.Flags().IntVar(&sequenceLength, "sequence-length", 0, "LSTM input window")

	// background
	rootCmd.AddCommand(daemonCmd)
}
