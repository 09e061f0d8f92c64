package service_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"reflect"
	"testing"

	"github.com/Segevolp/AlgoTrade/internal/apperrors"
	"github.com/Segevolp/AlgoTrade/internal/model"
	"github.com/Segevolp/AlgoTrade/internal/testutil"
)

// predictionFixture logs in, seeds a portfolio with the given holdings and loads the cache.
func predictionFixture(t *testing.T, build *testutil.PortfolioBuilder) (*testEnv, model.Portfolio) {
	t.Helper()
	env, username := newLoggedInEnv(t)
	p := build.Build(t, env.fb, username)
	if _, err := env.app.Portfolios.Load(context.Background()); err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	return env, p
}

// TestPredictionOrchestrator_RequestEarnings tests the RequestEarnings method.
//
// WHY: A prediction either yields numbers or tells the user which models to
// train. Missing models are an expected outcome, not a failure, and neither
// outcome may touch the portfolio cache.
func TestPredictionOrchestrator_RequestEarnings(t *testing.T) {
	t.Run("returns the computed result when every model is trained", func(t *testing.T) {
		env, p := predictionFixture(t, testutil.NewPortfolio().
			WithItem("AAPL", 10, 100).
			WithItem("MSFT", 5, 200))
		for _, a := range model.Algorithms {
			env.fb.MarkTrained(a, "AAPL", "MSFT")
		}

		outcome, err := env.app.Predictions.RequestEarnings(context.Background(), p.ID.String(), model.MethodAverage, 30)
		if err != nil {
			t.Fatalf("RequestEarnings() returned unexpected error: %v", err)
		}

		if !outcome.Available() || outcome.Unavailable != nil {
			t.Fatalf("Expected a result, got %+v", outcome)
		}
		r := outcome.Result
		if r.Method != model.MethodAverage || r.Days != 30 {
			t.Errorf("Expected average/30, got %s/%d", r.Method, r.Days)
		}
		if float64(r.TotalMetrics.CurrentValue) != 2000 {
			t.Errorf("Expected current value 2000, got %v", r.TotalMetrics.CurrentValue)
		}
		if want := 2000 * testutil.PredictionGrowth; math.Abs(float64(r.TotalMetrics.PredictedValue)-want) > 1e-9 {
			t.Errorf("Expected predicted value %v, got %v", want, r.TotalMetrics.PredictedValue)
		}
		if len(r.StockPredictions) != 2 {
			t.Errorf("Expected 2 stock predictions, got %d", len(r.StockPredictions))
		}
	})

	t.Run("untrained lstm yields a report and leaves the store alone", func(t *testing.T) {
		env, p := predictionFixture(t, testutil.NewPortfolio().WithItem("AAPL", 10, 100))
		before := env.app.Portfolios.Portfolios()

		outcome, err := env.app.Predictions.RequestEarnings(context.Background(), p.ID.String(), model.MethodLSTM, 30)
		if err != nil {
			t.Fatalf("RequestEarnings() returned unexpected error: %v", err)
		}

		if outcome.Available() {
			t.Fatal("Expected an unavailable outcome")
		}
		report := outcome.Unavailable
		if !reflect.DeepEqual(report.RequiredAlgorithms, []model.Algorithm{model.AlgorithmLSTM}) {
			t.Errorf("Expected required [lstm], got %v", report.RequiredAlgorithms)
		}
		if !reflect.DeepEqual(report.MissingModels, model.MissingModels{"AAPL": {model.AlgorithmLSTM}}) {
			t.Errorf("Unexpected missing models: %v", report.MissingModels)
		}
		if report.Message != "Missing trained models" {
			t.Errorf("Expected server message, got %q", report.Message)
		}
		if after := env.app.Portfolios.Portfolios(); !reflect.DeepEqual(before, after) {
			t.Errorf("Portfolio cache changed: before %+v, after %+v", before, after)
		}
	})

	t.Run("average lists every algorithm", func(t *testing.T) {
		env, p := predictionFixture(t, testutil.NewPortfolio().WithItem("TSLA", 1, 250))

		outcome, err := env.app.Predictions.RequestEarnings(context.Background(), p.ID.String(), model.MethodAverage, 7)
		if err != nil {
			t.Fatalf("RequestEarnings() returned unexpected error: %v", err)
		}

		if outcome.Available() {
			t.Fatal("Expected an unavailable outcome")
		}
		if !reflect.DeepEqual(outcome.Unavailable.RequiredAlgorithms, model.Algorithms) {
			t.Errorf("Expected all algorithms required, got %v", outcome.Unavailable.RequiredAlgorithms)
		}
		if got := outcome.Unavailable.MissingModels["TSLA"]; !reflect.DeepEqual(got, model.Algorithms) {
			t.Errorf("Expected TSLA to miss every algorithm, got %v", got)
		}
	})

	t.Run("normalizes the missing model report", func(t *testing.T) {
		env, p := predictionFixture(t, testutil.NewPortfolio().WithItem("AAPL", 1, 1))
		env.fb.Respond(http.MethodPost, "/portfolios/"+p.ID.String()+"/predict", http.StatusOK,
			`{"success":true,"missing_models":{"aapl":["lstm","LSTM","xgboost"]}}`)

		outcome, err := env.app.Predictions.RequestEarnings(context.Background(), p.ID.String(), model.MethodLSTM, 30)
		if err != nil {
			t.Fatalf("RequestEarnings() returned unexpected error: %v", err)
		}

		if outcome.Available() {
			t.Fatal("Expected an unavailable outcome")
		}
		if !reflect.DeepEqual(outcome.Unavailable.MissingModels, model.MissingModels{"AAPL": {model.AlgorithmLSTM}}) {
			t.Errorf("Unexpected missing models: %v", outcome.Unavailable.MissingModels)
		}
	})

	t.Run("zero current value has no percentage", func(t *testing.T) {
		env, p := predictionFixture(t, testutil.NewPortfolio().WithItem("AAPL", 0, 100))
		env.fb.MarkTrained(model.AlgorithmProphet, "AAPL")

		outcome, err := env.app.Predictions.RequestEarnings(context.Background(), p.ID.String(), model.MethodProphet, 30)
		if err != nil {
			t.Fatalf("RequestEarnings() returned unexpected error: %v", err)
		}

		if !outcome.Available() {
			t.Fatalf("Expected a result, got %+v", outcome.Unavailable)
		}
		if outcome.Result.TotalMetrics.PercentAvailable() {
			t.Errorf("Expected no percentage, got %v", outcome.Result.TotalMetrics.ProfitLossPercent)
		}
	})

	t.Run("tolerates bare NaN in the response", func(t *testing.T) {
		env, p := predictionFixture(t, testutil.NewPortfolio().WithItem("AAPL", 1, 1))
		env.fb.Respond(http.MethodPost, "/portfolios/"+p.ID.String()+"/predict", http.StatusOK,
			`{"success":true,"method":"lstm","days":30,"stock_predictions":[{"ticker":"aapl","profit_loss_percent":NaN}],`+
				`"total_metrics":{"current_value":0,"predicted_value":0,"profit_loss":0,"profit_loss_percent":NaN}}`)

		outcome, err := env.app.Predictions.RequestEarnings(context.Background(), p.ID.String(), model.MethodLSTM, 30)
		if err != nil {
			t.Fatalf("RequestEarnings() returned unexpected error: %v", err)
		}

		if !math.IsNaN(float64(outcome.Result.TotalMetrics.ProfitLossPercent)) {
			t.Errorf("Expected NaN percentage, got %v", outcome.Result.TotalMetrics.ProfitLossPercent)
		}
		if outcome.Result.StockPredictions[0].Ticker != "AAPL" {
			t.Errorf("Expected upper-cased ticker, got %s", outcome.Result.StockPredictions[0].Ticker)
		}
	})

	t.Run("other server errors are errors", func(t *testing.T) {
		env, p := predictionFixture(t, testutil.NewPortfolio().WithItem("AAPL", 1, 1))
		env.fb.Respond(http.MethodPost, "/portfolios/"+p.ID.String()+"/predict", http.StatusInternalServerError,
			`{"success":false,"error":"model crashed"}`)

		_, err := env.app.Predictions.RequestEarnings(context.Background(), p.ID.String(), model.MethodLSTM, 30)
		if !errors.Is(err, apperrors.ErrServer) {
			t.Fatalf("Expected ErrServer, got %v", err)
		}
		if got := apperrors.Message(err); got != "model crashed" {
			t.Errorf("Expected server message, got %q", got)
		}
	})

	t.Run("invalid parameters are rejected without a request", func(t *testing.T) {
		env, p := predictionFixture(t, testutil.NewPortfolio())
		before := len(env.fb.Requests())

		tests := []struct {
			name   string
			method model.PredictionMethod
			days   int
		}{
			{"zero days", model.MethodLSTM, 0},
			{"too many days", model.MethodLSTM, 366},
			{"unknown method", model.PredictionMethod("xgboost"), 30},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := env.app.Predictions.RequestEarnings(context.Background(), p.ID.String(), tt.method, tt.days)
				if !errors.Is(err, apperrors.ErrValidation) {
					t.Errorf("Expected validation error, got %v", err)
				}
			})
		}
		if after := len(env.fb.Requests()); after != before {
			t.Errorf("Expected no request, got %d new", after-before)
		}
	})

	t.Run("a stale response is discarded", func(t *testing.T) {
		env, p := predictionFixture(t, testutil.NewPortfolio().WithItem("AAPL", 1, 1))
		env.fb.MarkTrained(model.AlgorithmLSTM, "AAPL")
		path := "/portfolios/" + p.ID.String() + "/predict"

		release := env.fb.Hold(http.MethodPost, path)
		defer release()

		staleErr := make(chan error, 1)
		go func() {
			_, err := env.app.Predictions.RequestEarnings(context.Background(), p.ID.String(), model.MethodLSTM, 10)
			staleErr <- err
		}()
		waitFor(t, "held request", func() bool {
			return env.fb.CountRequests(http.MethodPost, path) == 1
		})

		outcome, err := env.app.Predictions.RequestEarnings(context.Background(), p.ID.String(), model.MethodLSTM, 20)
		if err != nil || outcome.Result.Days != 20 {
			t.Fatalf("Expected the newer prediction to succeed, got %+v, %v", outcome, err)
		}
		release()

		if err := <-staleErr; !errors.Is(err, apperrors.ErrSuperseded) {
			t.Errorf("Expected ErrSuperseded for the older request, got %v", err)
		}
	})
}

// TestPredictionOrchestrator_Preflight tests the Preflight method.
func TestPredictionOrchestrator_Preflight(t *testing.T) {
	env, p := predictionFixture(t, testutil.NewPortfolio().
		WithItem("AAPL", 1, 1).
		WithItem("^GSPC", 1, 1))
	env.fb.MarkTrained(model.AlgorithmLSTM, "AAPL", "^GSPC")

	t.Run("nothing missing", func(t *testing.T) {
		report, err := env.app.Predictions.Preflight(context.Background(), p.ID.String(), model.MethodLSTM)
		if err != nil {
			t.Fatalf("Preflight() returned unexpected error: %v", err)
		}
		if report != nil {
			t.Errorf("Expected no report, got %+v", report)
		}
	})

	t.Run("average reports the untrained algorithms", func(t *testing.T) {
		report, err := env.app.Predictions.Preflight(context.Background(), p.ID.String(), model.MethodAverage)
		if err != nil {
			t.Fatalf("Preflight() returned unexpected error: %v", err)
		}
		want := model.MissingModels{
			"AAPL":  {model.AlgorithmARIMA, model.AlgorithmProphet},
			"^GSPC": {model.AlgorithmARIMA, model.AlgorithmProphet},
		}
		if report == nil || !reflect.DeepEqual(report.MissingModels, want) {
			t.Errorf("Expected %v, got %+v", want, report)
		}
	})

	t.Run("uncached portfolio", func(t *testing.T) {
		_, err := env.app.Predictions.Preflight(context.Background(), testutil.MakeID(), model.MethodLSTM)
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			t.Errorf("Expected ErrPortfolioNotFound, got %v", err)
		}
	})
}
