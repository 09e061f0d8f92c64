package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Segevolp/AlgoTrade/internal/api"
	"github.com/Segevolp/AlgoTrade/internal/api/response"
	"github.com/Segevolp/AlgoTrade/internal/apperrors"
	"github.com/Segevolp/AlgoTrade/internal/model"
	"github.com/Segevolp/AlgoTrade/internal/validation"
)

// PredictionOrchestrator requests portfolio earnings predictions and classifies
// the answer as a computed result or a missing-model report. It never caches and
// never touches the portfolio cache.
type PredictionOrchestrator struct {
	gateway    Gateway
	portfolios *PortfolioStore
	models     *ModelService
	seq        *Sequencer
	log        zerolog.Logger
}

// NewPredictionOrchestrator creates a PredictionOrchestrator. portfolios and models
// are only used by Preflight.
func NewPredictionOrchestrator(gateway Gateway, portfolios *PortfolioStore, models *ModelService, seq *Sequencer, log zerolog.Logger) *PredictionOrchestrator {
	return &PredictionOrchestrator{
		gateway:    gateway,
		portfolios: portfolios,
		models:     models,
		seq:        seq,
		log:        log.With().Str("component", "prediction").Logger(),
	}
}

// RequestEarnings asks the backend to predict the portfolio's earnings over days
// using method. A missing-model answer is returned as an Unavailable outcome, not
// as an error, whatever HTTP status it came with.
func (o *PredictionOrchestrator) RequestEarnings(ctx context.Context, portfolioID string, method model.PredictionMethod, days int) (model.PredictionOutcome, error) {
	req, err := validation.ValidatePredict(portfolioID, method, days)
	if err != nil {
		return model.PredictionOutcome{}, err
	}

	ticket := o.seq.Begin(PredictTarget(portfolioID))
	path := portfolioPath(portfolioID) + "/predict"

	var resp response.PredictResponse
	err = o.gateway.Do(ctx, http.MethodPost, path, req, &resp)
	if err != nil {
		body, ok := api.UnavailableBody(err)
		if !ok {
			return model.PredictionOutcome{}, err
		}
		resp = response.PredictResponse{}
		if jsonErr := json.Unmarshal(body, &resp); jsonErr != nil {
			return model.PredictionOutcome{}, err
		}
	}

	if !o.seq.Accept(ticket) {
		return model.PredictionOutcome{}, apperrors.ErrSuperseded
	}

	if len(resp.MissingModels) > 0 {
		report := unavailableReport(method, resp, o.log)
		o.log.Info().
			Str("portfolio_id", portfolioID).
			Str("method", string(method)).
			Strs("tickers", report.MissingModels.Tickers()).
			Msg("Prediction unavailable, models missing")
		return model.PredictionOutcome{Unavailable: report}, nil
	}

	if resp.TotalMetrics == nil {
		return model.PredictionOutcome{}, missingField(http.MethodPost, path, "total_metrics")
	}

	result := &model.PredictionResult{
		Method:           resp.Method,
		Days:             resp.Days,
		TotalMetrics:     *resp.TotalMetrics,
		StockPredictions: resp.StockPredictions,
	}
	if result.Method == "" {
		result.Method = method
	}
	if result.Days == 0 {
		result.Days = days
	}
	if result.StockPredictions == nil {
		result.StockPredictions = []model.StockPrediction{}
	}
	for i := range result.StockPredictions {
		result.StockPredictions[i].Ticker = strings.ToUpper(result.StockPredictions[i].Ticker)
	}

	return model.PredictionOutcome{Result: result}, nil
}

// Preflight checks which models the prediction would need that are not trained
// yet, without requesting the prediction. It returns nil when all are trained.
func (o *PredictionOrchestrator) Preflight(ctx context.Context, portfolioID string, method model.PredictionMethod) (*model.UnavailableReport, error) {
	if !method.Valid() {
		return nil, &validation.Error{Fields: map[string]string{"method": "method must be one of: average lstm arima prophet"}}
	}
	portfolio, ok := o.portfolios.Get(portfolioID)
	if !ok {
		return nil, apperrors.ErrPortfolioNotFound
	}

	required := method.RequiredAlgorithms()
	missing, err := o.models.Availability(ctx, portfolio.Tickers(), required)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return nil, nil
	}
	return &model.UnavailableReport{RequiredAlgorithms: required, MissingModels: missing}, nil
}

// unavailableReport builds the missing-model report. Required algorithms follow
// from the method; tickers are upper-cased and each ticker's algorithms are
// de-duplicated in server order.
func unavailableReport(method model.PredictionMethod, resp response.PredictResponse, log zerolog.Logger) *model.UnavailableReport {
	missing := make(model.MissingModels, len(resp.MissingModels))
	for ticker, names := range resp.MissingModels {
		key := strings.ToUpper(strings.TrimSpace(ticker))
		for _, name := range names {
			algorithm, err := model.ParseAlgorithm(name)
			if err != nil {
				log.Warn().Str("algorithm", name).Msg("Ignoring unknown algorithm in missing models")
				continue
			}
			if !missing.Has(key, algorithm) {
				missing[key] = append(missing[key], algorithm)
			}
		}
	}

	return &model.UnavailableReport{
		RequiredAlgorithms: method.RequiredAlgorithms(),
		MissingModels:      missing,
		Message:            resp.Error,
	}
}
