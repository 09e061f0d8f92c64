package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Segevolp/AlgoTrade/internal/api/request"
	"github.com/Segevolp/AlgoTrade/internal/api/response"
	"github.com/Segevolp/AlgoTrade/internal/model"
	"github.com/Segevolp/AlgoTrade/internal/validation"
)

// Training and forecasting defaults per algorithm.
const (
	DefaultTicker         = "^GSPC"
	DefaultSequenceLength = 60
	DefaultLSTMDays       = 20
	DefaultForecastDays   = 10
)

var (
	trainDefaults = map[model.Algorithm]model.TrainParams{
		model.AlgorithmLSTM: {
			Ticker:         DefaultTicker,
			Start:          "2010-01-01",
			End:            "2025-05-22",
			SequenceLength: DefaultSequenceLength,
		},
		model.AlgorithmARIMA: {
			Ticker:      DefaultTicker,
			Start:       "2020-01-01",
			End:         "2025-04-08",
			ExogTickers: []string{"GLD", "QQQ", "^TNX"},
		},
		model.AlgorithmProphet: {
			Ticker: DefaultTicker,
			Start:  "2015-01-01",
			End:    "2025-05-22",
		},
	}
)

// ModelService drives the single-model endpoints: training, forecasting and
// listing the tickers each algorithm has a trained model for.
type ModelService struct {
	gateway Gateway
	log     zerolog.Logger
}

// NewModelService creates a ModelService.
func NewModelService(gateway Gateway, log zerolog.Logger) *ModelService {
	return &ModelService{
		gateway: gateway,
		log:     log.With().Str("component", "models").Logger(),
	}
}

// TrainDefaults returns the parameters Train uses for fields left empty.
func TrainDefaults(a model.Algorithm) model.TrainParams {
	d := trainDefaults[a]
	d.ExogTickers = append([]string(nil), d.ExogTickers...)
	return d
}

// Train trains algorithm a on params and returns the backend's message. Empty
// fields take the algorithm's defaults; sequence length only applies to LSTM and
// exogenous tickers only to ARIMA.
func (s *ModelService) Train(ctx context.Context, a model.Algorithm, params model.TrainParams) (string, error) {
	if err := validation.ValidateAlgorithm(a); err != nil {
		return "", err
	}

	d := TrainDefaults(a)
	req := request.TrainRequest{
		Ticker: firstNonEmpty(strings.ToUpper(strings.TrimSpace(params.Ticker)), d.Ticker),
		Start:  firstNonEmpty(strings.TrimSpace(params.Start), d.Start),
		End:    firstNonEmpty(strings.TrimSpace(params.End), d.End),
	}
	switch a {
	case model.AlgorithmLSTM:
		req.SequenceLength = params.SequenceLength
		if req.SequenceLength == 0 {
			req.SequenceLength = d.SequenceLength
		}
	case model.AlgorithmARIMA:
		req.ExogTickers = d.ExogTickers
		if len(params.ExogTickers) > 0 {
			req.ExogTickers = make([]string, 0, len(params.ExogTickers))
			for _, t := range params.ExogTickers {
				if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
					req.ExogTickers = append(req.ExogTickers, t)
				}
			}
		}
	}
	if err := validation.ValidateTrain(a, req); err != nil {
		return "", err
	}

	var resp response.Envelope
	if err := s.gateway.Do(ctx, http.MethodPost, "/"+string(a)+"/train", req, &resp); err != nil {
		return "", err
	}

	s.log.Info().Str("algorithm", string(a)).Str("ticker", req.Ticker).Msg("Model trained")
	return firstNonEmpty(resp.Message, "Model trained"), nil
}

// Predict fetches a single-model forecast for params.Ticker. Zero fields take the
// algorithm's defaults.
func (s *ModelService) Predict(ctx context.Context, a model.Algorithm, params model.PredictParams) (model.Forecast, error) {
	if err := validation.ValidateAlgorithm(a); err != nil {
		return model.Forecast{}, err
	}

	q := request.ForecastQuery{
		Ticker:         firstNonEmpty(strings.ToUpper(strings.TrimSpace(params.Ticker)), DefaultTicker),
		Days:           params.Days,
		SequenceLength: params.SequenceLength,
	}
	if q.Days == 0 {
		q.Days = DefaultForecastDays
		if a == model.AlgorithmLSTM {
			q.Days = DefaultLSTMDays
		}
	}
	if a == model.AlgorithmLSTM && q.SequenceLength == 0 {
		q.SequenceLength = DefaultSequenceLength
	}
	if a != model.AlgorithmLSTM {
		q.SequenceLength = 0
	}
	if err := validation.ValidateForecastQuery(a, q); err != nil {
		return model.Forecast{}, err
	}

	values := url.Values{}
	values.Set("ticker", q.Ticker)
	values.Set("days", strconv.Itoa(q.Days))
	if q.SequenceLength > 0 {
		values.Set("sequence_length", strconv.Itoa(q.SequenceLength))
	}
	path := "/" + string(a) + "/predict?" + values.Encode()

	var resp response.ForecastResponse
	if err := s.gateway.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return model.Forecast{}, err
	}
	if resp.Data == nil {
		return model.Forecast{}, missingField(http.MethodGet, path, "data")
	}

	forecast := model.Forecast{
		Algorithm: a,
		Ticker:    q.Ticker,
		Dates:     resp.Data.Dates,
		Values:    resp.Data.Forecast,
		Lower:     resp.Data.ForecastLower,
		Upper:     resp.Data.ForecastUpper,
	}
	if a == model.AlgorithmARIMA && len(resp.Data.ForecastMean) > 0 {
		forecast.Values = resp.Data.ForecastMean
		forecast.Lower = resp.Data.ForecastCILow
		forecast.Upper = resp.Data.ForecastCIHigh
	}
	return forecast, nil
}

// Models lists the tickers algorithm a has a trained model for, as reported by
// the backend (model directory names).
func (s *ModelService) Models(ctx context.Context, a model.Algorithm) ([]string, error) {
	if err := validation.ValidateAlgorithm(a); err != nil {
		return nil, err
	}

	var resp response.ModelsResponse
	if err := s.gateway.Do(ctx, http.MethodGet, "/"+string(a)+"/models", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Tickers == nil {
		return []string{}, nil
	}
	return resp.Tickers, nil
}

// Availability reports, for each ticker, which of algorithms have no trained model.
// Tickers with every model trained are absent from the result. The model lists are
// fetched concurrently; the first failure cancels the rest.
func (s *ModelService) Availability(ctx context.Context, tickers []string, algorithms []model.Algorithm) (model.MissingModels, error) {
	missing := make(model.MissingModels)
	if len(tickers) == 0 || len(algorithms) == 0 {
		return missing, nil
	}

	var mu sync.Mutex
	trained := make(map[model.Algorithm]map[string]struct{}, len(algorithms))

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range algorithms {
		g.Go(func() error {
			names, err := s.Models(gctx, a)
			if err != nil {
				return err
			}
			set := make(map[string]struct{}, len(names))
			for _, name := range names {
				set[strings.ToUpper(name)] = struct{}{}
			}
			mu.Lock()
			trained[a] = set
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, ticker := range tickers {
		ticker = strings.ToUpper(ticker)
		dir := strings.ToUpper(model.ModelDirName(ticker))
		for _, a := range algorithms {
			if _, ok := trained[a][dir]; ok {
				continue
			}
			if !missing.Has(ticker, a) {
				missing[ticker] = append(missing[ticker], a)
			}
		}
	}
	return missing, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
