// Package response defines the JSON envelopes of the forecasting backend and
// helpers for writing them. The client decodes into these types; the in-memory
// test backend encodes them.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Segevolp/AlgoTrade/internal/model"
)

// Envelope is the common part of every backend response.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK returns a successful envelope.
func OK() Envelope {
	return Envelope{Success: true}
}

// LoginResponse is the body of POST /login.
type LoginResponse struct {
	Envelope
	AccessToken string      `json:"access_token,omitempty"`
	User        *model.User `json:"user,omitempty"`
}

// ProfileResponse is the body of GET /profile.
type ProfileResponse struct {
	Envelope
	User *model.User `json:"user,omitempty"`
}

// PortfoliosResponse is the body of GET /portfolios.
type PortfoliosResponse struct {
	Envelope
	Portfolios []model.Portfolio `json:"portfolios"`
}

// PortfolioResponse is the body of POST /portfolios.
type PortfolioResponse struct {
	Envelope
	Portfolio *model.Portfolio `json:"portfolio,omitempty"`
}

// ItemResponse is the body of the add-item and update-item calls.
type ItemResponse struct {
	Envelope
	Item *model.PortfolioItem `json:"item,omitempty"`
}

// PredictResponse is the body of POST /portfolios/{id}/predict. Depending on
// Success it carries either the computed result or the missing-model report.
type PredictResponse struct {
	Envelope
	Method             model.PredictionMethod  `json:"method,omitempty"`
	Days               int                     `json:"days,omitempty"`
	StockPredictions   []model.StockPrediction `json:"stock_predictions,omitempty"`
	TotalMetrics       *model.TotalMetrics     `json:"total_metrics,omitempty"`
	MissingModels      map[string][]string     `json:"missing_models,omitempty"`
	RequiredAlgorithms []string                `json:"required_algorithms,omitempty"`
}

// ForecastData is the data block of GET /{algorithm}/predict. LSTM and Prophet
// report "forecast"; ARIMA reports "forecast_mean" with a confidence interval.
type ForecastData struct {
	Dates          []string      `json:"dates"`
	Forecast       []model.Float `json:"forecast,omitempty"`
	ForecastLower  []model.Float `json:"forecast_lower,omitempty"`
	ForecastUpper  []model.Float `json:"forecast_upper,omitempty"`
	ForecastMean   []model.Float `json:"forecast_mean,omitempty"`
	ForecastCILow  []model.Float `json:"forecast_ci_lower,omitempty"`
	ForecastCIHigh []model.Float `json:"forecast_ci_upper,omitempty"`
}

// ForecastResponse is the body of GET /{algorithm}/predict.
type ForecastResponse struct {
	Envelope
	Data *ForecastData `json:"data,omitempty"`
}

// ModelsResponse is the body of GET /{algorithm}/models.
type ModelsResponse struct {
	Envelope
	Tickers []string `json:"tickers"`
}

// RespondJSON sends a JSON response with the given status code.
// If data is nil, only the status code is sent.
// Logs encoding errors but does not fail the response.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("failed to encode JSON response")
		}
	}
}

// RespondError sends a failed envelope carrying message with the given status code.
//
// Example:
//
//	response.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, Envelope{Success: false, Error: message})
}
