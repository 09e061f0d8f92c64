package validation

import (
	"github.com/Segevolp/AlgoTrade/internal/api/request"
	"github.com/Segevolp/AlgoTrade/internal/model"
)

// Prediction horizon bounds, in days.
const (
	MinPredictionDays = 1
	MaxPredictionDays = 365
)

// ValidatePredict checks the method and horizon of an earnings prediction.
func ValidatePredict(portfolioID string, method model.PredictionMethod, days int) (request.PredictRequest, error) {
	errors := make(map[string]string)
	if err := ValidateID("portfolio_id", portfolioID); err != nil {
		errors["portfolio_id"] = err.(*Error).Field("portfolio_id")
	}
	if !method.Valid() {
		errors["method"] = "method must be one of: average lstm arima prophet"
	}
	if days < MinPredictionDays || days > MaxPredictionDays {
		errors["days"] = "days must be between 1 and 365"
	}

	req := request.PredictRequest{Method: string(method), Days: days}
	if err := structFields(req, errors); err != nil {
		return request.PredictRequest{}, err
	}
	if err := result(errors); err != nil {
		return request.PredictRequest{}, err
	}
	return req, nil
}
