package validation

import (
	"github.com/Segevolp/AlgoTrade/internal/api/request"
	"github.com/Segevolp/AlgoTrade/internal/model"
)

func ValidateAlgorithm(a model.Algorithm) error {
	if !a.Valid() {
		return &Error{Fields: map[string]string{"algorithm": "algorithm must be one of: lstm arima prophet"}}
	}
	return nil
}

func ValidateTrain(a model.Algorithm, req request.TrainRequest) error {
	errors := make(map[string]string)
	if !a.Valid() {
		errors["algorithm"] = "algorithm must be one of: lstm arima prophet"
	}
	if err := structFields(req, errors); err != nil {
		return err
	}
	if _, ok := errors["end"]; !ok && req.Start != "" && req.End != "" && req.End < req.Start {
		errors["end"] = "end must not be before start"
	}
	return result(errors)
}

func ValidateForecastQuery(a model.Algorithm, q request.ForecastQuery) error {
	errors := make(map[string]string)
	if !a.Valid() {
		errors["algorithm"] = "algorithm must be one of: lstm arima prophet"
	}
	if err := structFields(q, errors); err != nil {
		return err
	}
	return result(errors)
}
