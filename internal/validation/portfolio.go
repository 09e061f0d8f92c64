package validation

import (
	"math"
	"strconv"
	"strings"

	"github.com/Segevolp/AlgoTrade/internal/api/request"
	"github.com/Segevolp/AlgoTrade/internal/model"
)

// ValidateCreatePortfolio checks the name of a new portfolio. Surrounding
// whitespace does not count towards the name.
func ValidateCreatePortfolio(req request.CreatePortfolioRequest) error {
	errors := make(map[string]string)
	req.Name = strings.TrimSpace(req.Name)
	if err := structFields(req, errors); err != nil {
		return err
	}
	return result(errors)
}

// CoerceItem turns raw form input into a submittable item: the ticker is
// upper-cased and the numeric fields are parsed. Quantity and purchase price
// must be finite and non-negative.
func CoerceItem(input model.ItemInput) (request.ItemRequest, error) {
	errors := make(map[string]string)

	req := request.ItemRequest{
		Ticker: strings.ToUpper(strings.TrimSpace(input.Ticker)),
		Notes:  strings.TrimSpace(input.Notes),
	}
	if req.Ticker == "" {
		errors["ticker"] = "ticker is required"
	}

	var msg string
	if req.Quantity, msg = parseAmount("quantity", input.Quantity); msg != "" {
		errors["quantity"] = msg
	}
	if req.PurchasePrice, msg = parseAmount("purchase_price", input.PurchasePrice); msg != "" {
		errors["purchase_price"] = msg
	}

	if err := structFields(req, errors); err != nil {
		return request.ItemRequest{}, err
	}
	if err := result(errors); err != nil {
		return request.ItemRequest{}, err
	}
	return req, nil
}

func parseAmount(field, raw string) (float64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, field + " is required"
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, field + " must be a number"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, field + " must be a finite number"
	}
	if v < 0 {
		return 0, field + " cannot be negative"
	}
	return v, ""
}
