package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Algorithm is one of the independently trained forecasting models.
type Algorithm string

const (
	AlgorithmLSTM    Algorithm = "lstm"
	AlgorithmARIMA   Algorithm = "arima"
	AlgorithmProphet Algorithm = "prophet"
)

// Algorithms lists every algorithm in the order the backend reports them.
var Algorithms = []Algorithm{AlgorithmLSTM, AlgorithmARIMA, AlgorithmProphet}

// ParseAlgorithm accepts any casing of a known algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown algorithm %q", s)
	}
	return a, nil
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmLSTM, AlgorithmARIMA, AlgorithmProphet:
		return true
	}
	return false
}

// PredictionMethod selects which algorithm(s) an earnings prediction uses.
type PredictionMethod string

const (
	MethodAverage PredictionMethod = "average"
	MethodLSTM    PredictionMethod = "lstm"
	MethodARIMA   PredictionMethod = "arima"
	MethodProphet PredictionMethod = "prophet"
)

// ParsePredictionMethod accepts any casing of a known method name.
func ParsePredictionMethod(s string) (PredictionMethod, error) {
	m := PredictionMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown prediction method %q", s)
	}
	return m, nil
}

// Valid reports whether m is a known method.
func (m PredictionMethod) Valid() bool {
	switch m {
	case MethodAverage, MethodLSTM, MethodARIMA, MethodProphet:
		return true
	}
	return false
}

// RequiredAlgorithms returns the algorithms that must have a trained model for m.
// "average" needs all of them.
func (m PredictionMethod) RequiredAlgorithms() []Algorithm {
	if m == MethodAverage {
		out := make([]Algorithm, len(Algorithms))
		copy(out, Algorithms)
		return out
	}
	if a := Algorithm(m); a.Valid() {
		return []Algorithm{a}
	}
	return nil
}

// Float is a float64 that also decodes the non-finite spellings a Python JSON
// encoder produces ("NaN", "Infinity", "-Infinity", quoted or bare) and null (as NaN).
type Float float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = Float(math.NaN())
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "nan":
		*f = Float(math.NaN())
		return nil
	case "infinity", "+infinity", "inf", "+inf":
		*f = Float(math.Inf(1))
		return nil
	case "-infinity", "-inf":
		*f = Float(math.Inf(-1))
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", raw, err)
	}
	*f = Float(v)
	return nil
}

// MarshalJSON implements json.Marshaler. Non-finite values are written as the
// quoted spellings UnmarshalJSON accepts.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
}

// Finite reports whether f is neither NaN nor infinite.
func (f Float) Finite() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// TotalMetrics summarizes the whole portfolio for a successful prediction.
type TotalMetrics struct {
	CurrentValue      Float `json:"current_value"`
	PredictedValue    Float `json:"predicted_value"`
	ProfitLoss        Float `json:"profit_loss"`
	ProfitLossPercent Float `json:"profit_loss_percent"`
}

// PercentAvailable reports whether the percentage can be shown. It is undefined
// when the current value is zero.
func (m TotalMetrics) PercentAvailable() bool {
	return m.ProfitLossPercent.Finite() && float64(m.CurrentValue) != 0
}

// StockPrediction is the per-holding result of a successful prediction.
type StockPrediction struct {
	Ticker            string `json:"ticker"`
	Quantity          Float  `json:"quantity"`
	PurchasePrice     Float  `json:"purchase_price"`
	PredictedPrice    Float  `json:"predicted_price"`
	CurrentValue      Float  `json:"current_value"`
	PredictedValue    Float  `json:"predicted_value"`
	ProfitLoss        Float  `json:"profit_loss"`
	ProfitLossPercent Float  `json:"profit_loss_percent"`
}

// PredictionResult is the computed variant of a prediction outcome.
type PredictionResult struct {
	Method           PredictionMethod  `json:"method"`
	Days             int               `json:"days"`
	TotalMetrics     TotalMetrics      `json:"total_metrics"`
	StockPredictions []StockPrediction `json:"stock_predictions"`
}

// MissingModels maps a ticker to the algorithms that have no trained model for it.
type MissingModels map[string][]Algorithm

// Tickers returns the tickers in the report in sorted order.
func (m MissingModels) Tickers() []string {
	tickers := make([]string, 0, len(m))
	for t := range m {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)
	return tickers
}

// Has reports whether the report lists algorithm a as missing for ticker.
func (m MissingModels) Has(ticker string, a Algorithm) bool {
	for _, got := range m[strings.ToUpper(ticker)] {
		if got == a {
			return true
		}
	}
	return false
}

// UnavailableReport is the missing-model variant of a prediction outcome.
type UnavailableReport struct {
	RequiredAlgorithms []Algorithm   `json:"required_algorithms"`
	MissingModels      MissingModels `json:"missing_models"`
	Message            string        `json:"error,omitempty"`
}

// PredictionOutcome is a tagged union: exactly one of Result and Unavailable is set.
type PredictionOutcome struct {
	Result      *PredictionResult
	Unavailable *UnavailableReport
}

// Available reports whether the outcome carries a computed result.
func (o PredictionOutcome) Available() bool {
	return o.Result != nil
}
