package model

import "strings"

// Forecast is a single-model price forecast. Lower and Upper are empty for
// algorithms that do not report a confidence band (LSTM).
type Forecast struct {
	Algorithm Algorithm `json:"algorithm"`
	Ticker    string    `json:"ticker,omitempty"`
	Dates     []string  `json:"dates"`
	Values    []Float   `json:"forecast"`
	Lower     []Float   `json:"lower,omitempty"`
	Upper     []Float   `json:"upper,omitempty"`
}

// Last returns the final forecast value, which is what the portfolio
// prediction uses as the predicted price.
func (f Forecast) Last() (Float, bool) {
	if len(f.Values) == 0 {
		return 0, false
	}
	return f.Values[len(f.Values)-1], true
}

// TrainParams are the optional training parameters. Zero values are replaced by
// the per-algorithm defaults.
type TrainParams struct {
	Ticker         string   `json:"ticker"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	SequenceLength int      `json:"sequence_length,omitempty"`
	ExogTickers    []string `json:"exog_tickers,omitempty"`
}

// PredictParams are the optional single-model prediction parameters.
type PredictParams struct {
	Ticker         string
	Days           int
	SequenceLength int
}

// ModelDirName returns the directory name the backend stores a ticker's model
// under: "^" is dropped and "/" becomes "_".
func ModelDirName(ticker string) string {
	return strings.ReplaceAll(strings.ReplaceAll(ticker, "^", ""), "/", "_")
}
