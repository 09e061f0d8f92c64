package model_test

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/Segevolp/AlgoTrade/internal/model"
)

func TestFloat_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`1.25`, 1.25},
		{`"2.5"`, 2.5},
		{`"NaN"`, math.NaN()},
		{`null`, math.NaN()},
		{`"Infinity"`, math.Inf(1)},
		{`"-Infinity"`, math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f model.Float
			if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
				t.Fatalf("Unmarshal(%s) returned unexpected error: %v", tt.in, err)
			}
			got := float64(f)
			if math.IsNaN(tt.want) {
				if !math.IsNaN(got) {
					t.Errorf("Expected NaN, got %v", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		var f model.Float
		if err := json.Unmarshal([]byte(`"abc"`), &f); err == nil {
			t.Error("Expected error for non-numeric string")
		}
	})
}

func TestFloat_MarshalJSON(t *testing.T) {
	data, err := json.Marshal([]model.Float{1.5, model.Float(math.NaN()), model.Float(math.Inf(-1))})
	if err != nil {
		t.Fatalf("Marshal() returned unexpected error: %v", err)
	}
	if string(data) != `[1.5,"NaN","-Infinity"]` {
		t.Errorf("Unexpected encoding: %s", data)
	}
}

func TestID_UnmarshalJSON(t *testing.T) {
	var p model.Portfolio
	if err := json.Unmarshal([]byte(`{"id":42,"name":"Tech","items":[{"id":"a1","ticker":"aapl"}]}`), &p); err != nil {
		t.Fatalf("Unmarshal() returned unexpected error: %v", err)
	}
	if p.ID != "42" || p.Items[0].ID != "a1" {
		t.Errorf("Expected ids 42 and a1, got %s and %s", p.ID, p.Items[0].ID)
	}
}

func TestPortfolio_CreatedTime(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2025-05-22T10:30:00", true},
		{"2025-05-22T10:30:00.123456", true},
		{"2025-05-22T10:30:00Z", true},
		{"Thu, 22 May 2025 10:30:00 GMT", true},
		{"", false},
		{"yesterday", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			created, ok := model.Portfolio{CreatedAt: tt.in}.CreatedTime()
			if ok != tt.ok {
				t.Fatalf("CreatedTime(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && created.Day() != 22 {
				t.Errorf("Expected day 22, got %v", created)
			}
		})
	}
}

func TestPortfolio_Tickers(t *testing.T) {
	p := model.Portfolio{Items: []model.PortfolioItem{{Ticker: "AAPL"}, {Ticker: "MSFT"}, {Ticker: "AAPL"}}}
	if got := p.Tickers(); !reflect.DeepEqual(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("Expected [AAPL MSFT], got %v", got)
	}
}

func TestPortfolio_Clone(t *testing.T) {
	p := model.Portfolio{ID: "1", Items: []model.PortfolioItem{{Ticker: "AAPL"}}}
	c := p.Clone()
	c.Items[0].Ticker = "MSFT"
	if p.Items[0].Ticker != "AAPL" {
		t.Error("Clone shares the items slice")
	}
}

func TestPredictionMethod_RequiredAlgorithms(t *testing.T) {
	tests := []struct {
		method model.PredictionMethod
		want   []model.Algorithm
	}{
		{model.MethodAverage, []model.Algorithm{model.AlgorithmLSTM, model.AlgorithmARIMA, model.AlgorithmProphet}},
		{model.MethodLSTM, []model.Algorithm{model.AlgorithmLSTM}},
		{model.MethodARIMA, []model.Algorithm{model.AlgorithmARIMA}},
		{model.MethodProphet, []model.Algorithm{model.AlgorithmProphet}},
		{model.PredictionMethod("median"), nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			if got := tt.method.RequiredAlgorithms(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RequiredAlgorithms() = %v, want %v", got, tt.want)
			}
		})
	}

	// The result must not alias the package-level list.
	got := model.MethodAverage.RequiredAlgorithms()
	got[0] = "changed"
	if model.Algorithms[0] != model.AlgorithmLSTM {
		t.Error("RequiredAlgorithms returned the shared slice")
	}
}

func TestParse(t *testing.T) {
	if m, err := model.ParsePredictionMethod(" Average "); err != nil || m != model.MethodAverage {
		t.Errorf("ParsePredictionMethod() = %v, %v", m, err)
	}
	if _, err := model.ParsePredictionMethod("best"); err == nil {
		t.Error("Expected error for unknown method")
	}
	if a, err := model.ParseAlgorithm("ARIMA"); err != nil || a != model.AlgorithmARIMA {
		t.Errorf("ParseAlgorithm() = %v, %v", a, err)
	}
}

func TestTotalMetrics_PercentAvailable(t *testing.T) {
	tests := []struct {
		name string
		m    model.TotalMetrics
		want bool
	}{
		{"regular", model.TotalMetrics{CurrentValue: 100, ProfitLossPercent: 10}, true},
		{"zero base", model.TotalMetrics{CurrentValue: 0, ProfitLossPercent: 0}, false},
		{"NaN", model.TotalMetrics{CurrentValue: 100, ProfitLossPercent: model.Float(math.NaN())}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.PercentAvailable(); got != tt.want {
				t.Errorf("PercentAvailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingModels(t *testing.T) {
	m := model.MissingModels{"MSFT": {model.AlgorithmARIMA}, "AAPL": {model.AlgorithmLSTM}}

	if got := m.Tickers(); !reflect.DeepEqual(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("Tickers() = %v", got)
	}
	if !m.Has("aapl", model.AlgorithmLSTM) {
		t.Error("Expected case-insensitive lookup to find AAPL/lstm")
	}
	if m.Has("AAPL", model.AlgorithmProphet) {
		t.Error("Did not expect AAPL/prophet")
	}
}

func TestModelDirName(t *testing.T) {
	tests := map[string]string{
		"^GSPC": "GSPC",
		"BRK/B": "BRK_B",
		"AAPL":  "AAPL",
	}
	for in, want := range tests {
		if got := model.ModelDirName(in); got != want {
			t.Errorf("ModelDirName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSessionState_String(t *testing.T) {
	if model.SessionAuthenticated.String() != "authenticated" || model.SessionState(9).String() != "unknown" {
		t.Error("Unexpected session state names")
	}
}
