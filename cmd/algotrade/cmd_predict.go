package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Segevolp/AlgoTrade/internal/model"
)

func runPredict(cmd *cobra.Command, _ []string) error {
	if err := loadPortfolios(cmd.Context()); err != nil {
		return errors.New(describe(err))
	}
	id, err := resolvePortfolio(portfolioID)
	if err != nil {
		return errors.New(describe(err))
	}
	method, err := model.ParsePredictionMethod(predictMethod)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if predictPreflight {
		report, err := application.Predictions.Preflight(cmd.Context(), id, method)
		if err != nil {
			return errors.New(describe(err))
		}
		if report == nil {
			fmt.Fprintf(out, "All models for %s are trained\n", method)
			return nil
		}
		printRemediation(out, report)
		return nil
	}

	outcome, err := application.Predictions.RequestEarnings(cmd.Context(), id, method, predictDays)
	if err != nil {
		return errors.New(describe(err))
	}
	if !outcome.Available() {
		printRemediation(out, outcome.Unavailable)
		return nil
	}
	printResult(out, outcome.Result)
	return nil
}

func printResult(out io.Writer, r *model.PredictionResult) {
	fmt.Fprintf(out, "Prediction (%s, %d days)\n", r.Method, r.Days)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tQUANTITY\tPURCHASE\tPREDICTED\tVALUE\tPREDICTED VALUE\tP/L\tP/L %")
	for _, s := range r.StockPredictions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Ticker, number(s.Quantity), number(s.PurchasePrice), number(s.PredictedPrice),
			number(s.CurrentValue), number(s.PredictedValue), number(s.ProfitLoss), percent(s.ProfitLossPercent, s.CurrentValue))
	}
	_ = w.Flush()

	t := r.TotalMetrics
	fmt.Fprintf(out, "Current value:   %s\n", number(t.CurrentValue))
	fmt.Fprintf(out, "Predicted value: %s\n", number(t.PredictedValue))
	fmt.Fprintf(out, "Profit/loss:     %s (%s)\n", number(t.ProfitLoss), percent(t.ProfitLossPercent, t.CurrentValue))
}

// printRemediation lists the training runs that would make the prediction possible.
func printRemediation(out io.Writer, report *model.UnavailableReport) {
	if report.Message != "" {
		fmt.Fprintln(out, report.Message)
	}
	required := make([]string, len(report.RequiredAlgorithms))
	for i, a := range report.RequiredAlgorithms {
		required[i] = string(a)
	}
	fmt.Fprintf(out, "Required models: %s\n", strings.Join(required, ", "))
	fmt.Fprintln(out, "Train the missing models first:")
	for _, ticker := range report.MissingModels.Tickers() {
		for _, a := range report.MissingModels[ticker] {
			fmt.Fprintf(out, "  algotrade model train %s --ticker %s\n", a, ticker)
		}
	}
}

func number(f model.Float) string {
	if !f.Finite() {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", float64(f))
}

func percent(p, base model.Float) string {
	if !p.Finite() || float64(base) == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", float64(p))
}
