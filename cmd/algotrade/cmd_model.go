package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Segevolp/AlgoTrade/internal/model"
)

func runModelTrain(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	a, err := model.ParseAlgorithm(args[0])
	if err != nil {
		return err
	}

	params := model.TrainParams{
		Ticker:         trainTicker,
		Start:          trainStart,
		End:            trainEnd,
		SequenceLength: sequenceLength,
		ExogTickers:    exogTickers,
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Training %s, this can take a few minutes...\n", a)
	msg, err := application.Models.Train(cmd.Context(), a, params)
	if err != nil {
		return errors.New(describe(err))
	}
	if msg == "" {
		msg = "Training finished"
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

func runModelPredict(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	a, err := model.ParseAlgorithm(args[0])
	if err != nil {
		return err
	}

	forecast, err := application.Models.Predict(cmd.Context(), a, model.PredictParams{
		Ticker:         forecastTicker,
		Days:           forecastDays,
		SequenceLength: sequenceLength,
	})
	if err != nil {
		return errors.New(describe(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s forecast for %s\n", forecast.Algorithm, forecast.Ticker)
	for i, date := range forecast.Dates {
		if i >= len(forecast.Values) {
			break
		}
		line := fmt.Sprintf("%s  %s", date, number(forecast.Values[i]))
		if i < len(forecast.Lower) && i < len(forecast.Upper) {
			line += fmt.Sprintf("  [%s, %s]", number(forecast.Lower[i]), number(forecast.Upper[i]))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runModelList(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	a, err := model.ParseAlgorithm(args[0])
	if err != nil {
		return err
	}

	tickers, err := application.Models.Models(cmd.Context(), a)
	if err != nil {
		return errors.New(describe(err))
	}
	if len(tickers) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No trained %s models\n", a)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tickers, "\n"))
	return nil
}
