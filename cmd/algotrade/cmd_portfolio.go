package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Segevolp/AlgoTrade/internal/model"
)

func runPortfolioList(cmd *cobra.Command, _ []string) error {
	if err := loadPortfolios(cmd.Context()); err != nil {
		return errors.New(describe(err))
	}

	portfolios := application.Portfolios.Portfolios()
	if len(portfolios) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No portfolios yet")
		return nil
	}
	active, _ := application.Portfolios.Active()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tITEMS\tVALUE")
	for _, p := range portfolios {
		marker := ""
		if p.ID == active.ID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\n", marker, p.ID, p.Name, len(p.Items), application.Portfolios.ComputeValue(p))
	}
	return w.Flush()
}

func runPortfolioCreate(cmd *cobra.Command, args []string) error {
	if err := loadPortfolios(cmd.Context()); err != nil {
		return errors.New(describe(err))
	}

	p, err := application.Portfolios.Create(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return errors.New(describe(err))
	}
	if err := saveSelection(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created portfolio %s (%s)\n", p.Name, p.ID)
	return nil
}

func runPortfolioDelete(cmd *cobra.Command, args []string) error {
	if err := loadPortfolios(cmd.Context()); err != nil {
		return errors.New(describe(err))
	}

	if err := application.Portfolios.Remove(cmd.Context(), args[0]); err != nil {
		return errors.New(describe(err))
	}
	if err := saveSelection(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted portfolio %s\n", args[0])
	return nil
}

func runPortfolioSelect(cmd *cobra.Command, args []string) error {
	if err := loadPortfolios(cmd.Context()); err != nil {
		return errors.New(describe(err))
	}

	if err := application.Portfolios.Select(args[0]); err != nil {
		return errors.New(describe(err))
	}
	if err := saveSelection(cmd.Context()); err != nil {
		return err
	}
	active, _ := application.Portfolios.Active()
	fmt.Fprintf(cmd.OutOrStdout(), "Active portfolio: %s (%s)\n", active.Name, active.ID)
	return nil
}

func runPortfolioShow(cmd *cobra.Command, args []string) error {
	if err := loadPortfolios(cmd.Context()); err != nil {
		return errors.New(describe(err))
	}

	explicit := ""
	if len(args) == 1 {
		explicit = args[0]
	}
	id, err := resolvePortfolio(explicit)
	if err != nil {
		return errors.New(describe(err))
	}
	p, ok := application.Portfolios.Get(id)
	if !ok {
		return fmt.Errorf("portfolio %s not found", id)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", p.Name, p.ID)
	if created, ok := p.CreatedTime(); ok {
		fmt.Fprintf(out, "Created %s\n", created.Format("2006-01-02"))
	}
	if len(p.Items) == 0 {
		fmt.Fprintln(out, "No holdings")
		return nil
	}
	printItems(cmd, p)
	fmt.Fprintf(out, "Total value: %.2f\n", application.Portfolios.ComputeValue(p))
	return nil
}

func printItems(cmd *cobra.Command, p model.Portfolio) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTICKER\tQUANTITY\tPRICE\tVALUE\tNOTES")
	for _, item := range p.Items {
		fmt.Fprintf(w, "%s\t%s\t%g\t%.2f\t%.2f\t%s\n",
			item.ID, item.Ticker, item.Quantity, item.PurchasePrice, item.Quantity*item.PurchasePrice, item.Notes)
	}
	_ = w.Flush()
}

func itemInput() model.ItemInput {
	return model.ItemInput{
		Ticker:        itemTicker,
		Quantity:      itemQuantity,
		PurchasePrice: itemPurchasePrice,
		Notes:         itemNotes,
	}
}

func runItemAdd(cmd *cobra.Command, _ []string) error {
	if err := loadPortfolios(cmd.Context()); err != nil {
		return errors.New(describe(err))
	}
	id, err := resolvePortfolio(portfolioID)
	if err != nil {
		return errors.New(describe(err))
	}

	item, err := application.Portfolios.AddItem(cmd.Context(), id, itemInput())
	if err != nil {
		return errors.New(describe(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s x%g @ %.2f (%s)\n", item.Ticker, item.Quantity, item.PurchasePrice, item.ID)
	return nil
}

func runItemUpdate(cmd *cobra.Command, args []string) error {
	if err := loadPortfolios(cmd.Context()); err != nil {
		return errors.New(describe(err))
	}
	id, err := resolvePortfolio(portfolioID)
	if err != nil {
		return errors.New(describe(err))
	}

	item, err := application.Portfolios.UpdateItem(cmd.Context(), id, args[0], itemInput())
	if err != nil {
		return errors.New(describe(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s x%g @ %.2f\n", item.ID, item.Ticker, item.Quantity, item.PurchasePrice)
	return nil
}

func runItemRemove(cmd *cobra.Command, args []string) error {
	if err := loadPortfolios(cmd.Context()); err != nil {
		return errors.New(describe(err))
	}
	id, err := resolvePortfolio(portfolioID)
	if err != nil {
		return errors.New(describe(err))
	}

	if err := application.Portfolios.RemoveItem(cmd.Context(), id, args[0]); err != nil {
		return errors.New(describe(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed item %s\n", args[0])
	return nil
}
