package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"isuclicker-api/internal/catalog"
	"isuclicker-api/internal/config"
	"isuclicker-api/internal/numeric"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear every room of the configured ledger store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cfg, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Service.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset failed: %w", err)
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"status": "reset", "ledger": cfg.Ledger.Type})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %s ledger\n", cfg.Ledger.Type)
			return nil
		},
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <room>",
		Short: "Print the current status of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			status, err := app.Service.Status(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("status of %q: %w", args[0], err)
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "room %q at %d\n", args[0], status.Time)
			fmt.Fprintf(out, "milli_isu %s, total_power %s\n",
				status.Schedule[0].MilliIsu, status.Schedule[0].TotalPower)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ITEM\tBOUGHT\tBUILT\tNEXT PRICE\tPOWER")
			for _, it := range status.Items {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", it.ItemID, it.CountBought, it.CountBuilt, it.NextPrice, it.Power)
			}
			return tw.Flush()
		},
	}
}

// CatalogRow is one item ordinal of the catalog listing.
type CatalogRow struct {
	ItemID  int                 `json:"item_id"`
	Ordinal int                 `json:"ordinal"`
	Price   numeric.Exponential `json:"price"`
	Power   numeric.Exponential `json:"power"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print price and power of every item for the first ordinals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be positive")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.Game.CatalogPath)
			if err != nil {
				return err
			}

			rows := make([]CatalogRow, 0, cat.Len()*count)
			for _, it := range cat.Items() {
				for n := 1; n <= count; n++ {
					rows = append(rows, CatalogRow{
						ItemID:  it.ItemID,
						Ordinal: n,
						Price:   numeric.Compact(it.GetPrice(n)),
						Power:   numeric.Compact(it.GetPower(n)),
					})
				}
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ITEM\tN\tPRICE\tPOWER")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", r.ItemID, r.Ordinal, r.Price, r.Power)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&count, "count", 3, "ordinals to print per item")
	return cmd
}
