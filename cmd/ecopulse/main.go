package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	appconfig "github.com/ecopulse/ecopulse/config"
	"github.com/ecopulse/ecopulse/internal/enrich"
	"github.com/ecopulse/ecopulse/internal/ledger"
	"github.com/ecopulse/ecopulse/internal/server"
	"github.com/ecopulse/ecopulse/models"
	"github.com/ecopulse/ecopulse/provider"
)

func main() {
	var cfgPath string
	root := &cobra.Command{Use: "ecopulse"}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appconfig.LoadConfig(cfgPath)
			return server.Run(cfg)
		},
	}

	var query, category string
	var days int
	search := &cobra.Command{
		Use:   "search",
		Short: "Run a one-shot news discovery and print the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appconfig.LoadConfig(cfgPath)
			llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), cfg.LLM)
			if err != nil {
				return err
			}
			costs := ledger.New(ledger.Pricing{
				InputPerMillion:  cfg.Pricing.InputPerMillion,
				OutputPerMillion: cfg.Pricing.OutputPerMillion,
				SearchSurcharge:  cfg.Pricing.SearchSurcharge,
				ExchangeRate:     cfg.Pricing.ExchangeRate,
				Currency:         cfg.Pricing.Currency,
			})
			enricher := enrich.New(llm, costs, cfg.General.DefaultTimeout)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			res, err := enricher.Discover(ctx, models.DiscoverRequest{
				Query:    query,
				Category: category,
				Days:     days,
			})
			if err != nil {
				return err
			}
			if len(res.Records) == 0 {
				fmt.Println(res.RawText)
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Date", "Company", "Title", "Source"})
			for _, r := range res.Records {
				t.AppendRow(table.Row{r.Date, r.Company, r.Title, r.Source})
			}
			t.AppendFooter(table.Row{"", "", "Cost", fmt.Sprintf("%.4f %s", res.Cost, costs.Currency())})
			t.SetStyle(table.StyleLight)
			t.Render()
			return nil
		},
	}
	search.Flags().StringVar(&query, "query", "", "optional free-text refinement")
	search.Flags().StringVar(&category, "category", "", "optional category filter")
	search.Flags().IntVar(&days, "days", 7, "search window in days")

	root.AddCommand(serve, search)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
