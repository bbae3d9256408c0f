package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ted_dashboard/internal/app"
)

func newTrendsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "trends",
		Short: "Print contract counts per month and product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := e.q.Trends(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", app.ErrorMessage(err), err)
			}
			printTrends(cmd.OutOrStdout(), app.BuildTrendChart(t, 0, 0))
			return nil
		},
	}
}
