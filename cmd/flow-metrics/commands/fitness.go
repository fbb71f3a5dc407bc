package commands

import (
	"flow-metrics/internal/calculations"
	"flow-metrics/internal/visuals"

	"github.com/spf13/cobra"
)

var fitnessCmd = &cobra.Command{
	Use:   "fitness",
	Short: "Fitness criteria KPIs with industry comparisons",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := newRequest()
		if err != nil {
			return err
		}
		report, err := calculations.NewFitnessCriteria(req).Report(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), report, cfg.EnableMermaidCharts, visuals.GenerateProductivityChart(report.Productivity, req.Filters().Aggregation()))
	},
}
