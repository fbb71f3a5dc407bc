package commands

import (
	"context"

	"flow-metrics/internal/calculations"
	"flow-metrics/internal/stats"
	"flow-metrics/internal/trend"
	"flow-metrics/internal/visuals"
	"flow-metrics/internal/workitem"

	"github.com/spf13/cobra"
)

type wipReport struct {
	Count            int                       `json:"count"`
	AgeDistribution  stats.DistributionSummary `json:"ageDistribution"`
	RunChart         []calculations.WIPPoint   `json:"runChart"`
	StartsTrend      trend.Result              `json:"startsTrend"`
	ByClassOfService []calculations.GroupCount `json:"byClassOfService"`
}

func buildWIP(ctx context.Context, req *calculations.Request) (wipReport, error) {
	w := calculations.NewWIP(req)
	var (
		r   wipReport
		err error
	)
	if r.Count, err = w.Count(ctx); err != nil {
		return r, err
	}
	if r.AgeDistribution, err = w.AgeDistribution(ctx); err != nil {
		return r, err
	}
	if r.RunChart, err = w.RunChart(ctx); err != nil {
		return r, err
	}
	if r.StartsTrend, err = w.StartsTrend(ctx); err != nil {
		return r, err
	}
	if r.ByClassOfService, err = w.CountsBy(ctx, workitem.ByClassOfService); err != nil {
		return r, err
	}
	return r, nil
}

var wipCmd = &cobra.Command{
	Use:   "wip",
	Short: "Work in process count, age and history",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := newRequest()
		if err != nil {
			return err
		}
		r, err := buildWIP(cmd.Context(), req)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), r, cfg.EnableMermaidCharts, visuals.GenerateWIPRunChart(r.RunChart, req.Filters().Aggregation()))
	},
}
