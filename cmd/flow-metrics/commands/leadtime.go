package commands

import (
	"context"

	"flow-metrics/internal/calculations"
	"flow-metrics/internal/stats"
	"flow-metrics/internal/visuals"

	"github.com/spf13/cobra"
)

type leadTimeReport struct {
	Distribution stats.DistributionSummary   `json:"distribution"`
	Variability  string                      `json:"variability"`
	Histogram    []calculations.HistogramBin `json:"histogram"`
	BoxPlot      *stats.BoxPlot              `json:"boxPlot"`
	ScatterPlot  []calculations.ScatterPoint `json:"scatterPlot"`
}

func buildLeadTime(ctx context.Context, req *calculations.Request) (leadTimeReport, error) {
	lt := calculations.NewLeadTime(req)
	var (
		r   leadTimeReport
		err error
	)
	if r.Distribution, err = lt.Distribution(ctx); err != nil {
		return r, err
	}
	if r.Variability, err = lt.Variability(ctx); err != nil {
		return r, err
	}
	if r.Histogram, err = lt.Histogram(ctx); err != nil {
		return r, err
	}
	if box, ok, err := lt.BoxPlot(ctx); err != nil {
		return r, err
	} else if ok {
		r.BoxPlot = &box
	}
	if r.ScatterPlot, err = lt.ScatterPlot(ctx); err != nil {
		return r, err
	}
	return r, nil
}

var leadTimeCmd = &cobra.Command{
	Use:   "lead-time",
	Short: "Lead time distribution of completed work",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := newRequest()
		if err != nil {
			return err
		}
		r, err := buildLeadTime(cmd.Context(), req)
		if err != nil {
			return err
		}
		charts := []string{visuals.GenerateLeadTimeHistogram(r.Histogram)}
		if r.BoxPlot != nil {
			charts = append(charts, visuals.GenerateBoxPlotSummary("Lead Time (Days)", *r.BoxPlot))
		}
		return render(cmd.OutOrStdout(), r, cfg.EnableMermaidCharts, charts...)
	},
}
