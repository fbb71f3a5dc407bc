package commands

import (
	"context"

	"flow-metrics/internal/aggregation"
	"flow-metrics/internal/calculations"
	"flow-metrics/internal/stats"
	"flow-metrics/internal/trend"
	"flow-metrics/internal/visuals"
	"flow-metrics/internal/workitem"

	"github.com/spf13/cobra"
)

type throughputReport struct {
	RunChart       []calculations.RunChartPoint `json:"runChart"`
	BoxPlot        *stats.BoxPlot               `json:"boxPlot"`
	Percentile85th float64                      `json:"percentile85th"`
	Minimum        float64                      `json:"minimum"`
	Maximum        float64                      `json:"maximum"`
	Variability    string                       `json:"variability"`
	Trend          trend.Result                 `json:"trendAnalysis"`
	Buckets        []aggregation.Bucket         `json:"buckets"`
	ByType         []calculations.GroupCount    `json:"byWorkItemType"`
}

func buildThroughput(ctx context.Context, req *calculations.Request) (throughputReport, error) {
	tp := calculations.NewThroughput(req)
	var (
		r   throughputReport
		err error
	)
	if r.RunChart, err = tp.RunChartData(ctx); err != nil {
		return r, err
	}
	if box, ok, err := tp.DeliveryRateBoxPlot(ctx); err != nil {
		return r, err
	} else if ok {
		r.BoxPlot = &box
	}
	if r.Percentile85th, err = tp.Percentile(ctx, 85); err != nil {
		return r, err
	}
	if r.Minimum, err = tp.Minimum(ctx); err != nil {
		return r, err
	}
	if r.Maximum, err = tp.Maximum(ctx); err != nil {
		return r, err
	}
	if r.Variability, err = tp.Variability(ctx); err != nil {
		return r, err
	}
	if r.Trend, err = tp.TrendAnalysis(ctx); err != nil {
		return r, err
	}
	if r.Buckets, err = tp.ByAggregation(ctx); err != nil {
		return r, err
	}
	if r.ByType, err = tp.CountsBy(ctx, workitem.ByWorkItemType); err != nil {
		return r, err
	}
	return r, nil
}

var throughputCmd = &cobra.Command{
	Use:   "throughput",
	Short: "Weekly delivery rate, its spread and trend",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := newRequest()
		if err != nil {
			return err
		}
		r, err := buildThroughput(cmd.Context(), req)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), r, cfg.EnableMermaidCharts, visuals.GenerateThroughputChart(r.RunChart))
	},
}
