package commands

import (
	"fmt"

	"flow-metrics/internal/calculations"
	"flow-metrics/internal/visuals"
	"flow-metrics/internal/workitem"

	"github.com/spf13/cobra"
)

var perspective string

var serviceLevelCmd = &cobra.Command{
	Use:   "service-level",
	Short: "Service level statistics per normalised demand and work item type",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := workitem.ParsePerspective(perspective)
		if err != nil {
			return fmt.Errorf("%w: %v", calculations.ErrInvalidInput, err)
		}
		req, err := newRequest()
		if err != nil {
			return err
		}
		data, err := calculations.NewServiceLevel(req).Data(cmd.Context(), p)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), data, cfg.EnableMermaidCharts,
			visuals.GenerateDemandPie("Normalised Demand", data.NormalisedDemands),
			visuals.GenerateDemandPie("Work Item Types", data.WorkItemTypes))
	},
}

func init() {
	serviceLevelCmd.Flags().StringVar(&perspective, "perspective", "past", "past, present or future")
}
