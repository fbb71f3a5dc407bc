// Package visuals renders calculation results as Mermaid charts.
package visuals

import (
	"fmt"
	"math"
	"strings"

	"flow-metrics/internal/calculations"
	"flow-metrics/internal/calendar"
	"flow-metrics/internal/stats"
)

// maxPoints is where Mermaid's xychart layout starts overlapping axis labels.
const maxPoints = 60

// GenerateThroughputChart creates a Mermaid bar chart of weekly deliveries.
func GenerateThroughputChart(points []calculations.RunChartPoint) string {
	if len(points) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0
	for _, p := range points {
		labels = append(labels, fmt.Sprintf("\"%s\"", calendar.GenerateLabel(p.WeekEndingOn, calendar.Weekly)))
		values = append(values, fmt.Sprintf("%d", p.Count))
		if p.Count > maxVal {
			maxVal = p.Count
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Throughput (Items per Week)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Items Delivered\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateLeadTimeHistogram creates a Mermaid bar chart of items per lead time.
func GenerateLeadTimeHistogram(bins []calculations.HistogramBin) string {
	if len(bins) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0
	for _, b := range bins {
		labels = append(labels, fmt.Sprintf("\"%dd\"", b.LeadTimeInWholeDays))
		values = append(values, fmt.Sprintf("%d", b.Count))
		if b.Count > maxVal {
			maxVal = b.Count
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Lead Time Distribution\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Items\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateWIPRunChart creates a Mermaid line chart of items in progress per
// bucket of the given aggregation.
func GenerateWIPRunChart(points []calculations.WIPPoint, key calendar.AggregationKey) string {
	if len(points) == 0 {
		return ""
	}

	// Subsample so the chart stays readable
	rate := 1
	if len(points) > maxPoints {
		rate = int(math.Ceil(float64(len(points)) / maxPoints))
	}

	var labels []string
	var values []string
	maxVal := 0
	for i, p := range points {
		if p.Count > maxVal {
			maxVal = p.Count
		}
		if i%rate != 0 && i != len(points)-1 {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", calendar.GenerateLabel(p.Date, key)))
		values = append(values, fmt.Sprintf("%d", p.Count))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Work in Process\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Active Items\" 0 --> %d\n", int(math.Ceil(float64(maxVal)*1.2))+1))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateProductivityChart plots bucket throughput against the window mean.
func GenerateProductivityChart(result calculations.ProductivityResult, key calendar.AggregationKey) string {
	if len(result.Series) == 0 {
		return ""
	}

	var labels []string
	var values []string
	var means []string
	maxY := result.Mean
	for _, p := range result.Series {
		labels = append(labels, fmt.Sprintf("\"%s\"", calendar.GenerateLabel(p.Date, key)))
		values = append(values, fmt.Sprintf("%.0f", p.Value))
		means = append(means, fmt.Sprintf("%.1f", result.Mean))
		if p.Value > maxY {
			maxY = p.Value
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Productivity (Throughput vs Mean)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Items Delivered\" 0 --> %d\n", int(math.Ceil(maxY*1.2))+1))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(means, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateBoxPlotSummary lists the quartiles of a box plot as a bar chart,
// Mermaid having no box plot diagram.
func GenerateBoxPlotSummary(title string, box stats.BoxPlot) string {
	if box.UpperWhisker <= 0 {
		return ""
	}

	labels := []string{"\"Q1\"", "\"Median\"", "\"Q3\"", "\"Upper whisker\""}
	values := []string{
		fmt.Sprintf("%.1f", box.Quartile1st),
		fmt.Sprintf("%.1f", box.Median),
		fmt.Sprintf("%.1f", box.Quartile3rd),
		fmt.Sprintf("%.1f", box.UpperWhisker),
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Value\" 0 --> %d\n", int(math.Ceil(box.UpperWhisker*1.1))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateDemandPie creates a Mermaid pie chart of items per service level group.
func GenerateDemandPie(title string, groups []calculations.GroupStatistics) string {
	total := 0
	for _, g := range groups {
		total += g.Count
	}
	if total == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("pie title %s\n", title))
	for _, g := range groups {
		label := g.TypeName
		if g.ProjectScoped() {
			label = fmt.Sprintf("%s (%s)", g.TypeName, g.ProjectID)
		}
		sb.WriteString(fmt.Sprintf("    \"%s\" : %d\n", label, g.Count))
	}
	sb.WriteString("```")
	return sb.String()
}
