package calculations

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"flow-metrics/internal/aggregation"
	"flow-metrics/internal/benchmark"
	"flow-metrics/internal/stats"
	"flow-metrics/internal/trend"
	"flow-metrics/internal/widget"
	"flow-metrics/internal/workitem"
)

// ValueDemand is the normalised demand category counted as customer value.
const ValueDemand = "Value Demand"

// KPIPoint is one bucket of a fitness criteria series.
type KPIPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DatedProductivity is a productivity classification of one bucket.
type DatedProductivity struct {
	Date time.Time `json:"date"`
	stats.ProductivityPoint
}

type ProductivityResult struct {
	Series            []DatedProductivity          `json:"series"`
	Mean              float64                      `json:"mean"`
	StandardDeviation float64                      `json:"standardDeviation"`
	Latest            string                       `json:"latest"`
	Trend             trend.Result                 `json:"trend"`
	WidgetInformation []workitem.WidgetInformation `json:"widgetInformation,omitempty"`
}

// PredictabilityPoint is the lead time spread of one bucket.
type PredictabilityPoint struct {
	Date           time.Time `json:"date"`
	Percentile50th float64   `json:"percentile50th"`
	Percentile98th float64   `json:"percentile98th"`
	Predictability string    `json:"predictability,omitempty"`
}

// RollingPoint is the rolling coefficient of variation of throughput at one
// bucket; Coefficient is nil where it is undefined.
type RollingPoint struct {
	Date        time.Time `json:"date"`
	Coefficient *float64  `json:"coefficient"`
}

type PredictabilityResult struct {
	LeadTime           string                       `json:"leadTime"`
	Throughput         string                       `json:"throughput"`
	Series             []PredictabilityPoint        `json:"series"`
	RollingVariability []RollingPoint               `json:"rollingVariability"`
	WidgetInformation  []workitem.WidgetInformation `json:"widgetInformation,omitempty"`
}

type SpeedResult struct {
	Percentile85th    float64                      `json:"percentile85th"`
	Level             workitem.Level               `json:"level"`
	Series            []KPIPoint                   `json:"series"`
	IndustryStandard  string                       `json:"industryStandard"`
	WidgetInformation []workitem.WidgetInformation `json:"widgetInformation,omitempty"`
}

type ServiceLevelExpectationResult struct {
	TargetMet         float64                      `json:"targetMet"`
	Series            []KPIPoint                   `json:"series"`
	IndustryStandard  string                       `json:"industryStandard"`
	WidgetInformation []workitem.WidgetInformation `json:"widgetInformation,omitempty"`
}

type CustomerValueResult struct {
	ValueDemandPercentage float64                      `json:"valueDemandPercentage"`
	Series                []KPIPoint                   `json:"series"`
	IndustryStandard      string                       `json:"industryStandard"`
	IndustryCohort        string                       `json:"industryCohort"`
	WidgetInformation     []workitem.WidgetInformation `json:"widgetInformation,omitempty"`
}

type FlowEfficiencyResult struct {
	Percentage        float64                      `json:"percentage"`
	Series            []KPIPoint                   `json:"series"`
	IndustryStandard  string                       `json:"industryStandard"`
	IndustryCohort    string                       `json:"industryCohort"`
	WidgetInformation []workitem.WidgetInformation `json:"widgetInformation,omitempty"`
}

// FitnessReport holds every fitness criteria KPI of one request.
type FitnessReport struct {
	Productivity            ProductivityResult            `json:"productivity"`
	Predictability          PredictabilityResult          `json:"predictability"`
	Speed                   SpeedResult                   `json:"speed"`
	ServiceLevelExpectation ServiceLevelExpectationResult `json:"serviceLevelExpectation"`
	CustomerValue           CustomerValueResult           `json:"customerValue"`
	FlowEfficiency          FlowEfficiencyResult          `json:"flowEfficiency"`
}

// FitnessCriteria combines historical series with a current KPI and an
// industry comparison. Upstream fetches are shared through the request memo.
type FitnessCriteria struct {
	req *Request
}

func NewFitnessCriteria(req *Request) *FitnessCriteria {
	return &FitnessCriteria{req: req}
}

// Report computes all KPIs concurrently. A failure in any of them fails the
// whole report; no partial report is returned.
func (f *FitnessCriteria) Report(ctx context.Context) (report FitnessReport, err error) {
	defer func(start time.Time) { observe("fitness.report", start, err) }(time.Now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.Productivity, err = f.Productivity(gctx)
		return err
	})
	g.Go(func() (err error) {
		report.Predictability, err = f.Predictability(gctx)
		return err
	})
	g.Go(func() (err error) {
		report.Speed, err = f.Speed(gctx)
		return err
	})
	g.Go(func() (err error) {
		report.ServiceLevelExpectation, err = f.ServiceLevelExpectation(gctx)
		return err
	})
	g.Go(func() (err error) {
		report.CustomerValue, err = f.CustomerValue(gctx)
		return err
	})
	g.Go(func() (err error) {
		report.FlowEfficiency, err = f.FlowEfficiency(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return FitnessReport{}, fmt.Errorf("failed to compute fitness criteria: %w", err)
	}

	log.Debug().Str("org", f.req.orgID).Msg("Computed fitness criteria report")
	return report, nil
}

// completedBuckets buckets the cached completed items at the request granularity.
func (f *FitnessCriteria) completedBuckets(ctx context.Context) ([]aggregation.Bucket, []workitem.StateItem, error) {
	if _, ok := f.req.period(); !ok {
		return []aggregation.Bucket{}, nil, nil
	}
	items, err := f.req.completedItems(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load completed items: %w", err)
	}
	return aggregation.CompletedByFilters(items, f.req.filters, true), items, nil
}

// Productivity classifies the throughput of every bucket against the mean
// and standard deviation of the window.
func (f *FitnessCriteria) Productivity(ctx context.Context) (res ProductivityResult, err error) {
	defer func(start time.Time) { observe("fitness.productivity", start, err) }(time.Now())

	buckets, items, err := f.completedBuckets(ctx)
	if err != nil {
		return ProductivityResult{}, err
	}
	counts := stats.IntsToFloats(aggregation.Counts(buckets))
	points := stats.CalculateProductivityByMeanAndStdv(counts)

	res.Series = make([]DatedProductivity, len(points))
	for i, p := range points {
		res.Series[i] = DatedProductivity{Date: buckets[i].Start, ProductivityPoint: p}
	}
	res.Mean = stats.RoundToDecimalPlaces(stats.Mean(counts), 2)
	res.StandardDeviation = stats.RoundToDecimalPlaces(stats.PopulationStdDev(counts), 2)
	if len(points) > 0 {
		res.Latest = points[len(points)-1].Label
	}
	if period, ok := f.req.period(); ok {
		res.Trend = trend.Analyse(departures(items), period, trend.DefaultPalette)
	}
	res.WidgetInformation = f.req.widgetInformation(ctx, widget.Productivity)
	return res, nil
}

// Predictability reads lead time with the multiplier convention and weekly
// throughput with the coefficient of variation, per bucket and overall.
func (f *FitnessCriteria) Predictability(ctx context.Context) (res PredictabilityResult, err error) {
	defer func(start time.Time) { observe("fitness.predictability", start, err) }(time.Now())

	buckets, items, err := f.completedBuckets(ctx)
	if err != nil {
		return PredictabilityResult{}, err
	}

	overall := leadTimes(workitem.Dedupe(items))
	if len(overall) > 0 {
		res.LeadTime = stats.Predictability(stats.MustPercentile(50, overall), stats.MustPercentile(98, overall))
	}
	counts := stats.IntsToFloats(aggregation.Counts(buckets))
	res.Throughput = stats.ThroughputByCoefficient(counts)

	res.Series = make([]PredictabilityPoint, len(buckets))
	for i, b := range buckets {
		lt := leadTimes(b.Items)
		p := PredictabilityPoint{Date: b.Start}
		if len(lt) > 0 {
			p.Percentile50th = stats.MustPercentile(50, lt)
			p.Percentile98th = stats.MustPercentile(98, lt)
			p.Predictability = stats.Predictability(p.Percentile50th, p.Percentile98th)
		}
		res.Series[i] = p
	}

	rolling := stats.CalculateRollingCoefficient(counts)
	res.RollingVariability = make([]RollingPoint, len(rolling))
	for i, c := range rolling {
		res.RollingVariability[i] = RollingPoint{Date: buckets[i].Start, Coefficient: c}
	}
	res.WidgetInformation = f.req.widgetInformation(ctx, widget.Predictability)
	return res, nil
}

// Speed reports the 85th percentile lead time and places it against the
// portfolio or team table, whichever level most completed items belong to.
func (f *FitnessCriteria) Speed(ctx context.Context) (res SpeedResult, err error) {
	defer func(start time.Time) { observe("fitness.speed", start, err) }(time.Now())

	buckets, items, err := f.completedBuckets(ctx)
	if err != nil {
		return SpeedResult{}, err
	}
	items = workitem.Dedupe(items)

	res.Level = dominantLevel(items)
	rows := benchmark.LeadTimeTeam()
	if res.Level == workitem.Portfolio {
		rows = benchmark.LeadTimePortfolio()
	}
	if lt := leadTimes(items); len(lt) > 0 {
		res.Percentile85th = stats.MustPercentile(85, lt)
		// Longer lead times rank lower, so the table reads inverted.
		res.IndustryStandard = benchmark.IndustryStandardMessage(res.Percentile85th, rows, "lead time", true)
	}

	res.Series = make([]KPIPoint, len(buckets))
	for i, b := range buckets {
		res.Series[i] = KPIPoint{Date: b.Start}
		if lt := leadTimes(b.Items); len(lt) > 0 {
			res.Series[i].Value = stats.MustPercentile(85, lt)
		}
	}
	res.WidgetInformation = f.req.widgetInformation(ctx, widget.Speed)
	return res, nil
}

func dominantLevel(items []workitem.StateItem) workitem.Level {
	portfolio := 0
	for _, it := range items {
		if it.FlomatikaWorkItemTypeLevel == workitem.Portfolio {
			portfolio++
		}
	}
	if portfolio > len(items)-portfolio {
		return workitem.Portfolio
	}
	return workitem.Team
}

// ServiceLevelExpectation reports the share of completed items within the
// SLE of their type. Items whose type has no SLE are left out.
func (f *FitnessCriteria) ServiceLevelExpectation(ctx context.Context) (res ServiceLevelExpectationResult, err error) {
	defer func(start time.Time) { observe("fitness.service_level_expectation", start, err) }(time.Now())

	buckets, items, err := f.completedBuckets(ctx)
	if err != nil {
		return ServiceLevelExpectationResult{}, err
	}
	sles, err := f.req.sleConfig(ctx, workitem.TagWorkItemType)
	if err != nil {
		return ServiceLevelExpectationResult{}, fmt.Errorf("failed to load SLE configuration: %w", err)
	}

	res.TargetMet = targetMetBySLE(workitem.Dedupe(items), sles)
	res.IndustryStandard = benchmark.IndustryStandardMessage(res.TargetMet, benchmark.SLE(), "service level expectation", false)
	res.Series = make([]KPIPoint, len(buckets))
	for i, b := range buckets {
		res.Series[i] = KPIPoint{Date: b.Start, Value: targetMetBySLE(b.Items, sles)}
	}
	res.WidgetInformation = f.req.widgetInformation(ctx, widget.ServiceLevelExpectation)
	return res, nil
}

func targetMetBySLE(items []workitem.StateItem, sles []workitem.MergedSLE) float64 {
	byName := make(map[string][]workitem.MergedSLE)
	for _, m := range sles {
		byName[m.DisplayName] = append(byName[m.DisplayName], m)
	}
	total, met := 0, 0
	for _, it := range items {
		sle := resolveSLE(byName[it.FlomatikaWorkItemTypeName], it.ProjectID)
		if sle.DisplayName == workitem.UnavailableItemTypeName {
			continue
		}
		total++
		if it.LeadTimeInWholeDays <= sle.ServiceLevelExpectationInDays {
			met++
		}
	}
	if total == 0 {
		return 0
	}
	return stats.RoundToDecimalPlaces(float64(met)/float64(total)*100, 0)
}

// CustomerValue reports the share of completed, normalised work that is value demand.
func (f *FitnessCriteria) CustomerValue(ctx context.Context) (res CustomerValueResult, err error) {
	defer func(start time.Time) { observe("fitness.customer_value", start, err) }(time.Now())

	res.Series = []KPIPoint{}
	if _, ok := f.req.period(); !ok {
		return res, nil
	}
	items, err := f.req.normalisedItems(ctx, workitem.Completed, workitem.TagNormalisation)
	if err != nil {
		return CustomerValueResult{}, fmt.Errorf("failed to load normalised items: %w", err)
	}

	res.ValueDemandPercentage = valueDemandShare(workitem.Dedupe(items))
	res.IndustryStandard = benchmark.IndustryStandardMessage(res.ValueDemandPercentage, benchmark.CustomerValue(), "customer value", false)
	res.IndustryCohort = benchmark.IndustryCohortMessage(res.ValueDemandPercentage, benchmark.CustomerValueCohorts(), "value demand share", "%")
	for _, b := range aggregation.CompletedByFilters(items, f.req.filters, true) {
		res.Series = append(res.Series, KPIPoint{Date: b.Start, Value: valueDemandShare(b.Items)})
	}
	res.WidgetInformation = f.req.widgetInformation(ctx, widget.CustomerValue)
	return res, nil
}

func valueDemandShare(items []workitem.StateItem) float64 {
	if len(items) == 0 {
		return 0
	}
	n := 0
	for _, it := range items {
		if it.NormalisedDisplayName == ValueDemand {
			n++
		}
	}
	return stats.RoundToDecimalPlaces(float64(n)/float64(len(items))*100, 2)
}

// FlowEfficiency reports active time as a share of total time across
// completed items with recorded time.
func (f *FitnessCriteria) FlowEfficiency(ctx context.Context) (res FlowEfficiencyResult, err error) {
	defer func(start time.Time) { observe("fitness.flow_efficiency", start, err) }(time.Now())

	res.Series = []KPIPoint{}
	if _, ok := f.req.period(); !ok {
		return res, nil
	}
	items, err := f.req.extendedItems(ctx, workitem.Completed)
	if err != nil {
		return FlowEfficiencyResult{}, fmt.Errorf("failed to load extended items: %w", err)
	}

	res.Percentage = flowEfficiency(workitem.Dedupe(items))
	res.IndustryStandard = benchmark.FlowEfficiencyMessage(res.Percentage, benchmark.FlowEfficiency())
	res.IndustryCohort = benchmark.IndustryCohortMessage(res.Percentage, benchmark.FlowEfficiencyCohorts(), "flow efficiency", "%")
	for _, b := range aggregation.CompletedByFilters(items, f.req.filters, true) {
		res.Series = append(res.Series, KPIPoint{Date: b.Start, Value: flowEfficiency(b.Items)})
	}
	res.WidgetInformation = f.req.widgetInformation(ctx, widget.FlowEfficiency)
	return res, nil
}

func flowEfficiency(items []workitem.StateItem) float64 {
	active, total := 0.0, 0.0
	for _, it := range items {
		active += it.ActiveTime
		total += it.ActiveTime + it.WaitingTime
	}
	if total <= 0 {
		return 0
	}
	return stats.RoundToDecimalPlaces(active/total*100, 2)
}
