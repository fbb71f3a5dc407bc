package calculations

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"flow-metrics/internal/calendar"
	"flow-metrics/internal/stats"
	"flow-metrics/internal/trend"
	"flow-metrics/internal/workitem"
)

// GroupStatistics describes the durations of one service level group.
// TargetMet, Predictability and TrendAnalysisSLE are only set for
// perspectives with history.
type GroupStatistics struct {
	workitem.GroupKey
	SLEDisplayName                string            `json:"sleDisplayName"`
	ServiceLevelExpectationInDays int               `json:"serviceLevelExpectationInDays"`
	Count                         int               `json:"count"`
	Mean                          float64           `json:"mean"`
	Median                        float64           `json:"median"`
	Modes                         []float64         `json:"modes"`
	Minimum                       float64           `json:"minimum"`
	Maximum                       float64           `json:"maximum"`
	Percentile85th                float64           `json:"percentile85th"`
	Percentile98th                float64           `json:"percentile98th"`
	TargetMet                     *float64          `json:"targetMet,omitempty"`
	Predictability                string            `json:"predictability,omitempty"`
	TrendAnalysisSLE              *trend.Comparison `json:"trendAnalysisSLE,omitempty"`
}

// ServiceLevelData holds the groups of one perspective.
type ServiceLevelData struct {
	Perspective       workitem.Perspective `json:"perspective"`
	NormalisedDemands []GroupStatistics    `json:"normalisedDemands"`
	WorkItemTypes     []GroupStatistics    `json:"workItemTypes"`
}

// ServiceLevel compares durations with configured service level expectations.
type ServiceLevel struct {
	req *Request
}

func NewServiceLevel(req *Request) *ServiceLevel {
	return &ServiceLevel{req: req}
}

// Data groups the items of a perspective by normalised demand and by work
// item type and computes the statistics of every group. The four upstream
// fetches run concurrently; any failure fails the call.
func (s *ServiceLevel) Data(ctx context.Context, perspective workitem.Perspective) (data ServiceLevelData, err error) {
	defer func(start time.Time) { observe("service_level.data", start, err) }(time.Now())

	switch perspective {
	case workitem.Past, workitem.Present, workitem.Future:
	default:
		return ServiceLevelData{}, invalidInput("unknown perspective %q", perspective)
	}
	data = ServiceLevelData{Perspective: perspective, NormalisedDemands: []GroupStatistics{}, WorkItemTypes: []GroupStatistics{}}
	if _, ok := s.req.period(); !ok {
		return data, nil
	}
	category := perspective.StateCategory()

	// 1. Fetch items and SLE configuration concurrently
	var (
		normItems, typeItems []workitem.StateItem
		normSLEs, typeSLEs   []workitem.MergedSLE
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		normItems, err = s.req.normalisedItems(gctx, category, workitem.TagNormalisation)
		return err
	})
	g.Go(func() (err error) {
		normSLEs, err = s.req.sleConfig(gctx, workitem.TagNormalisation)
		return err
	})
	g.Go(func() (err error) {
		typeItems, err = s.req.items(gctx, category)
		return err
	})
	g.Go(func() (err error) {
		typeSLEs, err = s.req.sleConfig(gctx, workitem.TagWorkItemType)
		return err
	})
	if err := g.Wait(); err != nil {
		return ServiceLevelData{}, fmt.Errorf("failed to load service level data: %w", err)
	}

	now := s.req.now().In(s.req.location())

	// 2. Normalised demand groups
	for _, grp := range groupByNormalisation(normItems, normSLEs) {
		st, err := CalculateStatistics(grp.key, grp.items, grp.sle, perspective, now)
		if err != nil {
			return ServiceLevelData{}, err
		}
		data.NormalisedDemands = append(data.NormalisedDemands, st)
	}

	// 3. Work item type groups, split per project where SLEs differ
	for _, grp := range groupByType(typeItems, typeSLEs) {
		st, err := CalculateStatistics(grp.key, grp.items, grp.sle, perspective, now)
		if err != nil {
			return ServiceLevelData{}, err
		}
		data.WorkItemTypes = append(data.WorkItemTypes, st)
	}

	log.Debug().
		Str("org", s.req.orgID).
		Str("perspective", string(perspective)).
		Int("normalisedGroups", len(data.NormalisedDemands)).
		Int("typeGroups", len(data.WorkItemTypes)).
		Msg("Computed service level data")
	return data, nil
}

type slGroup struct {
	key   workitem.GroupKey
	sle   workitem.MergedSLE
	items []workitem.StateItem
}

func groupByNormalisation(items []workitem.StateItem, sles []workitem.MergedSLE) []slGroup {
	byName := make(map[string][]workitem.MergedSLE)
	for _, m := range sles {
		byName[m.DisplayName] = append(byName[m.DisplayName], m)
	}
	groups := make(map[workitem.GroupKey]*slGroup)
	for _, it := range workitem.Dedupe(items) {
		if it.NormalisedDisplayName == "" {
			continue
		}
		key := workitem.GroupKey{TypeName: it.NormalisedDisplayName}
		g, ok := groups[key]
		if !ok {
			g = &slGroup{key: key, sle: resolveSLE(byName[key.TypeName], "")}
			groups[key] = g
		}
		g.items = append(g.items, it)
	}
	return sortedGroups(groups)
}

// groupByType groups items by type name. A type with more than one SLE, or
// with a single SLE limited to some projects, is split into one group per project.
func groupByType(items []workitem.StateItem, sles []workitem.MergedSLE) []slGroup {
	byName := make(map[string][]workitem.MergedSLE)
	for _, m := range sles {
		byName[m.DisplayName] = append(byName[m.DisplayName], m)
	}
	groups := make(map[workitem.GroupKey]*slGroup)
	for _, it := range workitem.Dedupe(items) {
		cands := byName[it.FlomatikaWorkItemTypeName]
		key := workitem.GroupKey{TypeName: it.FlomatikaWorkItemTypeName}
		if len(cands) > 1 || (len(cands) == 1 && !cands[0].AllProjects) {
			key.ProjectID = it.ProjectID
		}
		g, ok := groups[key]
		if !ok {
			g = &slGroup{key: key, sle: resolveSLE(cands, key.ProjectID)}
			groups[key] = g
		}
		g.items = append(g.items, it)
	}
	return sortedGroups(groups)
}

// resolveSLE prefers an expectation naming projectID, then one covering every
// project, then the unavailable default.
func resolveSLE(cands []workitem.MergedSLE, projectID string) workitem.MergedSLE {
	for _, c := range cands {
		if c.Names(projectID) {
			return c
		}
	}
	for _, c := range cands {
		if c.AllProjects {
			return c
		}
	}
	return workitem.UnavailableSLE
}

func sortedGroups(groups map[workitem.GroupKey]*slGroup) []slGroup {
	out := make([]slGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b slGroup) int {
		if c := cmp.Compare(a.key.TypeName, b.key.TypeName); c != 0 {
			return c
		}
		return cmp.Compare(a.key.ProjectID, b.key.ProjectID)
	})
	return out
}

// CalculateStatistics computes the descriptive statistics of a group and, for
// perspectives with history, its target met, predictability and fortnight trend
// as of now.
func CalculateStatistics(key workitem.GroupKey, items []workitem.StateItem, sle workitem.MergedSLE, perspective workitem.Perspective, now time.Time) (GroupStatistics, error) {
	durations := make([]float64, len(items))
	for i, it := range items {
		durations[i] = float64(perspective.Duration(it))
	}
	summary := stats.Summarize(durations)

	st := GroupStatistics{
		GroupKey:                      key,
		SLEDisplayName:                sle.DisplayName,
		ServiceLevelExpectationInDays: sle.ServiceLevelExpectationInDays,
		Count:                         len(items),
		Mean:                          summary.Average,
		Median:                        summary.Percentile50th,
		Modes:                         summary.Modes,
		Minimum:                       summary.Minimum,
		Maximum:                       summary.Maximum,
		Percentile85th:                summary.Percentile85th,
		Percentile98th:                summary.Percentile98th,
	}
	if !perspective.UsesHistory() {
		return st, nil
	}

	target := TargetMet(items, sle.ServiceLevelExpectationInDays, perspective)
	st.TargetMet = &target
	if len(items) > 0 {
		st.Predictability = stats.Predictability(summary.Percentile50th, summary.Percentile98th)
	}
	tr, err := FortnightTrend(items, sle.ServiceLevelExpectationInDays, perspective, calendar.LastFourFullWeeks(now))
	if err != nil {
		return GroupStatistics{}, err
	}
	st.TrendAnalysisSLE = &tr
	return st, nil
}

// TargetMet returns the whole-number percentage of items whose perspective
// duration is within sleDays, or 0 for no items.
func TargetMet(items []workitem.StateItem, sleDays int, perspective workitem.Perspective) float64 {
	if len(items) == 0 {
		return 0
	}
	met := 0
	for _, it := range items {
		if perspective.Duration(it) <= sleDays {
			met++
		}
	}
	return math.Round(float64(met) / float64(len(items)) * 100)
}

// FortnightTrend compares the target met of items placed in weeks 3 and 4
// with those placed in weeks 1 and 2. The weeks must be consecutive; anything
// else is a caller error.
func FortnightTrend(items []workitem.StateItem, sleDays int, perspective workitem.Perspective, weeks calendar.FourWeeks) (trend.Comparison, error) {
	if !weeks.Consecutive() {
		return trend.Comparison{}, invalidInput("weeks %d-W%02d, %d-W%02d, %d-W%02d, %d-W%02d are not consecutive",
			weeks.Week1.Year, weeks.Week1.Number, weeks.Week2.Year, weeks.Week2.Number,
			weeks.Week3.Year, weeks.Week3.Number, weeks.Week4.Year, weeks.Week4.Number)
	}

	previous := within(items, perspective, weeks.Week1.Start, weeks.Week2.End())
	last := within(items, perspective, weeks.Week3.Start, weeks.Week4.End())

	pct := TargetMet(last, sleDays, perspective) - TargetMet(previous, sleDays, perspective)
	return trend.Classify(pct, trend.DefaultPalette), nil
}

func within(items []workitem.StateItem, perspective workitem.Perspective, from, to time.Time) []workitem.StateItem {
	var out []workitem.StateItem
	for _, it := range items {
		d := perspective.ReferenceDate(it)
		if d == nil || d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, it)
	}
	return out
}
