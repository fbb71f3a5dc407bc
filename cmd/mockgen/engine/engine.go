package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"flow-metrics/internal/store"
	"flow-metrics/internal/workitem"
)

type GeneratorConfig struct {
	Scenario     string
	Distribution string // "uniform" or "weibull"
	Count        int
	Seed         uint64
	Now          time.Time
}

type itemType struct {
	name  string
	level workitem.Level
	share float64
}

var itemTypes = []itemType{
	{"Story", workitem.Team, 0.6},
	{"Bug", workitem.Team, 0.3},
	{"Epic", workitem.Portfolio, 0.1},
}

var demands = []string{"Value Demand", "Value Demand", "Failure Demand", "Improvement Demand"}

var classesOfService = []workitem.Classification{
	{ID: "cos-standard", DisplayName: "Standard"},
	{ID: "cos-expedite", DisplayName: "Expedite"},
	{ID: "cos-fixed-date", DisplayName: "Fixed Date"},
}

// Fixture is the generated state of one organisation.
type Fixture struct {
	Items   []workitem.StateItem
	SLEs    []store.SnapshotSLE
	Classes []store.SnapshotClassification
}

// Generate produces Count work items arriving one per day up to Now. Each item
// samples a total cycle time; its state as of Now follows from its age.
func Generate(cfg GeneratorConfig) Fixture {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	var fx Fixture
	tArrival := cfg.Now.AddDate(0, 0, -cfg.Count)

	for i := 0; i < cfg.Count; i++ {
		// 1. Arrival and classification
		arrival := tArrival.Add(time.Duration(i*24) * time.Hour)
		typ := pickType(rng)
		item := workitem.StateItem{
			WorkItemID:                 fmt.Sprintf("MOCK-%d", i+1),
			Title:                      fmt.Sprintf("Mock %s %d", typ.name, i+1),
			FlomatikaWorkItemTypeID:    "wit-" + typ.name,
			FlomatikaWorkItemTypeName:  typ.name,
			FlomatikaWorkItemTypeLevel: typ.level,
			ProjectID:                  fmt.Sprintf("proj-%d", i%2+1),
			ClassOfServiceID:           classesOfService[rng.IntN(len(classesOfService))].ID,
			Normalisation:              map[string]string{workitem.TagNormalisation: demands[rng.IntN(len(demands))]},
			ArrivalDateTime:            &arrival,
			StateCategory:              workitem.Proposed,
		}

		// 2. Sample total cycle time
		k, lambda := 2.5, 9.5
		switch cfg.Scenario {
		case "chaos":
			k = 0.8
			if cfg.Distribution == "weibull" {
				lambda = 12.0
			}
		case "drift":
			ratio := float64(i) / float64(cfg.Count)
			k = 2.5 - (1.7 * ratio)
			lambda = 9.5 + (2.5 * ratio)
		}

		var totalDuration float64
		if cfg.Distribution == "weibull" {
			totalDuration = weibullSample(rng, k, lambda)
		} else {
			totalDuration = 6.0 + rng.Float64()*5.0
			if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
				totalDuration += 10 + rng.Float64()*15
			}
			if cfg.Scenario == "drift" && i > cfg.Count/2 {
				totalDuration *= 2.0
			}
		}
		if typ.level == workitem.Portfolio {
			totalDuration *= 3
		}

		// 3. Commitment at 40% of the cycle, departure at 100%
		tCommit := arrival.Add(time.Duration(totalDuration*0.40*24) * time.Hour)
		tDone := arrival.Add(time.Duration(totalDuration*24) * time.Hour)
		if tCommit.Before(cfg.Now) {
			item.CommitmentDateTime = &tCommit
			item.StateCategory = workitem.InProgress
		}
		if tDone.Before(cfg.Now) {
			item.DepartureDateTime = &tDone
			item.StateCategory = workitem.Completed
			active := totalDuration * (0.2 + rng.Float64()*0.5)
			item.ActiveTime = math.Round(active*10) / 10
			item.WaitingTime = math.Round((totalDuration-active)*10) / 10
		}

		fx.Items = append(fx.Items, item)
	}

	fx.SLEs = []store.SnapshotSLE{
		{Tag: workitem.TagWorkItemType, SLEEntry: workitem.SLEEntry{DisplayName: "Story", ProjectID: "proj-1", ServiceLevelExpectationInDays: 10}},
		{Tag: workitem.TagWorkItemType, SLEEntry: workitem.SLEEntry{DisplayName: "Story", ProjectID: "proj-2", ServiceLevelExpectationInDays: 14}},
		{Tag: workitem.TagWorkItemType, SLEEntry: workitem.SLEEntry{DisplayName: "Bug", ServiceLevelExpectationInDays: 7}},
		{Tag: workitem.TagWorkItemType, SLEEntry: workitem.SLEEntry{DisplayName: "Epic", ServiceLevelExpectationInDays: 45}},
		{Tag: workitem.TagNormalisation, SLEEntry: workitem.SLEEntry{DisplayName: "Value Demand", ServiceLevelExpectationInDays: 12}},
		{Tag: workitem.TagNormalisation, SLEEntry: workitem.SLEEntry{DisplayName: "Failure Demand", ServiceLevelExpectationInDays: 5}},
	}
	for _, c := range classesOfService {
		fx.Classes = append(fx.Classes, store.SnapshotClassification{Dimension: workitem.ByClassOfService, Classification: c})
	}
	for _, t := range itemTypes {
		fx.Classes = append(fx.Classes, store.SnapshotClassification{
			Dimension:      workitem.ByWorkItemType,
			Classification: workitem.Classification{ID: "wit-" + t.name, DisplayName: t.name},
		})
	}
	return fx
}

func pickType(rng *rand.Rand) itemType {
	u := rng.Float64()
	for _, t := range itemTypes {
		if u < t.share {
			return t
		}
		u -= t.share
	}
	return itemTypes[0]
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes the fixture as the snapshot files of orgID under outDir.
func Save(outDir string, orgID string, fx Fixture) error {
	snap := store.NewSnapshot(outDir)
	snap.Put(orgID, fx.Items, fx.SLEs, fx.Classes)
	return snap.Save(orgID)
}
