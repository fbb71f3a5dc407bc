package calculations

import (
	"context"
	"testing"
	"time"

	"flow-metrics/internal/calendar"
	"flow-metrics/internal/trend"
	"flow-metrics/internal/workitem"
)

func inProject(it workitem.StateItem, project, demand string) workitem.StateItem {
	it.ProjectID = project
	if demand != "" {
		it.Normalisation = map[string]string{workitem.TagNormalisation: demand}
	}
	return it
}

func serviceLevelFixture() *fakeState {
	items := []workitem.StateItem{
		inProject(done("1", "Story", day(time.March, 12), 3), "proj-a", ValueDemand),
		inProject(done("2", "Story", day(time.March, 13), 12), "proj-b", "Failure Demand"),
		inProject(done("3", "Story", day(time.March, 20), 4), "proj-b", ""),
		inProject(done("4", "Bug", day(time.March, 14), 2), "proj-a", ValueDemand),
		inProject(done("5", "Task", day(time.March, 21), 6), "proj-a", ""),
	}
	sles := map[string][]workitem.SLEEntry{
		workitem.TagWorkItemType: {
			{DisplayName: "Story", ProjectID: "proj-a", ServiceLevelExpectationInDays: 5},
			{DisplayName: "Story", ProjectID: "proj-b", ServiceLevelExpectationInDays: 10},
			{DisplayName: "Bug", ServiceLevelExpectationInDays: 3},
		},
		workitem.TagNormalisation: {
			{DisplayName: ValueDemand, ServiceLevelExpectationInDays: 7},
		},
	}
	return newFakeState(items, sles)
}

func TestServiceLevel_DataSplitsTypesByProject(t *testing.T) {
	sl := NewServiceLevel(newTestRequest(serviceLevelFixture(), marchFilters()))

	data, err := sl.Data(context.Background(), workitem.Past)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key       workitem.GroupKey
		sleName   string
		sleDays   int
		count     int
		targetMet float64
	}{
		{workitem.GroupKey{TypeName: "Bug"}, "Bug", 3, 1, 100},
		{workitem.GroupKey{TypeName: "Story", ProjectID: "proj-a"}, "Story", 5, 1, 100},
		{workitem.GroupKey{TypeName: "Story", ProjectID: "proj-b"}, "Story", 10, 2, 50},
		{workitem.GroupKey{TypeName: "Task"}, workitem.UnavailableItemTypeName, 0, 1, 0},
	}
	if len(data.WorkItemTypes) != len(tests) {
		t.Fatalf("len(WorkItemTypes) = %d, want %d: %+v", len(data.WorkItemTypes), len(tests), data.WorkItemTypes)
	}
	for i, tt := range tests {
		got := data.WorkItemTypes[i]
		if got.GroupKey != tt.key {
			t.Errorf("group %d key = %+v, want %+v", i, got.GroupKey, tt.key)
			continue
		}
		if got.SLEDisplayName != tt.sleName || got.ServiceLevelExpectationInDays != tt.sleDays {
			t.Errorf("%+v SLE = %s/%d, want %s/%d", tt.key, got.SLEDisplayName, got.ServiceLevelExpectationInDays, tt.sleName, tt.sleDays)
		}
		if got.Count != tt.count {
			t.Errorf("%+v Count = %d, want %d", tt.key, got.Count, tt.count)
		}
		if got.TargetMet == nil || *got.TargetMet != tt.targetMet {
			t.Errorf("%+v TargetMet = %v, want %v", tt.key, got.TargetMet, tt.targetMet)
		}
		if got.TrendAnalysisSLE == nil {
			t.Errorf("%+v TrendAnalysisSLE is nil", tt.key)
		}
	}

	if len(data.NormalisedDemands) != 2 {
		t.Fatalf("len(NormalisedDemands) = %d, want 2", len(data.NormalisedDemands))
	}
	failure, value := data.NormalisedDemands[0], data.NormalisedDemands[1]
	if failure.TypeName != "Failure Demand" || failure.SLEDisplayName != workitem.UnavailableItemTypeName {
		t.Errorf("NormalisedDemands[0] = %+v, want Failure Demand without SLE", failure)
	}
	if value.TypeName != ValueDemand || value.Count != 2 || *value.TargetMet != 100 {
		t.Errorf("NormalisedDemands[1] = %+v, want 2 value demand items all within 7 days", value)
	}
}

func TestServiceLevel_UnscopedSLECoversOtherProjects(t *testing.T) {
	items := []workitem.StateItem{
		inProject(done("1", "Story", day(time.March, 12), 3), "proj-a", ""),
		inProject(done("2", "Story", day(time.March, 13), 4), "proj-b", ""),
	}

	tests := []struct {
		name string
		sles []workitem.SLEEntry
		want []workitem.GroupKey
		days []int
	}{
		{
			name: "same target merges into one group",
			sles: []workitem.SLEEntry{
				{DisplayName: "Story", ServiceLevelExpectationInDays: 5},
				{DisplayName: "Story", ProjectID: "proj-a", ServiceLevelExpectationInDays: 5},
			},
			want: []workitem.GroupKey{{TypeName: "Story"}},
			days: []int{5},
		},
		{
			name: "project override keeps the unscoped fallback",
			sles: []workitem.SLEEntry{
				{DisplayName: "Story", ServiceLevelExpectationInDays: 5},
				{DisplayName: "Story", ProjectID: "proj-a", ServiceLevelExpectationInDays: 2},
			},
			want: []workitem.GroupKey{{TypeName: "Story", ProjectID: "proj-a"}, {TypeName: "Story", ProjectID: "proj-b"}},
			days: []int{2, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newFakeState(items, map[string][]workitem.SLEEntry{workitem.TagWorkItemType: tt.sles})
			data, err := NewServiceLevel(newTestRequest(state, marchFilters())).Data(context.Background(), workitem.Past)
			if err != nil {
				t.Fatal(err)
			}
			if len(data.WorkItemTypes) != len(tt.want) {
				t.Fatalf("groups = %+v, want %d", data.WorkItemTypes, len(tt.want))
			}
			for i, g := range data.WorkItemTypes {
				if g.GroupKey != tt.want[i] {
					t.Errorf("group %d key = %+v, want %+v", i, g.GroupKey, tt.want[i])
				}
				if g.SLEDisplayName != "Story" || g.ServiceLevelExpectationInDays != tt.days[i] {
					t.Errorf("%+v SLE = %s/%d, want Story/%d", g.GroupKey, g.SLEDisplayName, g.ServiceLevelExpectationInDays, tt.days[i])
				}
			}
		})
	}
}

func TestServiceLevel_FuturePerspectiveHasNoHistory(t *testing.T) {
	arrived := day(time.March, 1)
	items := []workitem.StateItem{{
		WorkItemID:                "9",
		FlomatikaWorkItemTypeName: "Story",
		StateCategory:             workitem.Proposed,
		ArrivalDateTime:           arrived,
		InventoryAgeInWholeDays:   26,
	}}
	sl := NewServiceLevel(newTestRequest(newFakeState(items, nil), marchFilters()))

	data, err := sl.Data(context.Background(), workitem.Future)
	if err != nil {
		t.Fatal(err)
	}
	if len(data.WorkItemTypes) != 1 {
		t.Fatalf("len(WorkItemTypes) = %d, want 1", len(data.WorkItemTypes))
	}
	got := data.WorkItemTypes[0]
	if got.Maximum != 26 {
		t.Errorf("Maximum = %v, want inventory age 26", got.Maximum)
	}
	if got.TargetMet != nil || got.TrendAnalysisSLE != nil || got.Predictability != "" {
		t.Errorf("future group carries history figures: %+v", got)
	}
}

func TestServiceLevel_RejectsUnknownPerspective(t *testing.T) {
	sl := NewServiceLevel(newTestRequest(serviceLevelFixture(), marchFilters()))
	if _, err := sl.Data(context.Background(), workitem.Perspective("sideways")); !IsInvalidInput(err) {
		t.Errorf("Data(sideways) error = %v, want invalid input", err)
	}
}

func TestServiceLevel_UpstreamFailureFailsCall(t *testing.T) {
	state := serviceLevelFixture()
	state.failOn = "GetFQLFilters:" + workitem.TagWorkItemType
	sl := NewServiceLevel(newTestRequest(state, marchFilters()))

	if _, err := sl.Data(context.Background(), workitem.Past); err == nil {
		t.Error("Data() error = nil, want upstream failure")
	}
}

func TestTargetMet(t *testing.T) {
	tests := []struct {
		name  string
		leads []int
		sle   int
		want  float64
	}{
		{"no items", nil, 5, 0},
		{"all within", []int{1, 5}, 5, 100},
		{"one of three", []int{2, 6, 9}, 5, 33},
		{"two of three", []int{2, 3, 9}, 5, 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items []workitem.StateItem
			for _, lt := range tt.leads {
				items = append(items, done("x", "Story", day(time.March, 5), lt))
			}
			if got := TargetMet(items, tt.sle, workitem.Past); got != tt.want {
				t.Errorf("TargetMet() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFortnightTrend(t *testing.T) {
	now := time.Date(2024, time.March, 27, 12, 0, 0, 0, time.UTC)
	weeks := calendar.LastFourFullWeeks(now)
	if weeks.Week1.Number != 9 || weeks.Week4.Number != 12 {
		t.Fatalf("weeks = W%d..W%d, want W9..W12", weeks.Week1.Number, weeks.Week4.Number)
	}

	items := []workitem.StateItem{
		// weeks 1-2: one of two within 5 days
		done("p1", "Story", day(time.February, 28), 3),
		done("p2", "Story", day(time.March, 6), 8),
		// weeks 3-4: three of four within 5 days
		done("l1", "Story", day(time.March, 12), 2),
		done("l2", "Story", day(time.March, 14), 4),
		done("l3", "Story", day(time.March, 19), 9),
		done("l4", "Story", day(time.March, 22), 1),
		// outside the window
		done("o1", "Story", day(time.March, 26), 20),
	}

	got, err := FortnightTrend(items, 5, workitem.Past, weeks)
	if err != nil {
		t.Fatal(err)
	}
	want := trend.Comparison{Percentage: 25, Text: trend.Increase, ArrowDirection: trend.ArrowUp, ArrowColour: "green"}
	if got != want {
		t.Errorf("FortnightTrend() = %+v, want %+v", got, want)
	}
}

func TestFortnightTrend_RejectsNonConsecutiveWeeks(t *testing.T) {
	base := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	weeks := calendar.FourWeeks{
		Week1: calendar.NewWeek(base),
		Week2: calendar.NewWeek(base.AddDate(0, 0, 7)),
		Week3: calendar.NewWeek(base.AddDate(0, 0, 21)),
		Week4: calendar.NewWeek(base.AddDate(0, 0, 28)),
	}
	if _, err := FortnightTrend(nil, 5, workitem.Past, weeks); !IsInvalidInput(err) {
		t.Errorf("FortnightTrend() error = %v, want invalid input", err)
	}
}
