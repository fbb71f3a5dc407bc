package workitem

import (
	"testing"
	"time"
)

func ptr(t time.Time) *time.Time { return &t }

func TestDeriveDurations(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	arrival := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	commit := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	depart := time.Date(2024, 5, 12, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		item          StateItem
		wantLead      int
		wantWIPAge    int
		wantInventory int
	}{
		{"Completed", StateItem{ArrivalDateTime: &arrival, CommitmentDateTime: &commit, DepartureDateTime: &depart}, 2, 0, 0},
		{"CompletedWithoutCommitment", StateItem{ArrivalDateTime: &arrival, DepartureDateTime: &depart}, 11, 0, 0},
		{"InProgress", StateItem{ArrivalDateTime: &arrival, CommitmentDateTime: &commit}, 0, 11, 0},
		{"Proposed", StateItem{ArrivalDateTime: &arrival}, 0, 0, 20},
		{"SameInstant", StateItem{CommitmentDateTime: &commit, DepartureDateTime: &commit}, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveDurations(tt.item, now)
			if got.LeadTimeInWholeDays != tt.wantLead || got.WIPAgeInWholeDays != tt.wantWIPAge || got.InventoryAgeInWholeDays != tt.wantInventory {
				t.Errorf("DeriveDurations() = lead %d, wip %d, inventory %d; want %d, %d, %d",
					got.LeadTimeInWholeDays, got.WIPAgeInWholeDays, got.InventoryAgeInWholeDays,
					tt.wantLead, tt.wantWIPAge, tt.wantInventory)
			}
		})
	}
}

func TestPerspective(t *testing.T) {
	for _, in := range []string{"upcoming", "FUTURE"} {
		if p, err := ParsePerspective(in); err != nil || p != Future {
			t.Errorf("ParsePerspective(%q) = %v, %v", in, p, err)
		}
	}
	if _, err := ParsePerspective("someday"); err == nil {
		t.Error("unknown perspective should fail")
	}

	item := StateItem{LeadTimeInWholeDays: 3, WIPAgeInWholeDays: 5, InventoryAgeInWholeDays: 8}
	if Past.Duration(item) != 3 || Present.Duration(item) != 5 || Future.Duration(item) != 8 {
		t.Error("perspective picked the wrong duration field")
	}
	if Past.StateCategory() != Completed || Present.StateCategory() != InProgress || Future.StateCategory() != Proposed {
		t.Error("perspective picked the wrong state category")
	}
	if Future.UsesHistory() || !Present.UsesHistory() {
		t.Error("only past and present use history")
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]StateItem{{WorkItemID: "a", Title: "first"}, {WorkItemID: "b"}, {WorkItemID: "a", Title: "second"}})
	if len(got) != 2 || got[0].Title != "first" {
		t.Errorf("Dedupe() = %+v", got)
	}
}

func TestFlowEfficiency(t *testing.T) {
	if v, ok := (StateItem{ActiveTime: 1, WaitingTime: 3}).FlowEfficiency(); !ok || v != 25 {
		t.Errorf("FlowEfficiency() = %v, %v; want 25, true", v, ok)
	}
	if _, ok := (StateItem{}).FlowEfficiency(); ok {
		t.Error("no recorded time should not produce an efficiency")
	}
}
