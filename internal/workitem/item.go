// Package workitem holds the work item model shared by the calculation engine
// and the contracts of the collaborators that supply it.
package workitem

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Level is the planning level a work item type belongs to.
type Level string

const (
	Portfolio             Level = "Portfolio"
	Team                  Level = "Team"
	IndividualContributor Level = "Individual Contributor"
)

// UnavailableItemTypeName labels groups whose type has no configuration.
const UnavailableItemTypeName = "Unavailable Item Type Name"

// StateCategory is the lifecycle bucket a work item currently sits in.
type StateCategory string

const (
	Proposed   StateCategory = "proposed"
	InProgress StateCategory = "inprogress"
	Completed  StateCategory = "completed"
	Removed    StateCategory = "removed"
)

// Perspective is the viewpoint of an analysis.
type Perspective string

const (
	Past    Perspective = "past"
	Present Perspective = "present"
	Future  Perspective = "future"
)

// ParsePerspective accepts past, present, future and the "upcoming" alias.
func ParsePerspective(s string) (Perspective, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "past":
		return Past, nil
	case "present":
		return Present, nil
	case "future", "upcoming":
		return Future, nil
	}
	return "", fmt.Errorf("unknown perspective %q", s)
}

// StateCategory returns the category of items a perspective looks at.
func (p Perspective) StateCategory() StateCategory {
	switch p {
	case Present:
		return InProgress
	case Future:
		return Proposed
	default:
		return Completed
	}
}

// UsesHistory reports whether the perspective has enough history for
// target met, predictability and trend figures.
func (p Perspective) UsesHistory() bool {
	return p == Past || p == Present
}

// Duration returns the whole-day duration that matters for the perspective:
// lead time for completed work, WIP age for work in progress and inventory age
// for work not yet started.
func (p Perspective) Duration(item StateItem) int {
	switch p {
	case Present:
		return item.WIPAgeInWholeDays
	case Future:
		return item.InventoryAgeInWholeDays
	default:
		return item.LeadTimeInWholeDays
	}
}

// ReferenceDate returns the lifecycle date the perspective places an item at.
func (p Perspective) ReferenceDate(item StateItem) *time.Time {
	switch p {
	case Present:
		return item.CommitmentDateTime
	case Future:
		return item.ArrivalDateTime
	default:
		return item.DepartureDateTime
	}
}

// StateItem is one unit of delivered or in-progress work as read from the state store.
type StateItem struct {
	WorkItemID                 string            `json:"workItemId"`
	Title                      string            `json:"title,omitempty"`
	FlomatikaWorkItemTypeID    string            `json:"flomatikaWorkItemTypeId"`
	FlomatikaWorkItemTypeName  string            `json:"flomatikaWorkItemTypeName"`
	FlomatikaWorkItemTypeLevel Level             `json:"flomatikaWorkItemTypeLevel"`
	ProjectID                  string            `json:"projectId,omitempty"`
	ClassOfServiceID           string            `json:"classOfServiceId,omitempty"`
	NatureOfWorkID             string            `json:"natureOfWorkId,omitempty"`
	ValueAreaID                string            `json:"valueAreaId,omitempty"`
	StateCategory              StateCategory     `json:"stateCategory"`
	State                      string            `json:"state,omitempty"`
	ArrivalDateTime            *time.Time        `json:"arrivalDateTime,omitempty"`
	CommitmentDateTime         *time.Time        `json:"commitmentDateTime,omitempty"`
	DepartureDateTime          *time.Time        `json:"departureDateTime,omitempty"`
	LeadTimeInWholeDays        int               `json:"leadTimeInWholeDays"`
	WIPAgeInWholeDays          int               `json:"wipAgeInWholeDays"`
	InventoryAgeInWholeDays    int               `json:"inventoryAgeInWholeDays"`
	ActiveTime                 float64           `json:"activeTime,omitempty"`
	WaitingTime                float64           `json:"waitingTime,omitempty"`
	Normalisation              map[string]string `json:"normalisation,omitempty"`
	NormalisedDisplayName      string            `json:"normalisedDisplayName,omitempty"`
}

// WholeDaysBetween counts started days between two instants, at least 1 when end >= start.
func WholeDaysBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// DeriveDurations fills the whole-day durations from the lifecycle timestamps
// as of now. Lead time runs from commitment (or arrival when the item skipped
// commitment) to departure.
func DeriveDurations(item StateItem, now time.Time) StateItem {
	start := item.CommitmentDateTime
	if start == nil {
		start = item.ArrivalDateTime
	}

	item.LeadTimeInWholeDays = 0
	item.WIPAgeInWholeDays = 0
	item.InventoryAgeInWholeDays = 0

	switch {
	case item.DepartureDateTime != nil:
		if start != nil {
			item.LeadTimeInWholeDays = WholeDaysBetween(*start, *item.DepartureDateTime)
		}
	case item.CommitmentDateTime != nil:
		item.WIPAgeInWholeDays = WholeDaysBetween(*item.CommitmentDateTime, now)
	case item.ArrivalDateTime != nil:
		item.InventoryAgeInWholeDays = WholeDaysBetween(*item.ArrivalDateTime, now)
	}
	return item
}

// FlowEfficiency returns active time as a percentage of active plus waiting
// time, and false when the item has no recorded time.
func (s StateItem) FlowEfficiency() (float64, bool) {
	total := s.ActiveTime + s.WaitingTime
	if total <= 0 {
		return 0, false
	}
	return s.ActiveTime / total * 100, true
}

// Dedupe keeps the first occurrence of every work item id.
func Dedupe(items []StateItem) []StateItem {
	seen := make(map[string]bool, len(items))
	out := make([]StateItem, 0, len(items))
	for _, it := range items {
		if seen[it.WorkItemID] {
			continue
		}
		seen[it.WorkItemID] = true
		out = append(out, it)
	}
	return out
}
