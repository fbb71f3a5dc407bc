package workitem

import (
	"cmp"
	"slices"
)

// Tags used to ask the state provider for service level expectation configuration.
const (
	TagNormalisation = "normalisation"
	TagWorkItemType  = "workItemType"
)

// SLEEntry is one configured service level expectation. ProjectID is empty
// when the expectation applies to every project.
type SLEEntry struct {
	DisplayName                   string `json:"displayName" db:"display_name"`
	ProjectID                     string `json:"projectId,omitempty" db:"project_id"`
	ServiceLevelExpectationInDays int    `json:"serviceLevelExpectationInDays" db:"sle_days"`
}

// MergedSLE groups SLE entries sharing a display name and target. AllProjects
// is set when at least one merged entry had no project id.
type MergedSLE struct {
	DisplayName                   string   `json:"displayName"`
	ProjectIDs                    []string `json:"projectIds,omitempty"`
	AllProjects                   bool     `json:"allProjects"`
	ServiceLevelExpectationInDays int      `json:"serviceLevelExpectationInDays"`
}

// UnavailableSLE is used when a group has no configured expectation.
var UnavailableSLE = MergedSLE{DisplayName: UnavailableItemTypeName}

// AppliesTo reports whether the expectation covers projectID.
func (m MergedSLE) AppliesTo(projectID string) bool {
	return m.AllProjects || m.Names(projectID)
}

// Names reports whether projectID is listed explicitly.
func (m MergedSLE) Names(projectID string) bool {
	return projectID != "" && slices.Contains(m.ProjectIDs, projectID)
}

// MergeSLEEntries merges rows with identical (displayName, days), concatenating
// their project ids. A row without a project id makes the merged entry cover
// every project. Output is ordered by display name then days.
func MergeSLEEntries(entries []SLEEntry) []MergedSLE {
	type key struct {
		name string
		days int
	}
	index := make(map[key]int)
	var merged []MergedSLE
	for _, e := range entries {
		k := key{e.DisplayName, e.ServiceLevelExpectationInDays}
		i, ok := index[k]
		if !ok {
			i = len(merged)
			index[k] = i
			merged = append(merged, MergedSLE{
				DisplayName:                   e.DisplayName,
				ServiceLevelExpectationInDays: e.ServiceLevelExpectationInDays,
			})
		}
		switch {
		case e.ProjectID == "":
			merged[i].AllProjects = true
		case !slices.Contains(merged[i].ProjectIDs, e.ProjectID):
			merged[i].ProjectIDs = append(merged[i].ProjectIDs, e.ProjectID)
		}
	}
	slices.SortStableFunc(merged, func(a, b MergedSLE) int {
		if c := cmp.Compare(a.DisplayName, b.DisplayName); c != 0 {
			return c
		}
		return cmp.Compare(a.ServiceLevelExpectationInDays, b.ServiceLevelExpectationInDays)
	})
	return merged
}

// GroupKey identifies a service level group. ProjectID is set only when a work
// item type carries different expectations per project.
type GroupKey struct {
	TypeName  string `json:"itemTypeName"`
	ProjectID string `json:"projectId,omitempty"`
}

// ProjectScoped reports whether the group was split by project.
func (k GroupKey) ProjectScoped() bool {
	return k.ProjectID != ""
}
