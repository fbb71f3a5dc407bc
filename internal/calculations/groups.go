package calculations

import (
	"cmp"
	"context"
	"slices"

	"flow-metrics/internal/workitem"
)

// GroupCount is the number of items sharing one classification value.
type GroupCount struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Count       int    `json:"count"`
}

// unclassified labels items with no value for a dimension.
const unclassified = "Unclassified"

// countBy groups items by dimension and labels each group from the
// classification service. Ids the service does not know keep their id as label.
func (r *Request) countBy(ctx context.Context, items []workitem.StateItem, d workitem.Dimension) ([]GroupCount, error) {
	labels, err := r.classifications(ctx, d)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(labels))
	for _, l := range labels {
		names[l.ID] = l.DisplayName
	}

	counts := make(map[string]int)
	for _, item := range workitem.Dedupe(items) {
		counts[d.Key(item)]++
	}

	out := make([]GroupCount, 0, len(counts))
	for id, n := range counts {
		name, ok := names[id]
		switch {
		case id == "":
			name = unclassified
		case !ok && d == workitem.ByWorkItemType:
			name = typeName(items, id)
		case !ok:
			name = id
		}
		out = append(out, GroupCount{ID: id, DisplayName: name, Count: n})
	}
	slices.SortFunc(out, func(a, b GroupCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.DisplayName, b.DisplayName)
	})
	return out, nil
}

func typeName(items []workitem.StateItem, typeID string) string {
	for _, it := range items {
		if it.FlomatikaWorkItemTypeID == typeID && it.FlomatikaWorkItemTypeName != "" {
			return it.FlomatikaWorkItemTypeName
		}
	}
	return typeID
}
