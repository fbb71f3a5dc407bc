package workitem

import (
	"context"

	"flow-metrics/internal/calendar"
)

// StateProvider reads organisation scoped work item state. Results are a
// consistent snapshot per call but carry no ordering guarantee.
type StateProvider interface {
	GetWorkItems(ctx context.Context, orgID string, category StateCategory, filters Filters) ([]StateItem, error)
	// GetNormalisedWorkItems returns items matched by a normalisation filter
	// under tag, with NormalisedDisplayName set to the matching filter.
	GetNormalisedWorkItems(ctx context.Context, orgID string, category StateCategory, filters Filters, tag string) ([]StateItem, error)
	// GetExtendedWorkItems is GetWorkItems with active and waiting time populated.
	GetExtendedWorkItems(ctx context.Context, orgID string, category StateCategory, filters Filters) ([]StateItem, error)
	GetNormalisedExtendedWorkItems(ctx context.Context, orgID string, category StateCategory, filters Filters, tag string) ([]StateItem, error)
	// GetFQLFilters returns the service level expectations configured under tag.
	GetFQLFilters(ctx context.Context, orgID string, tag string) ([]SLEEntry, error)
}

// Filters is the query shape a calculation runs against.
type Filters interface {
	// DatePeriod returns the analysis interval; ok is false when it is missing or invalid.
	DatePeriod() (period calendar.Interval, ok bool)
	Aggregation() calendar.AggregationKey
	WorkItemTypes() []string
	ClientTimezone() string
	ClientLanguage() string
}

// Classification is a foreign key target with a display label.
type Classification struct {
	ID          string `json:"id" db:"id"`
	DisplayName string `json:"displayName" db:"display_name"`
}

// ClassificationService lists the labels of one classification dimension.
type ClassificationService interface {
	GetTypes(ctx context.Context, orgID string) ([]Classification, error)
}

// Dimension names a classification a work item can be grouped by.
type Dimension string

const (
	ByClassOfService Dimension = "classOfService"
	ByValueArea      Dimension = "valueArea"
	ByNatureOfWork   Dimension = "natureOfWork"
	ByWorkItemType   Dimension = "workItemType"
)

// Key returns the foreign key of item for the dimension.
func (d Dimension) Key(item StateItem) string {
	switch d {
	case ByClassOfService:
		return item.ClassOfServiceID
	case ByValueArea:
		return item.ValueAreaID
	case ByNatureOfWork:
		return item.NatureOfWorkID
	default:
		return item.FlomatikaWorkItemTypeID
	}
}

// WidgetInformation describes a dashboard widget; it never alters results.
type WidgetInformation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HowToRead   string `json:"howToRead,omitempty"`
	Link        string `json:"link,omitempty"`
}

// WidgetInformationProvider looks up descriptive widget metadata.
type WidgetInformationProvider interface {
	GetWidgetInformation(ctx context.Context, typeKey string) ([]WidgetInformation, error)
}
