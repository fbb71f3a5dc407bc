package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flow-metrics/internal/calendar"
	"flow-metrics/internal/workitem"
)

var stateColumns = []string{
	"work_item_id", "title", "flomatika_work_item_type_id", "flomatika_work_item_type_name",
	"flomatika_work_item_type_level", "project_id", "class_of_service_id", "nature_of_work_id", "value_area_id",
	"state_category", "state", "arrival_date", "commitment_date", "departure_date",
	"active_time", "waiting_time", "normalised_display_name",
}

func newPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	p := NewPostgres(sqlx.NewDb(mockDB, "postgres"))
	p.now = func() time.Time { return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC) }
	return p, mock
}

func march(day, hour int) time.Time {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
}

func TestPostgres_GetWorkItems(t *testing.T) {
	p, mock := newPostgres(t)

	rows := sqlmock.NewRows(stateColumns).
		AddRow("W-1", "Login", "t-story", "Story", "Team", "proj-a", nil, nil, nil,
			"completed", "Done", march(1, 8), march(1, 9), march(4, 17), nil, nil, nil).
		AddRow("W-2", nil, "t-bug", "Bug", "Team", nil, "cos-1", nil, nil,
			"completed", "Done", march(2, 8), nil, march(2, 10), nil, nil, nil)

	mock.ExpectQuery(`SELECT s\.work_item_id .* FROM states s WHERE s\.org_id = \$1 AND s\.state_category = \$2 .* AND s\.departure_date BETWEEN \$3 AND \$4 AND .*ANY\(\$5\)`).
		WithArgs("org-1", "completed", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	filters := &workitem.QueryFilters{
		Period: calendar.Interval{Start: march(1, 0), End: march(8, 0)},
		Types:  []string{"Story", "Bug"},
	}
	items, err := p.GetWorkItems(context.Background(), "org-1", workitem.Completed, filters)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "W-1", items[0].WorkItemID)
	assert.Equal(t, workitem.Team, items[0].FlomatikaWorkItemTypeLevel)
	assert.Equal(t, 4, items[0].LeadTimeInWholeDays)
	assert.Equal(t, "proj-a", items[0].ProjectID)

	// No commitment: lead time runs from arrival.
	assert.Equal(t, 1, items[1].LeadTimeInWholeDays)
	assert.Equal(t, "", items[1].Title)
	assert.Equal(t, "cos-1", items[1].ClassOfServiceID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetNormalisedExtendedWorkItems(t *testing.T) {
	p, mock := newPostgres(t)

	rows := sqlmock.NewRows(stateColumns).
		AddRow("W-3", "Invoice", "t-story", "Story", "Team", nil, nil, nil, nil,
			"completed", "Done", march(1, 8), march(2, 8), march(5, 8), 2.0, 6.0, "Value Demand")

	mock.ExpectQuery(`LEFT JOIN work_item_flow_times ft .* JOIN work_item_normalisation n .* n\.tag = \$3`).
		WithArgs("org-1", "completed", workitem.TagNormalisation).
		WillReturnRows(rows)

	items, err := p.GetNormalisedExtendedWorkItems(context.Background(), "org-1", workitem.Completed, nil, "")
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "Value Demand", items[0].NormalisedDisplayName)
	eff, ok := items[0].FlowEfficiency()
	assert.True(t, ok)
	assert.InDelta(t, 25.0, eff, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetWorkItems_InProgressUsesCommitment(t *testing.T) {
	p, mock := newPostgres(t)

	rows := sqlmock.NewRows(stateColumns).
		AddRow("W-4", nil, "t-story", "Story", "Team", nil, nil, nil, nil,
			"inprogress", "Doing", march(1, 8), march(3, 12), nil, nil, nil, nil)

	mock.ExpectQuery(`AND s\.commitment_date <= \$3`).
		WithArgs("org-1", "inprogress", sqlmock.AnyArg()).
		WillReturnRows(rows)

	filters := &workitem.QueryFilters{Period: calendar.Interval{Start: march(1, 0), End: march(9, 0)}}
	items, err := p.GetWorkItems(context.Background(), "org-1", workitem.InProgress, filters)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].WIPAgeInWholeDays)
	assert.Equal(t, 0, items[0].LeadTimeInWholeDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetWorkItems_PropagatesError(t *testing.T) {
	p, mock := newPostgres(t)

	mock.ExpectQuery("SELECT s.work_item_id").WillReturnError(sql.ErrConnDone)

	_, err := p.GetWorkItems(context.Background(), "org-1", workitem.Completed, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetFQLFilters(t *testing.T) {
	p, mock := newPostgres(t)

	rows := sqlmock.NewRows([]string{"display_name", "project_id", "sle_days"}).
		AddRow("Story", "NOT_APPLICABLE", 10).
		AddRow("Story", "proj-b", 15).
		AddRow("Bug", "", 3)

	mock.ExpectQuery("SELECT display_name, COALESCE\\(project_id, ''\\) AS project_id, sle_days FROM service_level_expectations").
		WithArgs("org-1", workitem.TagWorkItemType).
		WillReturnRows(rows)

	entries, err := p.GetFQLFilters(context.Background(), "org-1", workitem.TagWorkItemType)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, workitem.SLEEntry{DisplayName: "Story", ProjectID: "", ServiceLevelExpectationInDays: 10}, entries[0])
	assert.Equal(t, "proj-b", entries[1].ProjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Classifications(t *testing.T) {
	p, mock := newPostgres(t)

	rows := sqlmock.NewRows([]string{"id", "display_name"}).
		AddRow("cos-1", "Expedite").
		AddRow("cos-2", "Standard")
	mock.ExpectQuery("SELECT id, display_name FROM class_of_services").
		WithArgs("org-1").
		WillReturnRows(rows)

	types, err := p.Classifications(workitem.ByClassOfService).GetTypes(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, []workitem.Classification{{ID: "cos-1", DisplayName: "Expedite"}, {ID: "cos-2", DisplayName: "Standard"}}, types)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStateQuery_WithoutFilters(t *testing.T) {
	q, args := stateQuery("org-1", workitem.Proposed, nil, "", false)

	assert.Len(t, args, 2)
	assert.Contains(t, q, "NULL AS active_time")
	assert.NotContains(t, q, "work_item_normalisation")
	assert.NotContains(t, q, "arrival_date <=")
}
