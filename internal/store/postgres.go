// Package store provides the state providers the calculation engine reads from.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"flow-metrics/internal/workitem"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25

	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 5

	// DefaultConnMaxLifetime is the default maximum lifetime of a connection
	DefaultConnMaxLifetime = 5 * time.Minute

	// DefaultPingTimeout is the default timeout for pinging the database
	DefaultPingTimeout = 5 * time.Second
)

// notApplicableProject marks SLE rows that apply to every project.
const notApplicableProject = "NOT_APPLICABLE"

// PostgresConfig holds database configuration
type PostgresConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	User     string `validate:"required"`
	Password string //nolint:gosec // connection config
	DBName   string `validate:"required"`
	SSLMode  string `validate:"required,oneof=disable allow prefer require verify-ca verify-full"`
}

// NewPostgresConnection creates a new PostgreSQL connection with connection pooling
func NewPostgresConnection(cfg PostgresConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

// Postgres reads work item state from the flow database.
type Postgres struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgres wraps an open connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// Close closes the database connection
func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// stateRow is one row of the states table.
type stateRow struct {
	WorkItemID     string          `db:"work_item_id"`
	Title          sql.NullString  `db:"title"`
	TypeID         string          `db:"flomatika_work_item_type_id"`
	TypeName       string          `db:"flomatika_work_item_type_name"`
	TypeLevel      sql.NullString  `db:"flomatika_work_item_type_level"`
	ProjectID      sql.NullString  `db:"project_id"`
	ClassOfService sql.NullString  `db:"class_of_service_id"`
	NatureOfWork   sql.NullString  `db:"nature_of_work_id"`
	ValueArea      sql.NullString  `db:"value_area_id"`
	StateCategory  string          `db:"state_category"`
	State          sql.NullString  `db:"state"`
	Arrival        sql.NullTime    `db:"arrival_date"`
	Commitment     sql.NullTime    `db:"commitment_date"`
	Departure      sql.NullTime    `db:"departure_date"`
	ActiveTime     sql.NullFloat64 `db:"active_time"`
	WaitingTime    sql.NullFloat64 `db:"waiting_time"`
	Normalised     sql.NullString  `db:"normalised_display_name"`
}

func (r stateRow) toItem(now time.Time) workitem.StateItem {
	item := workitem.StateItem{
		WorkItemID:                 r.WorkItemID,
		Title:                      r.Title.String,
		FlomatikaWorkItemTypeID:    r.TypeID,
		FlomatikaWorkItemTypeName:  r.TypeName,
		FlomatikaWorkItemTypeLevel: workitem.Level(r.TypeLevel.String),
		ProjectID:                  r.ProjectID.String,
		ClassOfServiceID:           r.ClassOfService.String,
		NatureOfWorkID:             r.NatureOfWork.String,
		ValueAreaID:                r.ValueArea.String,
		StateCategory:              workitem.StateCategory(r.StateCategory),
		State:                      r.State.String,
		ArrivalDateTime:            nullTime(r.Arrival),
		CommitmentDateTime:         nullTime(r.Commitment),
		DepartureDateTime:          nullTime(r.Departure),
		ActiveTime:                 r.ActiveTime.Float64,
		WaitingTime:                r.WaitingTime.Float64,
		NormalisedDisplayName:      r.Normalised.String,
	}
	return workitem.DeriveDurations(item, now)
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// stateQuery assembles the states select for one category, optional
// normalisation tag and the period and type filters.
func stateQuery(orgID string, category workitem.StateCategory, filters workitem.Filters, tag string, extended bool) (string, []any) {
	var b strings.Builder
	args := []any{orgID, string(category)}

	b.WriteString(`SELECT s.work_item_id, s.title, s.flomatika_work_item_type_id, s.flomatika_work_item_type_name,
		s.flomatika_work_item_type_level, s.project_id, s.class_of_service_id, s.nature_of_work_id, s.value_area_id,
		s.state_category, s.state, s.arrival_date, s.commitment_date, s.departure_date`)
	if extended {
		b.WriteString(`, ft.active_time, ft.waiting_time`)
	} else {
		b.WriteString(`, NULL AS active_time, NULL AS waiting_time`)
	}
	if tag != "" {
		b.WriteString(`, n.display_name AS normalised_display_name`)
	} else {
		b.WriteString(`, NULL AS normalised_display_name`)
	}
	b.WriteString(` FROM states s`)
	if extended {
		b.WriteString(` LEFT JOIN work_item_flow_times ft ON ft.org_id = s.org_id AND ft.work_item_id = s.work_item_id`)
	}
	if tag != "" {
		args = append(args, tag)
		fmt.Fprintf(&b, ` JOIN work_item_normalisation n ON n.org_id = s.org_id AND n.work_item_id = s.work_item_id AND n.tag = $%d`, len(args))
	}
	b.WriteString(` WHERE s.org_id = $1 AND s.state_category = $2 AND s.deleted_at IS NULL`)

	if filters != nil {
		if period, ok := filters.DatePeriod(); ok {
			switch category {
			case workitem.Completed:
				args = append(args, period.Start, period.End)
				fmt.Fprintf(&b, ` AND s.departure_date BETWEEN $%d AND $%d`, len(args)-1, len(args))
			case workitem.InProgress:
				args = append(args, period.End)
				fmt.Fprintf(&b, ` AND s.commitment_date <= $%d`, len(args))
			default:
				args = append(args, period.End)
				fmt.Fprintf(&b, ` AND s.arrival_date <= $%d`, len(args))
			}
		}
		if types := filters.WorkItemTypes(); len(types) > 0 {
			args = append(args, pq.Array(types))
			fmt.Fprintf(&b, ` AND (s.flomatika_work_item_type_id = ANY($%[1]d) OR s.flomatika_work_item_type_name = ANY($%[1]d))`, len(args))
		}
	}
	b.WriteString(` ORDER BY s.work_item_id`)
	return b.String(), args
}

func (p *Postgres) query(ctx context.Context, orgID string, category workitem.StateCategory, filters workitem.Filters, tag string, extended bool) ([]workitem.StateItem, error) {
	q, args := stateQuery(orgID, category, filters, tag, extended)

	var rows []stateRow
	if err := p.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("failed to query %s work items: %w", category, err)
	}

	now := p.now()
	items := make([]workitem.StateItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toItem(now))
	}

	log.Debug().
		Str("org", orgID).
		Str("category", string(category)).
		Str("tag", tag).
		Int("count", len(items)).
		Msg("Loaded work items from postgres")
	return items, nil
}

func (p *Postgres) GetWorkItems(ctx context.Context, orgID string, category workitem.StateCategory, filters workitem.Filters) ([]workitem.StateItem, error) {
	return p.query(ctx, orgID, category, filters, "", false)
}

func (p *Postgres) GetNormalisedWorkItems(ctx context.Context, orgID string, category workitem.StateCategory, filters workitem.Filters, tag string) ([]workitem.StateItem, error) {
	return p.query(ctx, orgID, category, filters, tagOrDefault(tag), false)
}

func (p *Postgres) GetExtendedWorkItems(ctx context.Context, orgID string, category workitem.StateCategory, filters workitem.Filters) ([]workitem.StateItem, error) {
	return p.query(ctx, orgID, category, filters, "", true)
}

func (p *Postgres) GetNormalisedExtendedWorkItems(ctx context.Context, orgID string, category workitem.StateCategory, filters workitem.Filters, tag string) ([]workitem.StateItem, error) {
	return p.query(ctx, orgID, category, filters, tagOrDefault(tag), true)
}

// GetFQLFilters returns the SLE rows under tag. Rows marked as applying to
// every project come back with an empty ProjectID.
func (p *Postgres) GetFQLFilters(ctx context.Context, orgID string, tag string) ([]workitem.SLEEntry, error) {
	query := `SELECT display_name, COALESCE(project_id, '') AS project_id, sle_days
		FROM service_level_expectations
		WHERE org_id = $1 AND tag = $2 AND deleted_at IS NULL
		ORDER BY display_name, project_id`

	var entries []workitem.SLEEntry
	if err := p.db.SelectContext(ctx, &entries, query, orgID, tag); err != nil {
		return nil, fmt.Errorf("failed to query service level expectations: %w", err)
	}
	for i := range entries {
		if entries[i].ProjectID == notApplicableProject {
			entries[i].ProjectID = ""
		}
	}
	return entries, nil
}

var classificationTables = map[workitem.Dimension]string{
	workitem.ByClassOfService: "class_of_services",
	workitem.ByValueArea:      "value_areas",
	workitem.ByNatureOfWork:   "natures_of_work",
	workitem.ByWorkItemType:   "work_item_types",
}

// Classifications returns the lookup service of one dimension.
func (p *Postgres) Classifications(d workitem.Dimension) workitem.ClassificationService {
	return &pgClassifications{db: p.db, table: classificationTables[d]}
}

type pgClassifications struct {
	db    *sqlx.DB
	table string
}

func (c *pgClassifications) GetTypes(ctx context.Context, orgID string) ([]workitem.Classification, error) {
	if c.table == "" {
		return nil, fmt.Errorf("unknown classification dimension")
	}
	// Table names come from classificationTables only.
	query := fmt.Sprintf(`SELECT id, display_name FROM %s WHERE org_id = $1 AND deleted_at IS NULL ORDER BY display_name`, c.table)

	var out []workitem.Classification
	if err := c.db.SelectContext(ctx, &out, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.table, err)
	}
	return out, nil
}

func tagOrDefault(tag string) string {
	if tag == "" {
		return workitem.TagNormalisation
	}
	return tag
}
