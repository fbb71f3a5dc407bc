package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"flow-metrics/internal/calendar"
	"flow-metrics/internal/workitem"
)

// SnapshotSLE is one line of an <org>.sle.jsonl file.
type SnapshotSLE struct {
	Tag string `json:"tag"`
	workitem.SLEEntry
}

// SnapshotClassification is one line of an <org>.classifications.jsonl file.
type SnapshotClassification struct {
	Dimension workitem.Dimension `json:"dimension"`
	workitem.Classification
}

type orgSnapshot struct {
	items   []workitem.StateItem
	sles    []SnapshotSLE
	classes []SnapshotClassification
}

// Snapshot serves work item state from JSONL files in a directory, one set
// of files per organisation. Files are read once per organisation.
type Snapshot struct {
	dir string
	now func() time.Time

	mu   sync.RWMutex
	orgs map[string]*orgSnapshot
}

// NewSnapshot creates a provider reading from dir.
func NewSnapshot(dir string) *Snapshot {
	return &Snapshot{
		dir:  dir,
		now:  time.Now,
		orgs: make(map[string]*orgSnapshot),
	}
}

func (s *Snapshot) paths(orgID string) (items, sles, classes string) {
	return filepath.Join(s.dir, fmt.Sprintf("%s.jsonl", orgID)),
		filepath.Join(s.dir, fmt.Sprintf("%s.sle.jsonl", orgID)),
		filepath.Join(s.dir, fmt.Sprintf("%s.classifications.jsonl", orgID))
}

// Load reads the files of orgID, replacing anything held in memory.
// Missing files are treated as empty.
func (s *Snapshot) Load(orgID string) error {
	itemsPath, slePath, classPath := s.paths(orgID)

	items, err := readJSONL[workitem.StateItem](itemsPath)
	if err != nil {
		return err
	}
	sles, err := readJSONL[SnapshotSLE](slePath)
	if err != nil {
		return err
	}
	classes, err := readJSONL[SnapshotClassification](classPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.orgs[orgID] = &orgSnapshot{items: items, sles: sles, classes: classes}
	s.mu.Unlock()

	log.Info().
		Str("org", orgID).
		Int("items", len(items)).
		Int("sles", len(sles)).
		Msg("Loaded snapshot")
	return nil
}

// Put replaces the in-memory state of orgID.
func (s *Snapshot) Put(orgID string, items []workitem.StateItem, sles []SnapshotSLE, classes []SnapshotClassification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[orgID] = &orgSnapshot{
		items:   slices.Clone(items),
		sles:    slices.Clone(sles),
		classes: slices.Clone(classes),
	}
}

// Save persists the in-memory state of orgID.
func (s *Snapshot) Save(orgID string) error {
	s.mu.RLock()
	org, ok := s.orgs[orgID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	itemsPath, slePath, classPath := s.paths(orgID)
	if err := writeJSONL(itemsPath, org.items); err != nil {
		return err
	}
	if err := writeJSONL(slePath, org.sles); err != nil {
		return err
	}
	if err := writeJSONL(classPath, org.classes); err != nil {
		return err
	}

	log.Info().Str("org", orgID).Int("items", len(org.items)).Msg("Snapshot saved")
	return nil
}

// Close is a no-op; snapshots hold no connections.
func (s *Snapshot) Close() error { return nil }

func (s *Snapshot) org(orgID string) (*orgSnapshot, error) {
	s.mu.RLock()
	org, ok := s.orgs[orgID]
	s.mu.RUnlock()
	if ok {
		return org, nil
	}
	if err := s.Load(orgID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orgs[orgID], nil
}

func (s *Snapshot) selectItems(ctx context.Context, orgID string, category workitem.StateCategory, filters workitem.Filters, tag string, extended bool) ([]workitem.StateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	org, err := s.org(orgID)
	if err != nil {
		return nil, err
	}

	period, hasPeriod := periodOf(filters)
	var types []string
	if filters != nil {
		types = filters.WorkItemTypes()
	}

	now := s.now()
	var out []workitem.StateItem
	for _, item := range org.items {
		if item.StateCategory != category {
			continue
		}
		if hasPeriod && !inPeriod(item, category, period) {
			continue
		}
		if len(types) > 0 && !slices.Contains(types, item.FlomatikaWorkItemTypeID) && !slices.Contains(types, item.FlomatikaWorkItemTypeName) {
			continue
		}
		if tag != "" {
			name := item.Normalisation[tag]
			if name == "" {
				continue
			}
			item.NormalisedDisplayName = name
		}
		if !extended {
			item.ActiveTime, item.WaitingTime = 0, 0
		}
		out = append(out, workitem.DeriveDurations(item, now))
	}
	return out, nil
}

func (s *Snapshot) GetWorkItems(ctx context.Context, orgID string, category workitem.StateCategory, filters workitem.Filters) ([]workitem.StateItem, error) {
	return s.selectItems(ctx, orgID, category, filters, "", false)
}

func (s *Snapshot) GetNormalisedWorkItems(ctx context.Context, orgID string, category workitem.StateCategory, filters workitem.Filters, tag string) ([]workitem.StateItem, error) {
	return s.selectItems(ctx, orgID, category, filters, tagOrDefault(tag), false)
}

func (s *Snapshot) GetExtendedWorkItems(ctx context.Context, orgID string, category workitem.StateCategory, filters workitem.Filters) ([]workitem.StateItem, error) {
	return s.selectItems(ctx, orgID, category, filters, "", true)
}

func (s *Snapshot) GetNormalisedExtendedWorkItems(ctx context.Context, orgID string, category workitem.StateCategory, filters workitem.Filters, tag string) ([]workitem.StateItem, error) {
	return s.selectItems(ctx, orgID, category, filters, tagOrDefault(tag), true)
}

func (s *Snapshot) GetFQLFilters(ctx context.Context, orgID string, tag string) ([]workitem.SLEEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	org, err := s.org(orgID)
	if err != nil {
		return nil, err
	}
	var out []workitem.SLEEntry
	for _, e := range org.sles {
		if e.Tag != tag {
			continue
		}
		entry := e.SLEEntry
		if entry.ProjectID == notApplicableProject {
			entry.ProjectID = ""
		}
		out = append(out, entry)
	}
	return out, nil
}

// Classifications returns the lookup service of one dimension.
func (s *Snapshot) Classifications(d workitem.Dimension) workitem.ClassificationService {
	return snapshotClassifications{s: s, dimension: d}
}

type snapshotClassifications struct {
	s         *Snapshot
	dimension workitem.Dimension
}

func (c snapshotClassifications) GetTypes(ctx context.Context, orgID string) ([]workitem.Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	org, err := c.s.org(orgID)
	if err != nil {
		return nil, err
	}
	var out []workitem.Classification
	for _, cl := range org.classes {
		if cl.Dimension == c.dimension {
			out = append(out, cl.Classification)
		}
	}
	return out, nil
}

// inPeriod applies the same period rule as the postgres query: completed
// items by departure within the period, other items by having started or
// arrived by its end.
func inPeriod(item workitem.StateItem, category workitem.StateCategory, period calendar.Interval) bool {
	switch category {
	case workitem.Completed:
		return item.DepartureDateTime != nil && period.Contains(*item.DepartureDateTime)
	case workitem.InProgress:
		return item.CommitmentDateTime != nil && !item.CommitmentDateTime.After(period.End)
	default:
		return item.ArrivalDateTime != nil && !item.ArrivalDateTime.After(period.End)
	}
}

func periodOf(filters workitem.Filters) (calendar.Interval, bool) {
	if filters == nil {
		return calendar.Interval{}, false
	}
	return filters.DatePeriod()
}
