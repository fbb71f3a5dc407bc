package store

import (
	"fmt"

	"flow-metrics/internal/workitem"
)

// Supported STATE_SOURCE values.
const (
	SourcePostgres = "postgres"
	SourceSnapshot = "snapshot"
)

// Provider is a state provider that can also resolve classification labels.
type Provider interface {
	workitem.StateProvider
	Classifications(d workitem.Dimension) workitem.ClassificationService
	Close() error
}

var (
	_ Provider = (*Postgres)(nil)
	_ Provider = (*Snapshot)(nil)
)

// Open returns the provider selected by source.
func Open(source, snapshotDir string, pg PostgresConfig) (Provider, error) {
	switch source {
	case SourcePostgres:
		db, err := NewPostgresConnection(pg)
		if err != nil {
			return nil, err
		}
		return NewPostgres(db), nil
	case SourceSnapshot:
		return NewSnapshot(snapshotDir), nil
	}
	return nil, fmt.Errorf("unknown state source %q", source)
}
