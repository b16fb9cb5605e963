// Package store persists opportunity analysis records. The history is
// append-only: each processed payload produces a new record, never an update.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/opportunity-agent/internal/model"
)

// Store defines the persistence interface for analysis records.
type Store interface {
	// SaveAnalysis appends one record. The record's ID is assigned if empty.
	SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) error
	// GetLatestAnalysis returns the most recent record for an opportunity,
	// or nil when none exists.
	GetLatestAnalysis(ctx context.Context, opportunityID string) (*model.AnalysisRecord, error)
	// ListRecent returns records ordered newest first.
	ListRecent(ctx context.Context, limit int) ([]model.AnalysisRecord, error)
	// ListByTower returns records whose analysis names the given tower.
	ListByTower(ctx context.Context, tower string, limit int) ([]model.AnalysisRecord, error)
	// ImportRecords bulk-loads exported records, skipping ids already
	// present. Returns the number of rows actually inserted.
	ImportRecords(ctx context.Context, recs []model.AnalysisRecord) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 50

// Open selects a Store implementation by driver name.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
