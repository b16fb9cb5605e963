package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/opportunity-agent/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analysis_records (
	id                 TEXT PRIMARY KEY,
	opportunity_id     TEXT NOT NULL,
	opportunity_name   TEXT NOT NULL DEFAULT '',
	processed_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	status             TEXT NOT NULL,
	analysis           TEXT NOT NULL,
	event_type         TEXT NOT NULL DEFAULT '',
	estimated_value    REAL NOT NULL DEFAULT 0,
	currency           TEXT NOT NULL DEFAULT '',
	customer_name      TEXT NOT NULL DEFAULT '',
	description_length INTEGER NOT NULL DEFAULT 0,
	pdf_url            TEXT NOT NULL DEFAULT '',
	teams_considered   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_analysis_records_opportunity ON analysis_records(opportunity_id, processed_at DESC);
CREATE INDEX IF NOT EXISTS idx_analysis_records_processed_at ON analysis_records(processed_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteRecordColumns = `id, opportunity_id, opportunity_name, processed_at, status, analysis,
	event_type, estimated_value, currency, customer_name, description_length, pdf_url, teams_considered`

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now().UTC()
	}

	analysisJSON, err := json.Marshal(rec.Analysis)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal analysis")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_records (`+sqliteRecordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OpportunityID, rec.OpportunityName, rec.ProcessedAt, rec.Status, string(analysisJSON),
		rec.EventType, rec.EstimatedValue, rec.Currency, rec.CustomerName,
		rec.DescriptionLength, rec.PDFURL, rec.TeamsConsidered,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert record for %s", rec.OpportunityID)
	}
	return nil
}

func (s *SQLiteStore) GetLatestAnalysis(ctx context.Context, opportunityID string) (*model.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRecordColumns+` FROM analysis_records
		 WHERE opportunity_id = ?
		 ORDER BY processed_at DESC LIMIT 1`,
		opportunityID,
	)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get latest for %s", opportunityID)
	}
	return rec, nil
}

func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteRecordColumns+` FROM analysis_records
		 ORDER BY processed_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recent")
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (s *SQLiteStore) ListByTower(ctx context.Context, tower string, limit int) ([]model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteRecordColumns+` FROM analysis_records
		 WHERE EXISTS (
			SELECT 1 FROM json_each(analysis, '$.required_towers') jt WHERE jt.value = ?
		 )
		 ORDER BY processed_at DESC LIMIT ?`,
		tower, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list by tower %s", tower)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (s *SQLiteStore) ImportRecords(ctx context.Context, recs []model.AnalysisRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: import: begin tx")
	}
	defer tx.Rollback()

	var inserted int64
	for i := range recs {
		rec := &recs[i]
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		analysisJSON, err := json.Marshal(rec.Analysis)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: import: marshal analysis")
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO analysis_records (`+sqliteRecordColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.OpportunityID, rec.OpportunityName, rec.ProcessedAt, rec.Status, string(analysisJSON),
			rec.EventType, rec.EstimatedValue, rec.Currency, rec.CustomerName,
			rec.DescriptionLength, rec.PDFURL, rec.TeamsConsidered,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: import record %s", rec.ID)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: import: commit tx")
	}
	return inserted, nil
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	var analysisJSON string

	err := row.Scan(
		&rec.ID, &rec.OpportunityID, &rec.OpportunityName, &rec.ProcessedAt, &rec.Status, &analysisJSON,
		&rec.EventType, &rec.EstimatedValue, &rec.Currency, &rec.CustomerName,
		&rec.DescriptionLength, &rec.PDFURL, &rec.TeamsConsidered,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(analysisJSON), &rec.Analysis); err != nil {
		return nil, eris.Wrap(err, "unmarshal analysis")
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]model.AnalysisRecord, error) {
	var recs []model.AnalysisRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan record")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "iterate records")
}
