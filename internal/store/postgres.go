package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/opportunity-agent/internal/db"
	"github.com/sells-group/opportunity-agent/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const pgRecordColumns = `id, opportunity_id, opportunity_name, processed_at, status, analysis,
	event_type, estimated_value, currency, customer_name, description_length, pdf_url, teams_considered`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot-path store operations.
var preparedStatements = map[string]string{
	"insert_record": `INSERT INTO analysis_records (` + pgRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
	"get_latest": `SELECT ` + pgRecordColumns + ` FROM analysis_records
		WHERE opportunity_id = $1 ORDER BY processed_at DESC LIMIT 1`,
	"list_recent": `SELECT ` + pgRecordColumns + ` FROM analysis_records
		ORDER BY processed_at DESC LIMIT $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analysis_records (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	opportunity_id     TEXT NOT NULL,
	opportunity_name   TEXT NOT NULL DEFAULT '',
	processed_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	status             TEXT NOT NULL,
	analysis           JSONB NOT NULL,
	event_type         TEXT NOT NULL DEFAULT '',
	estimated_value    DOUBLE PRECISION NOT NULL DEFAULT 0,
	currency           TEXT NOT NULL DEFAULT '',
	customer_name      TEXT NOT NULL DEFAULT '',
	description_length INTEGER NOT NULL DEFAULT 0,
	pdf_url            TEXT NOT NULL DEFAULT '',
	teams_considered   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_analysis_records_opportunity ON analysis_records(opportunity_id, processed_at DESC);
CREATE INDEX IF NOT EXISTS idx_analysis_records_processed_at ON analysis_records(processed_at DESC);
CREATE INDEX IF NOT EXISTS idx_analysis_records_towers ON analysis_records USING GIN ((analysis->'required_towers'));
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now().UTC()
	}

	analysisJSON, err := json.Marshal(rec.Analysis)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal analysis")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analysis_records (`+pgRecordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID, rec.OpportunityID, rec.OpportunityName, rec.ProcessedAt, rec.Status, analysisJSON,
		rec.EventType, rec.EstimatedValue, rec.Currency, rec.CustomerName,
		rec.DescriptionLength, rec.PDFURL, rec.TeamsConsidered,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert record for %s", rec.OpportunityID)
	}
	return nil
}

func (s *PostgresStore) GetLatestAnalysis(ctx context.Context, opportunityID string) (*model.AnalysisRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgRecordColumns+` FROM analysis_records
		 WHERE opportunity_id = $1 ORDER BY processed_at DESC LIMIT 1`,
		opportunityID,
	)

	rec, err := scanPgRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get latest for %s", opportunityID)
	}
	return rec, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+pgRecordColumns+` FROM analysis_records
		 ORDER BY processed_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recent")
	}
	defer rows.Close()

	return collectPgRecords(rows)
}

func (s *PostgresStore) ListByTower(ctx context.Context, tower string, limit int) ([]model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+pgRecordColumns+` FROM analysis_records
		 WHERE analysis->'required_towers' ? $1
		 ORDER BY processed_at DESC LIMIT $2`,
		tower, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list by tower %s", tower)
	}
	defer rows.Close()

	return collectPgRecords(rows)
}

// importColumns matches the order expected by bulk record import.
var importColumns = []string{
	"id", "opportunity_id", "opportunity_name", "processed_at", "status", "analysis",
	"event_type", "estimated_value", "currency", "customer_name", "description_length", "pdf_url", "teams_considered",
}

func (s *PostgresStore) ImportRecords(ctx context.Context, recs []model.AnalysisRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		analysisJSON, err := json.Marshal(rec.Analysis)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: import: marshal analysis")
		}
		rows = append(rows, []any{
			rec.ID, rec.OpportunityID, rec.OpportunityName, rec.ProcessedAt, rec.Status, analysisJSON,
			rec.EventType, rec.EstimatedValue, rec.Currency, rec.CustomerName,
			rec.DescriptionLength, rec.PDFURL, rec.TeamsConsidered,
		})
	}

	return db.BulkImport(ctx, s.pool, db.ImportConfig{
		Table:        "analysis_records",
		Columns:      importColumns,
		ConflictKeys: []string{"id"},
	}, rows)
}

func scanPgRecord(row pgx.Row) (*model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	var analysisJSON []byte

	err := row.Scan(
		&rec.ID, &rec.OpportunityID, &rec.OpportunityName, &rec.ProcessedAt, &rec.Status, &analysisJSON,
		&rec.EventType, &rec.EstimatedValue, &rec.Currency, &rec.CustomerName,
		&rec.DescriptionLength, &rec.PDFURL, &rec.TeamsConsidered,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(analysisJSON, &rec.Analysis); err != nil {
		return nil, eris.Wrap(err, "unmarshal analysis")
	}
	return &rec, nil
}

func collectPgRecords(rows pgx.Rows) ([]model.AnalysisRecord, error) {
	var recs []model.AnalysisRecord
	for rows.Next() {
		rec, err := scanPgRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan record")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "iterate records")
}
