package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/opportunity-agent/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveAnalysis_AssignsID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO analysis_records`).
		WithArgs(pgxmock.AnyArg(), "OPP-001", "CRM Modernization", pgxmock.AnyArg(), "completed", pgxmock.AnyArg(),
			"Update", 150000.0, "USD", "Acme Corp", 1200, "https://example.com/r.pdf", 12).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := model.AnalysisRecord{
		OpportunityID:     "OPP-001",
		OpportunityName:   "CRM Modernization",
		Status:            "completed",
		EventType:         "Update",
		EstimatedValue:    150000,
		Currency:          "USD",
		CustomerName:      "Acme Corp",
		DescriptionLength: 1200,
		PDFURL:            "https://example.com/r.pdf",
		TeamsConsidered:   12,
	}
	err := s.SaveAnalysis(context.Background(), &rec)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.ProcessedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLatest_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM analysis_records\s+WHERE opportunity_id = \$1`).
		WithArgs("OPP-MISSING").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetLatestAnalysis(context.Background(), "OPP-MISSING")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLatest_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	analysis := model.OpportunityAnalysis{
		ExecutiveSummary: "Summary.",
		RequiredTowers:   []string{"Torre IA"},
	}
	analysisJSON, err := json.Marshal(analysis)
	require.NoError(t, err)

	processedAt := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "opportunity_id", "opportunity_name", "processed_at", "status", "analysis",
		"event_type", "estimated_value", "currency", "customer_name", "description_length", "pdf_url", "teams_considered",
	}).AddRow(
		"rec-1", "OPP-001", "CRM Modernization", processedAt, "completed", analysisJSON,
		"Update", 150000.0, "USD", "Acme Corp", 1200, "", 12,
	)

	mock.ExpectQuery(`SELECT .+ FROM analysis_records\s+WHERE opportunity_id = \$1`).
		WithArgs("OPP-001").
		WillReturnRows(rows)

	got, err := s.GetLatestAnalysis(context.Background(), "OPP-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rec-1", got.ID)
	assert.Equal(t, []string{"Torre IA"}, got.Analysis.RequiredTowers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecent_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "opportunity_id", "opportunity_name", "processed_at", "status", "analysis",
		"event_type", "estimated_value", "currency", "customer_name", "description_length", "pdf_url", "teams_considered",
	})

	mock.ExpectQuery(`SELECT .+ FROM analysis_records\s+ORDER BY processed_at DESC LIMIT \$1`).
		WithArgs(defaultListLimit).
		WillReturnRows(rows)

	recs, err := s.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListByTower(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "opportunity_id", "opportunity_name", "processed_at", "status", "analysis",
		"event_type", "estimated_value", "currency", "customer_name", "description_length", "pdf_url", "teams_considered",
	}).AddRow(
		"rec-1", "OPP-A", "", time.Now().UTC(), "completed", []byte(`{"executive_summary":"s","required_towers":["Torre IA"]}`),
		"", 0.0, "", "", 0, "", 0,
	)

	mock.ExpectQuery(`WHERE analysis->'required_towers'`).
		WithArgs("Torre IA", 10).
		WillReturnRows(rows)

	recs, err := s.ListByTower(context.Background(), "Torre IA", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "OPP-A", recs[0].OpportunityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ImportRecords_UsesBulkImport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_import_analysis_records"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_import_analysis_records"}, importColumns).WillReturnResult(2)
	mock.ExpectExec(`ON CONFLICT \("id"\) DO NOTHING`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	recs := []model.AnalysisRecord{
		{ID: "r1", OpportunityID: "OPP-1", Status: "completed", ProcessedAt: time.Now().UTC()},
		{ID: "r2", OpportunityID: "OPP-2", Status: "completed", ProcessedAt: time.Now().UTC()},
	}
	n, err := s.ImportRecords(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
