package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "analysis_records", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"analysis_records"}, []string{"id", "opportunity_id"}).WillReturnResult(3)

	rows := [][]any{{"r1", "o1"}, {"r2", "o2"}, {"r3", "o3"}}
	n, err := CopyFrom(context.Background(), mock, "analysis_records", []string{"id", "opportunity_id"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"analysis_records"}, []string{"id"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"r1"}}
	_, err = CopyFrom(context.Background(), mock, "analysis_records", []string{"id"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO analysis_records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkImport_EmptyRows(t *testing.T) {
	n, err := BulkImport(context.TODO(), nil, ImportConfig{Table: "analysis_records"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkImport_Validation(t *testing.T) {
	rows := [][]any{{"r1"}}

	_, err := BulkImport(context.TODO(), nil, ImportConfig{Table: "t", ConflictKeys: []string{"id"}}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")

	_, err = BulkImport(context.TODO(), nil, ImportConfig{Table: "t", Columns: []string{"id"}}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys")
}

func TestBulkImport_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cfg := ImportConfig{
		Table:        "analysis_records",
		Columns:      []string{"id", "opportunity_id"},
		ConflictKeys: []string{"id"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_import_analysis_records"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_import_analysis_records"}, cfg.Columns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "analysis_records" .+ ON CONFLICT \("id"\) DO NOTHING`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	rows := [][]any{{"r1", "o1"}, {"r2", "o2"}}
	n, err := BulkImport(context.Background(), mock, cfg, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkImport_ConflictRowsSkipped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cfg := ImportConfig{
		Table:        "analysis_records",
		Columns:      []string{"id", "opportunity_id"},
		ConflictKeys: []string{"id"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_import_analysis_records"}, cfg.Columns).WillReturnResult(2)
	// Only one of the two staged rows is new.
	mock.ExpectExec(`INSERT INTO`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	rows := [][]any{{"r1", "o1"}, {"r2", "o2"}}
	n, err := BulkImport(context.Background(), mock, cfg, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
