package main

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/opportunity-agent/pkg/search"
)

type uploadRecorder struct {
	mu        sync.Mutex
	batches   [][]search.Team
	uploadErr error
}

func (u *uploadRecorder) GetAllTeams(context.Context) ([]search.Team, error) { return nil, nil }
func (u *uploadRecorder) SearchTeams(context.Context, string, int) ([]search.Team, error) {
	return nil, nil
}
func (u *uploadRecorder) SearchBySkills(context.Context, []string, int) ([]search.Team, error) {
	return nil, nil
}
func (u *uploadRecorder) EnsureIndex(context.Context) error { return nil }

func (u *uploadRecorder) UploadTeams(_ context.Context, teams []search.Team) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.uploadErr != nil {
		return u.uploadErr
	}
	u.batches = append(u.batches, teams)
	return nil
}

func makeTeams(n int) []search.Team {
	teams := make([]search.Team, n)
	for i := range teams {
		teams[i] = search.Team{ID: string(rune('a' + i)), Name: "Equipo"}
	}
	return teams
}

func TestUploadBatchesSplitsCatalog(t *testing.T) {
	rec := &uploadRecorder{}

	err := uploadBatches(t.Context(), rec, makeTeams(7), 3, 2)
	require.NoError(t, err)
	require.Len(t, rec.batches, 3)

	var total int
	for _, b := range rec.batches {
		total += len(b)
	}
	assert.Equal(t, 7, total)
}

func TestUploadBatchesSingleBatch(t *testing.T) {
	rec := &uploadRecorder{}

	err := uploadBatches(t.Context(), rec, makeTeams(2), 100, 4)
	require.NoError(t, err)
	require.Len(t, rec.batches, 1)
	assert.Len(t, rec.batches[0], 2)
}

func TestUploadBatchesUploadError(t *testing.T) {
	rec := &uploadRecorder{uploadErr: eris.New("throttled")}

	err := uploadBatches(t.Context(), rec, makeTeams(5), 2, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestUploadBatchesDefaultsOnBadSettings(t *testing.T) {
	rec := &uploadRecorder{}

	err := uploadBatches(t.Context(), rec, makeTeams(3), 0, 0)
	require.NoError(t, err)
	require.Len(t, rec.batches, 1)
}
