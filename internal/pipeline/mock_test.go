package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/opportunity-agent/internal/model"
	"github.com/sells-group/opportunity-agent/pkg/anthropic"
	"github.com/sells-group/opportunity-agent/pkg/search"
)

// Shared test fakes for orchestrator tests.

type fakeSearch struct {
	teams []search.Team
	err   error
	calls int
}

func (f *fakeSearch) GetAllTeams(context.Context) ([]search.Team, error) {
	f.calls++
	return f.teams, f.err
}

func (f *fakeSearch) SearchTeams(context.Context, string, int) ([]search.Team, error) {
	return f.teams, f.err
}

func (f *fakeSearch) SearchBySkills(context.Context, []string, int) ([]search.Team, error) {
	return f.teams, f.err
}

func (f *fakeSearch) EnsureIndex(context.Context) error { return f.err }

func (f *fakeSearch) UploadTeams(context.Context, []search.Team) error { return f.err }

type fakeAnthropic struct {
	reply   string
	err     error
	lastReq anthropic.MessageRequest
	calls   int
}

func (f *fakeAnthropic) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		ID:      "msg-test",
		Model:   req.Model,
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.reply}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}, nil
}

type fakeBlob struct {
	url      string
	err      error
	uploaded [][]byte
}

func (f *fakeBlob) UploadPDF(_ context.Context, _ string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploaded = append(f.uploaded, data)
	return f.url, nil
}

func (f *fakeBlob) EnsureContainer(context.Context) error { return f.err }

type fakeStore struct {
	saved   []model.AnalysisRecord
	saveErr error
	nextID  int
}

func (f *fakeStore) SaveAnalysis(_ context.Context, rec *model.AnalysisRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if rec.ID == "" {
		f.nextID++
		rec.ID = "rec-" + string(rune('0'+f.nextID))
	}
	f.saved = append(f.saved, *rec)
	return nil
}

func (f *fakeStore) GetLatestAnalysis(context.Context, string) (*model.AnalysisRecord, error) {
	if len(f.saved) == 0 {
		return nil, nil
	}
	rec := f.saved[len(f.saved)-1]
	return &rec, nil
}

func (f *fakeStore) ListRecent(context.Context, int) ([]model.AnalysisRecord, error) {
	return f.saved, nil
}

func (f *fakeStore) ListByTower(context.Context, string, int) ([]model.AnalysisRecord, error) {
	return f.saved, nil
}

func (f *fakeStore) ImportRecords(_ context.Context, recs []model.AnalysisRecord) (int64, error) {
	f.saved = append(f.saved, recs...)
	return int64(len(recs)), nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }

func (f *fakeStore) Close() error { return nil }

var errBoom = eris.New("boom")
