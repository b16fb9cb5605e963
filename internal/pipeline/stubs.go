package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/opportunity-agent/internal/model"
	"github.com/sells-group/opportunity-agent/internal/store"
	"github.com/sells-group/opportunity-agent/pkg/anthropic"
	"github.com/sells-group/opportunity-agent/pkg/blob"
	"github.com/sells-group/opportunity-agent/pkg/search"
)

// Not-configured stubs. Startup builds every collaborator eagerly; when a
// service's settings are absent, its slot is filled with one of these so that
// only the stages needing that service fail, and they fail with a
// SERVICE_NOT_CONFIGURED classification instead of a nil panic.

// Compile-time interface checks.
var (
	_ search.Client    = (*NotConfiguredSearch)(nil)
	_ anthropic.Client = (*NotConfiguredAnthropic)(nil)
	_ blob.Client      = (*NotConfiguredBlob)(nil)
	_ store.Store      = (*NotConfiguredStore)(nil)
)

// NotConfiguredSearch fails every directory operation.
type NotConfiguredSearch struct{}

func (s *NotConfiguredSearch) err() error {
	return notConfigured("directory", eris.New("search endpoint or key not configured"))
}

func (s *NotConfiguredSearch) GetAllTeams(context.Context) ([]search.Team, error) {
	return nil, s.err()
}

func (s *NotConfiguredSearch) SearchTeams(context.Context, string, int) ([]search.Team, error) {
	return nil, s.err()
}

func (s *NotConfiguredSearch) SearchBySkills(context.Context, []string, int) ([]search.Team, error) {
	return nil, s.err()
}

func (s *NotConfiguredSearch) EnsureIndex(context.Context) error {
	return s.err()
}

func (s *NotConfiguredSearch) UploadTeams(context.Context, []search.Team) error {
	return s.err()
}

// NotConfiguredAnthropic fails the reasoning stage.
type NotConfiguredAnthropic struct{}

func (a *NotConfiguredAnthropic) CreateMessage(context.Context, anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return nil, notConfigured("reasoning", eris.New("anthropic api key not configured"))
}

// NotConfiguredBlob fails report uploads. Upload failures degrade rather
// than abort, so a missing storage account only costs the PDF link.
type NotConfiguredBlob struct{}

func (b *NotConfiguredBlob) UploadPDF(context.Context, string, []byte) (string, error) {
	return "", notConfigured("upload", eris.New("storage account not configured"))
}

func (b *NotConfiguredBlob) EnsureContainer(context.Context) error {
	return notConfigured("upload", eris.New("storage account not configured"))
}

// NotConfiguredStore fails persistence. Like uploads, persistence failures
// degrade: the analysis is still returned without a record id.
type NotConfiguredStore struct{}

func (s *NotConfiguredStore) err() error {
	return notConfigured("persist", eris.New("store not configured"))
}

func (s *NotConfiguredStore) SaveAnalysis(context.Context, *model.AnalysisRecord) error {
	return s.err()
}

func (s *NotConfiguredStore) GetLatestAnalysis(context.Context, string) (*model.AnalysisRecord, error) {
	return nil, s.err()
}

func (s *NotConfiguredStore) ListRecent(context.Context, int) ([]model.AnalysisRecord, error) {
	return nil, s.err()
}

func (s *NotConfiguredStore) ListByTower(context.Context, string, int) ([]model.AnalysisRecord, error) {
	return nil, s.err()
}

func (s *NotConfiguredStore) ImportRecords(context.Context, []model.AnalysisRecord) (int64, error) {
	return 0, s.err()
}

func (s *NotConfiguredStore) Migrate(context.Context) error {
	return s.err()
}

func (s *NotConfiguredStore) Close() error {
	return nil
}
