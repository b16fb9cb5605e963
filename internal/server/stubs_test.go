package server

import (
	"context"

	"github.com/sells-group/opportunity-agent/pkg/anthropic"
	"github.com/sells-group/opportunity-agent/pkg/search"
)

type stubSearch struct {
	teams []search.Team
}

func (s *stubSearch) GetAllTeams(context.Context) ([]search.Team, error) {
	if s.teams != nil {
		return s.teams, nil
	}
	return []search.Team{
		{ID: "t1", Name: "TORRE IA", Tower: "Torre IA", Lead: "A", LeadEmail: "a@x.com"},
	}, nil
}

func (s *stubSearch) SearchTeams(ctx context.Context, _ string, _ int) ([]search.Team, error) {
	return s.GetAllTeams(ctx)
}

func (s *stubSearch) SearchBySkills(ctx context.Context, _ []string, _ int) ([]search.Team, error) {
	return s.GetAllTeams(ctx)
}

func (s *stubSearch) EnsureIndex(context.Context) error { return nil }

func (s *stubSearch) UploadTeams(context.Context, []search.Team) error { return nil }

type stubAnthropic struct {
	reply string
}

func (a *stubAnthropic) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return &anthropic.MessageResponse{
		ID:      "msg-stub",
		Model:   req.Model,
		Content: []anthropic.ContentBlock{{Type: "text", Text: a.reply}},
	}, nil
}

type stubBlob struct {
	url string
}

func (b *stubBlob) UploadPDF(context.Context, string, []byte) (string, error) {
	return b.url, nil
}

func (b *stubBlob) EnsureContainer(context.Context) error { return nil }
