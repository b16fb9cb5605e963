// Package pipeline orchestrates opportunity analysis: normalize the payload,
// snapshot the team directory, run the reasoning call, enrich the
// recommendations with directory contacts, render and upload the report, and
// append the analysis record.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/opportunity-agent/internal/config"
	"github.com/sells-group/opportunity-agent/internal/model"
	"github.com/sells-group/opportunity-agent/internal/payload"
	"github.com/sells-group/opportunity-agent/internal/render"
	"github.com/sells-group/opportunity-agent/internal/store"
	"github.com/sells-group/opportunity-agent/pkg/anthropic"
	"github.com/sells-group/opportunity-agent/pkg/blob"
	"github.com/sells-group/opportunity-agent/pkg/search"
)

// Record statuses persisted with each analysis.
const (
	StatusCompleted           = "completed"
	StatusCompletedWithoutPDF = "completed_without_pdf"
)

// Pipeline holds the collaborators for one process lifetime. Collaborators
// are built eagerly at startup; services whose configuration is missing are
// represented by not-configured stubs so only the stages that need them fail.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	search    search.Client
	anthropic anthropic.Client
	blob      blob.Client

	now func() time.Time
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, searchClient search.Client, aiClient anthropic.Client, blobClient blob.Client) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		search:    searchClient,
		anthropic: aiClient,
		blob:      blobClient,
		now:       time.Now,
	}
}

// Process handles one raw request body end to end and always returns a
// well-formed response envelope: classified errors become error responses,
// never panics or empty bodies. Each invocation is a single attempt; no
// stage retries.
func (p *Pipeline) Process(ctx context.Context, body []byte) *model.Response {
	opp, err := payload.Normalize(body)
	if err != nil {
		var perr *payload.Error
		if errors.As(err, &perr) {
			return model.ErrorResponse(perr.Code, perr.Message, "", "")
		}
		return model.ErrorResponse(model.ErrInvalidJSON, err.Error(), "", "")
	}

	log := zap.L().With(
		zap.String("opportunity_id", opp.ID),
		zap.String("opportunity_name", opp.Name),
		zap.String("event_type", opp.EventType()),
	)
	log.Info("pipeline: processing opportunity")

	// Directory snapshot. A runtime fetch failure degrades to an empty
	// catalog; a missing configuration is a classified refusal.
	teams, err := p.search.GetAllTeams(ctx)
	if err != nil {
		if se, ok := asStageError(err); ok && se.Code == model.ErrServiceNotConfigured {
			return model.ErrorResponse(se.Code, "team directory service is not configured", opp.ID, opp.Name).
				WithRetrySuggested(false)
		}
		log.Warn("pipeline: directory fetch failed, continuing without catalog", zap.Error(err))
		teams = nil
	}
	log.Info("pipeline: directory snapshot", zap.Int("teams", len(teams)))

	analysis, err := p.analyze(ctx, opp, teams)
	if err != nil {
		return p.classifyAnalysisError(err, opp, log)
	}

	analysis.TeamRecommendations = EnrichRecommendations(analysis.TeamRecommendations, teams)

	outputs, status := p.produceOutputs(ctx, opp, analysis, log)

	recordID := p.persist(ctx, opp, analysis, outputs.PDFURL, status, len(teams), log)
	outputs.RecordID = recordID

	log.Info("pipeline: analysis complete",
		zap.String("status", status),
		zap.Int("recommendations", len(analysis.TeamRecommendations)),
	)

	return &model.Response{
		Success:         true,
		OpportunityID:   opp.ID,
		OpportunityName: opp.Name,
		Analysis:        analysis,
		Outputs:         outputs,
		Metadata: model.Metadata{
			ProcessedAt:     p.now().UTC(),
			EventType:       opp.EventType(),
			TeamsConsidered: len(teams),
		},
	}
}

func (p *Pipeline) classifyAnalysisError(err error, opp *model.OpportunityRecord, log *zap.Logger) *model.Response {
	se, ok := asStageError(err)
	if !ok {
		log.Error("pipeline: reasoning failed", zap.Error(err))
		return model.ErrorResponse(model.ErrProcessing, "analysis stage failed", opp.ID, opp.Name)
	}

	log.Error("pipeline: reasoning failed", zap.String("code", string(se.Code)), zap.Error(se))
	switch se.Code {
	case model.ErrServiceNotConfigured:
		return model.ErrorResponse(se.Code, "analysis service is not configured", opp.ID, opp.Name).
			WithRetrySuggested(false)
	case model.ErrAIAnalysis:
		return model.ErrorResponse(se.Code, "the model reply could not be parsed into an analysis", opp.ID, opp.Name)
	default:
		return model.ErrorResponse(model.ErrProcessing, "analysis stage failed", opp.ID, opp.Name)
	}
}

// produceOutputs renders and uploads the artifacts. Failures here never
// discard the analysis: each missing artifact is logged and omitted.
func (p *Pipeline) produceOutputs(ctx context.Context, opp *model.OpportunityRecord, analysis *model.OpportunityAnalysis, log *zap.Logger) (*model.Outputs, string) {
	outputs := &model.Outputs{}
	status := StatusCompleted

	pdfData, err := render.PDF(opp, analysis, p.now())
	if err != nil {
		log.Warn("pipeline: pdf render failed", zap.Error(err))
		status = StatusCompletedWithoutPDF
	} else {
		url, err := p.blob.UploadPDF(ctx, opp.ID, pdfData)
		if err != nil {
			log.Warn("pipeline: pdf upload failed", zap.Error(err))
			status = StatusCompletedWithoutPDF
		} else {
			outputs.PDFURL = url
		}
	}

	card, err := render.AdaptiveCard(opp, analysis, outputs.PDFURL)
	if err != nil {
		log.Warn("pipeline: card render failed", zap.Error(err))
	} else {
		outputs.AdaptiveCard = card
	}

	return outputs, status
}

// persist appends the analysis record. Every request appends; there is no
// dedup against earlier runs for the same opportunity.
func (p *Pipeline) persist(ctx context.Context, opp *model.OpportunityRecord, analysis *model.OpportunityAnalysis, pdfURL, status string, teamsConsidered int, log *zap.Logger) string {
	rec := &model.AnalysisRecord{
		OpportunityID:     opp.ID,
		OpportunityName:   opp.Name,
		ProcessedAt:       p.now().UTC(),
		Status:            status,
		Analysis:          *analysis,
		EventType:         opp.EventType(),
		EstimatedValue:    opp.EstimatedValue,
		Currency:          opp.Currency,
		CustomerName:      opp.CustomerName,
		DescriptionLength: len(opp.CleanedDescription),
		PDFURL:            pdfURL,
		TeamsConsidered:   teamsConsidered,
	}

	if err := p.store.SaveAnalysis(ctx, rec); err != nil {
		log.Warn("pipeline: persist failed", zap.Error(err))
		return ""
	}
	return rec.ID
}
