package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/opportunity-agent/internal/model"
	"github.com/sells-group/opportunity-agent/pkg/anthropic"
	"github.com/sells-group/opportunity-agent/pkg/search"
)

const analysisSystemPrompt = `You are a presales analyst for a technology consulting firm.
You receive one sales opportunity and the catalog of internal delivery teams.
Produce a structured analysis as a single JSON object with exactly these keys:
executive_summary (string), required_towers (array of strings),
team_recommendations (array of objects with team_name, tower, relevance_score 0-1,
matched_skills, justification, estimated_involvement), risks (array of objects with
category, level, description, mitigation), timeline_estimate (string),
effort_estimate (string), analysis_confidence (0-1), recommendations (array of
strings), next_steps (array of strings).
Recommend only teams present in the catalog. Respond with the JSON object only.`

// analyze runs the single reasoning call and parses the structured reply.
// Exactly one model call per pipeline run; a bad reply is classified, never
// retried.
func (p *Pipeline) analyze(ctx context.Context, opp *model.OpportunityRecord, teams []search.Team) (*model.OpportunityAnalysis, error) {
	prompt := p.buildPrompt(opp, teams)

	resp, err := p.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: p.cfg.Anthropic.MaxTokens,
		System:    analysisSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		if se, ok := asStageError(err); ok {
			return nil, se
		}
		return nil, &StageError{Stage: "reasoning", Code: model.ErrAIAnalysis, Err: err}
	}

	resp.Usage.LogCost(p.cfg.Anthropic.Model, "analyze")

	analysis, skipped, err := parseAnalysis(resp.Text())
	if err != nil {
		return nil, &StageError{Stage: "reasoning", Code: model.ErrAIAnalysis, Err: err}
	}
	if skipped > 0 {
		zap.L().Warn("pipeline: dropped malformed team recommendations",
			zap.Int("skipped", skipped),
			zap.String("opportunity_id", opp.ID),
		)
	}
	return analysis, nil
}

// buildPrompt embeds the cleaned opportunity text and a serialized catalog.
// The catalog is capped to keep the prompt inside the token budget.
func (p *Pipeline) buildPrompt(opp *model.OpportunityRecord, teams []search.Team) string {
	var b strings.Builder

	b.WriteString("## Opportunity\n\n")
	b.WriteString(opp.FormatForAnalysis())

	desc := opp.CleanedDescription
	if max := p.cfg.Analysis.MaxDescriptionLen; max > 0 && len(desc) > max {
		desc = desc[:max]
	}
	if desc != "" {
		b.WriteString("\n## Requirement description\n\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}

	b.WriteString("\n## Available delivery teams\n\n")
	if len(teams) == 0 {
		b.WriteString("(no team catalog available)\n")
		return b.String()
	}

	if max := p.cfg.Analysis.MaxTeamsInPrompt; max > 0 && len(teams) > max {
		teams = teams[:max]
	}
	for _, t := range teams {
		fmt.Fprintf(&b, "- %s (tower: %s, lead: %s)\n", t.Name, t.Tower, t.Lead)
		if len(t.Skills) > 0 {
			fmt.Fprintf(&b, "  skills: %s\n", strings.Join(t.Skills, ", "))
		}
		if len(t.Technologies) > 0 {
			fmt.Fprintf(&b, "  technologies: %s\n", strings.Join(t.Technologies, ", "))
		}
		if len(t.ExpertiseAreas) > 0 {
			fmt.Fprintf(&b, "  expertise: %s\n", strings.Join(t.ExpertiseAreas, ", "))
		}
	}
	return b.String()
}

// rawAnalysis mirrors OpportunityAnalysis but defers recommendation decoding
// so malformed entries can be skipped individually.
type rawAnalysis struct {
	ExecutiveSummary    *string           `json:"executive_summary"`
	RequiredTowers      []string          `json:"required_towers"`
	TeamRecommendations []json.RawMessage `json:"team_recommendations"`
	Risks               []model.Risk      `json:"risks"`
	TimelineEstimate    string            `json:"timeline_estimate"`
	EffortEstimate      string            `json:"effort_estimate"`
	AnalysisConfidence  float64           `json:"analysis_confidence"`
	Recommendations     []string          `json:"recommendations"`
	NextSteps           []string          `json:"next_steps"`
}

// parseAnalysis decodes the model reply. Non-object entries in
// team_recommendations are dropped silently; the returned count is only for
// logging. Missing mandatory keys fail the whole parse.
func parseAnalysis(text string) (*model.OpportunityAnalysis, int, error) {
	cleaned := cleanJSON(text)

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, 0, eris.Wrap(err, "pipeline: parse analysis reply")
	}

	if raw.ExecutiveSummary == nil || *raw.ExecutiveSummary == "" {
		return nil, 0, eris.New("pipeline: analysis reply missing executive_summary")
	}
	if raw.TeamRecommendations == nil {
		return nil, 0, eris.New("pipeline: analysis reply missing team_recommendations")
	}

	recs := make([]model.TeamRecommendation, 0, len(raw.TeamRecommendations))
	skipped := 0
	for _, item := range raw.TeamRecommendations {
		trimmed := strings.TrimSpace(string(item))
		if !strings.HasPrefix(trimmed, "{") {
			skipped++
			continue
		}
		var rec model.TeamRecommendation
		if err := json.Unmarshal(item, &rec); err != nil {
			skipped++
			continue
		}
		recs = append(recs, rec)
	}

	return &model.OpportunityAnalysis{
		ExecutiveSummary:    *raw.ExecutiveSummary,
		RequiredTowers:      raw.RequiredTowers,
		TeamRecommendations: recs,
		Risks:               raw.Risks,
		TimelineEstimate:    raw.TimelineEstimate,
		EffortEstimate:      raw.EffortEstimate,
		AnalysisConfidence:  raw.AnalysisConfidence,
		Recommendations:     raw.Recommendations,
		NextSteps:           raw.NextSteps,
	}, skipped, nil
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
