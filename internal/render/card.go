package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/opportunity-agent/internal/model"
)

const cardSchema = "http://adaptivecards.io/schemas/adaptive-card.json"
const cardVersion = "1.5"

const maxCardTeams = 3

// AdaptiveCard builds the Teams card for a completed analysis. The PDF action
// is included only when a report link exists, so degraded runs still produce
// a postable card.
func AdaptiveCard(opp *model.OpportunityRecord, analysis *model.OpportunityAnalysis, pdfURL string) (json.RawMessage, error) {
	body := []map[string]any{
		{
			"type":   "TextBlock",
			"size":   "Large",
			"weight": "Bolder",
			"text":   fmt.Sprintf("Análisis de Oportunidad: %s", opp.Name),
			"wrap":   true,
		},
		{
			"type": "FactSet",
			"facts": []map[string]string{
				{"title": "Cliente", "value": orNA(opp.CustomerName)},
				{"title": "Valor estimado", "value": formatCardValue(opp)},
				{"title": "Estado", "value": opp.StateName()},
				{"title": "Confianza", "value": fmt.Sprintf("%.0f%%", analysis.AnalysisConfidence*100)},
			},
		},
		{
			"type": "TextBlock",
			"text": analysis.ExecutiveSummary,
			"wrap": true,
		},
	}

	if len(analysis.RequiredTowers) > 0 {
		body = append(body, map[string]any{
			"type":   "TextBlock",
			"weight": "Bolder",
			"text":   "Torres requeridas",
		}, map[string]any{
			"type": "TextBlock",
			"text": strings.Join(analysis.RequiredTowers, ", "),
			"wrap": true,
		})
	}

	recs := analysis.TeamRecommendations
	if len(recs) > maxCardTeams {
		recs = recs[:maxCardTeams]
	}
	for _, rec := range recs {
		line := fmt.Sprintf("**%s** (%.0f%%)", rec.TeamName, rec.RelevanceScore*100)
		if rec.TeamLead != "" {
			line += fmt.Sprintf(" - %s", rec.TeamLead)
			if rec.TeamLeadEmail != "" {
				line += fmt.Sprintf(" <%s>", rec.TeamLeadEmail)
			}
		}
		body = append(body, map[string]any{
			"type": "TextBlock",
			"text": line,
			"wrap": true,
		})
	}

	card := map[string]any{
		"$schema": cardSchema,
		"type":    "AdaptiveCard",
		"version": cardVersion,
		"body":    body,
	}

	if pdfURL != "" {
		card["actions"] = []map[string]any{
			{
				"type":  "Action.OpenUrl",
				"title": "Ver reporte PDF",
				"url":   pdfURL,
			},
		}
	}

	raw, err := json.Marshal(card)
	if err != nil {
		return nil, eris.Wrap(err, "render: marshal card")
	}
	return raw, nil
}

func formatCardValue(opp *model.OpportunityRecord) string {
	if opp.EstimatedValue <= 0 {
		return "N/A"
	}
	cur := opp.Currency
	if cur == "" {
		cur = "USD"
	}
	return fmt.Sprintf("%.2f %s", opp.EstimatedValue, cur)
}
