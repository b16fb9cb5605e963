// Package render produces the delivery artifacts for a completed analysis:
// an executive PDF report and a Teams Adaptive Card.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"

	"github.com/sells-group/opportunity-agent/internal/model"
)

// Corporate accent color used for headings and table headers.
var accentColor = struct{ r, g, b int }{0, 120, 212}

const maxPDFTeams = 5
const maxPDFRisks = 3

// PDF renders the executive report. Output is deterministic for a given
// analysis and timestamp, which keeps snapshot comparisons meaningful.
func PDF(opp *model.OpportunityRecord, analysis *model.OpportunityAnalysis, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(generatedAt.UTC())
	pdf.SetModificationDate(generatedAt.UTC())
	pdf.SetMargins(25, 25, 25)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()

	// Core fonts are cp1252; translate so accented names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Title block.
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(accentColor.r, accentColor.g, accentColor.b)
	pdf.CellFormat(0, 12, tr("RESUMEN EJECUTIVO"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Oportunidad %s", opp.ID)), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(0, 7, tr(opp.Name), "", "C", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Fecha de análisis: %s", generatedAt.UTC().Format("2006-01-02"))), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	writeHeading(pdf, tr, "RESUMEN EJECUTIVO")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, tr(analysis.ExecutiveSummary), "", "J", false)
	pdf.Ln(4)

	if len(analysis.RequiredTowers) > 0 {
		writeHeading(pdf, tr, "TORRES ORGANIZACIONALES REQUERIDAS")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(strings.Join(analysis.RequiredTowers, ", ")), "", "L", false)
		pdf.Ln(4)
	}

	if len(analysis.TeamRecommendations) > 0 {
		writeHeading(pdf, tr, "EQUIPOS RECOMENDADOS")
		writeTeamTable(pdf, tr, analysis.TeamRecommendations)
		pdf.Ln(4)
	}

	if len(analysis.Risks) > 0 {
		writeHeading(pdf, tr, "RIESGOS PRINCIPALES")
		risks := analysis.Risks
		if len(risks) > maxPDFRisks {
			risks = risks[:maxPDFRisks]
		}
		for _, r := range risks {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s (%s)", r.Category, r.Level)), "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(r.Description), "", "L", false)
			if r.Mitigation != "" {
				pdf.SetFont("Helvetica", "I", 9)
				pdf.MultiCell(0, 5, tr(fmt.Sprintf("Mitigación: %s", r.Mitigation)), "", "L", false)
			}
			pdf.Ln(2)
		}
		pdf.Ln(2)
	}

	writeHeading(pdf, tr, "ESTIMACIONES")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("Timeline: %s", orNA(analysis.TimelineEstimate))), "", "L", false)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("Esfuerzo: %s", orNA(analysis.EffortEstimate))), "", "L", false)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("Confianza del análisis: %.0f%%", analysis.AnalysisConfidence*100)), "", "L", false)
	pdf.Ln(4)

	if len(analysis.Recommendations) > 0 {
		writeHeading(pdf, tr, "RECOMENDACIONES")
		writeBullets(pdf, tr, analysis.Recommendations)
		pdf.Ln(2)
	}

	if len(analysis.NextSteps) > 0 {
		writeHeading(pdf, tr, "PRÓXIMOS PASOS")
		writeBullets(pdf, tr, analysis.NextSteps)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, eris.Wrap(err, "render: pdf output")
	}
	return buf.Bytes(), nil
}

func writeHeading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(accentColor.r, accentColor.g, accentColor.b)
	pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func writeTeamTable(pdf *fpdf.Fpdf, tr func(string) string, recs []model.TeamRecommendation) {
	if len(recs) > maxPDFTeams {
		recs = recs[:maxPDFTeams]
	}

	widths := []float64{50, 30, 25, 60}
	headers := []string{"Equipo", "Torre", "Relevancia", "Líder"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(accentColor.r, accentColor.g, accentColor.b)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(245, 245, 220)
	for _, rec := range recs {
		pdf.CellFormat(widths[0], 7, tr(rec.TeamName), "1", 0, "L", true, 0, "")
		pdf.CellFormat(widths[1], 7, tr(rec.Tower), "1", 0, "L", true, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%.0f%%", rec.RelevanceScore*100), "1", 0, "C", true, 0, "")
		pdf.CellFormat(widths[3], 7, tr(rec.TeamLead), "1", 0, "L", true, 0, "")
		pdf.Ln(-1)
	}
}

func writeBullets(pdf *fpdf.Fpdf, tr func(string) string, items []string) {
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.MultiCell(0, 5, tr("- "+item), "", "L", false)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
