package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/opportunity-agent/internal/model"
	"github.com/sells-group/opportunity-agent/pkg/search"
)

// accentFolder strips combining marks so that "Análisis" and "Analisis"
// compare equal.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// matchKey reduces a team name to its comparison form: accent-folded,
// lowercased, with punctuation and whitespace removed.
func matchKey(name string) string {
	folded, _, err := transform.String(accentFolder, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EnrichRecommendations overlays authoritative directory data onto the
// model's team recommendations. On a name match the lead name, lead email
// and tower are taken from the directory; recommendations without a match
// pass through untouched. Input order is preserved.
func EnrichRecommendations(recs []model.TeamRecommendation, teams []search.Team) []model.TeamRecommendation {
	if len(recs) == 0 {
		return recs
	}

	index := make(map[string]search.Team, len(teams))
	for _, t := range teams {
		key := matchKey(t.Name)
		if key == "" {
			continue
		}
		index[key] = t
	}

	out := make([]model.TeamRecommendation, len(recs))
	for i, rec := range recs {
		out[i] = rec
		team, ok := index[matchKey(rec.TeamName)]
		if !ok {
			continue
		}
		out[i].TeamLead = team.Lead
		out[i].TeamLeadEmail = team.LeadEmail
		if team.Tower != "" {
			out[i].Tower = team.Tower
		}
	}
	return out
}
