// Package catalog loads team directory entries from seed files. Supported
// inputs are YAML catalogs and XLSX exports of the team roster.
package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/opportunity-agent/pkg/search"
)

// yamlTeam is the file shape of one catalog entry.
type yamlTeam struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Tower          string   `yaml:"tower"`
	Lead           string   `yaml:"lead"`
	LeadEmail      string   `yaml:"lead_email"`
	Skills         []string `yaml:"skills"`
	ExpertiseAreas []string `yaml:"expertise_areas"`
	Technologies   []string `yaml:"technologies"`
	Frameworks     []string `yaml:"frameworks"`
	Description    string   `yaml:"description"`
}

// LoadFile reads a team catalog, dispatching on the file extension.
func LoadFile(path string) ([]search.Team, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, eris.Errorf("catalog: unsupported file type %q", filepath.Ext(path))
	}
}

func loadYAML(path string) ([]search.Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read yaml")
	}

	var entries []yamlTeam
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrap(err, "catalog: parse yaml")
	}

	teams := make([]search.Team, 0, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, eris.Errorf("catalog: entry %d has no name", i)
		}
		teams = append(teams, search.Team{
			ID:             e.ID,
			Name:           e.Name,
			Tower:          e.Tower,
			Lead:           e.Lead,
			LeadEmail:      e.LeadEmail,
			Skills:         e.Skills,
			ExpertiseAreas: e.ExpertiseAreas,
			Technologies:   e.Technologies,
			Frameworks:     e.Frameworks,
			Description:    e.Description,
		})
	}
	return teams, nil
}

// xlsxColumns maps header names to Team fields. List columns are
// semicolon-separated in the sheet.
var xlsxColumns = []string{
	"id", "team_name", "tower", "team_lead", "team_lead_email",
	"skills", "expertise_areas", "technologies", "frameworks", "description",
}

func loadXLSX(path string) ([]search.Team, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("catalog: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, eris.New("catalog: xlsx has no data rows")
	}

	// Map header positions so column order in the export does not matter.
	colIdx := make(map[string]int)
	for j, cell := range sheet.Rows[0].Cells {
		colIdx[strings.ToLower(strings.TrimSpace(cell.String()))] = j
	}
	if _, ok := colIdx["team_name"]; !ok {
		return nil, eris.New("catalog: xlsx missing team_name column")
	}

	cellAt := func(row *xlsx.Row, name string) string {
		j, ok := colIdx[name]
		if !ok || j >= len(row.Cells) {
			return ""
		}
		return strings.TrimSpace(row.Cells[j].String())
	}

	var teams []search.Team
	for _, row := range sheet.Rows[1:] {
		name := cellAt(row, "team_name")
		if name == "" {
			continue
		}
		teams = append(teams, search.Team{
			ID:             cellAt(row, "id"),
			Name:           name,
			Tower:          cellAt(row, "tower"),
			Lead:           cellAt(row, "team_lead"),
			LeadEmail:      cellAt(row, "team_lead_email"),
			Skills:         splitList(cellAt(row, "skills")),
			ExpertiseAreas: splitList(cellAt(row, "expertise_areas")),
			Technologies:   splitList(cellAt(row, "technologies")),
			Frameworks:     splitList(cellAt(row, "frameworks")),
			Description:    cellAt(row, "description"),
		})
	}
	return teams, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
