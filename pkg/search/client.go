// Package search is a client for the team directory search index (Azure AI
// Search wire protocol). The directory is the authoritative source for team
// contact data; results are read-only snapshots.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const apiVersion = "2023-11-01"

// selectFields lists the document fields fetched by every query.
const selectFields = "id,team_name,tower,team_lead,team_lead_email,skills,expertise_areas,technologies,frameworks,description"

// Team is one delivery team's directory profile. Lead and LeadEmail are
// authoritative and are never overwritten by model inference.
type Team struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Tower          string   `json:"tower"`
	Lead           string   `json:"leader"`
	LeadEmail      string   `json:"leader_email"`
	Skills         []string `json:"skills"`
	ExpertiseAreas []string `json:"expertise_areas"`
	Technologies   []string `json:"technologies"`
	Frameworks     []string `json:"frameworks"`
	Description    string   `json:"description"`

	// SearchScore is populated only by ranked lookups.
	SearchScore float64 `json:"search_score,omitempty"`
}

// Client defines the directory operations used by the pipeline and tooling.
type Client interface {
	// GetAllTeams returns a best-effort snapshot of the full catalog. An
	// empty result is a legitimate answer, not an error.
	GetAllTeams(ctx context.Context) ([]Team, error)
	// SearchTeams runs a ranked full-text query. Used by auxiliary tooling,
	// not on the critical path of the analysis pipeline.
	SearchTeams(ctx context.Context, query string, top int) ([]Team, error)
	// SearchBySkills ranks teams against a set of required skills.
	SearchBySkills(ctx context.Context, skills []string, top int) ([]Team, error)
	// EnsureIndex creates the teams index if it does not exist.
	EnsureIndex(ctx context.Context) error
	// UploadTeams upserts directory documents into the index.
	UploadTeams(ctx context.Context, teams []Team) error
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	endpoint string
	apiKey   string
	index    string
	http     *http.Client
}

// NewClient creates a directory search client.
func NewClient(endpoint, apiKey, index string, opts ...Option) Client {
	c := &httpClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		index:    index,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// teamDocument is the index document shape.
type teamDocument struct {
	ID             string   `json:"id"`
	TeamName       string   `json:"team_name"`
	Tower          string   `json:"tower"`
	TeamLead       string   `json:"team_lead"`
	TeamLeadEmail  string   `json:"team_lead_email"`
	Skills         []string `json:"skills,omitempty"`
	ExpertiseAreas []string `json:"expertise_areas,omitempty"`
	Technologies   []string `json:"technologies,omitempty"`
	Frameworks     []string `json:"frameworks,omitempty"`
	Description    string   `json:"description,omitempty"`
	SearchScore    float64  `json:"@search.score,omitempty"`
	SearchAction   string   `json:"@search.action,omitempty"`
}

// toTeam maps an index document to the internal team shape. Missing list
// fields default to empty slices, never to an error.
func (d teamDocument) toTeam() Team {
	asList := func(v []string) []string {
		if v == nil {
			return []string{}
		}
		return v
	}
	return Team{
		ID:             d.ID,
		Name:           d.TeamName,
		Tower:          d.Tower,
		Lead:           d.TeamLead,
		LeadEmail:      d.TeamLeadEmail,
		Skills:         asList(d.Skills),
		ExpertiseAreas: asList(d.ExpertiseAreas),
		Technologies:   asList(d.Technologies),
		Frameworks:     asList(d.Frameworks),
		Description:    d.Description,
		SearchScore:    d.SearchScore,
	}
}

type searchRequest struct {
	Search string `json:"search"`
	Top    int    `json:"top"`
	Select string `json:"select"`
	Count  bool   `json:"count"`
}

type searchResponse struct {
	Value []teamDocument `json:"value"`
}

func (c *httpClient) GetAllTeams(ctx context.Context) ([]Team, error) {
	return c.search(ctx, "*", 100)
}

func (c *httpClient) SearchTeams(ctx context.Context, query string, top int) ([]Team, error) {
	if top <= 0 {
		top = 10
	}
	return c.search(ctx, query, top)
}

func (c *httpClient) SearchBySkills(ctx context.Context, skills []string, top int) ([]Team, error) {
	return c.SearchTeams(ctx, strings.Join(skills, " OR "), top)
}

func (c *httpClient) search(ctx context.Context, query string, top int) ([]Team, error) {
	reqBody := searchRequest{
		Search: query,
		Top:    top,
		Select: selectFields,
		Count:  true,
	}

	var resp searchResponse
	path := fmt.Sprintf("/indexes/%s/docs/search", url.PathEscape(c.index))
	if err := c.post(ctx, path, reqBody, &resp); err != nil {
		return nil, eris.Wrapf(err, "search: query %q", query)
	}

	teams := make([]Team, 0, len(resp.Value))
	for _, doc := range resp.Value {
		teams = append(teams, doc.toTeam())
	}
	return teams, nil
}

func (c *httpClient) UploadTeams(ctx context.Context, teams []Team) error {
	docs := make([]teamDocument, 0, len(teams))
	for _, t := range teams {
		docs = append(docs, teamDocument{
			ID:             t.ID,
			TeamName:       t.Name,
			Tower:          t.Tower,
			TeamLead:       t.Lead,
			TeamLeadEmail:  t.LeadEmail,
			Skills:         t.Skills,
			ExpertiseAreas: t.ExpertiseAreas,
			Technologies:   t.Technologies,
			Frameworks:     t.Frameworks,
			Description:    t.Description,
			SearchAction:   "mergeOrUpload",
		})
	}

	body := map[string]any{"value": docs}
	path := fmt.Sprintf("/indexes/%s/docs/index", url.PathEscape(c.index))
	if err := c.post(ctx, path, body, nil); err != nil {
		return eris.Wrapf(err, "search: upload %d teams", len(teams))
	}
	return nil
}

// indexSchema is the teams index definition used by EnsureIndex.
func (c *httpClient) indexSchema() map[string]any {
	strField := func(name string, searchable bool) map[string]any {
		return map[string]any{
			"name": name, "type": "Edm.String",
			"searchable": searchable, "filterable": !searchable, "retrievable": true,
		}
	}
	listField := func(name string) map[string]any {
		return map[string]any{
			"name": name, "type": "Collection(Edm.String)",
			"searchable": true, "retrievable": true,
		}
	}
	return map[string]any{
		"name": c.index,
		"fields": []map[string]any{
			{"name": "id", "type": "Edm.String", "key": true, "retrievable": true},
			strField("team_name", true),
			strField("tower", false),
			strField("team_lead", false),
			strField("team_lead_email", false),
			listField("skills"),
			listField("expertise_areas"),
			listField("technologies"),
			listField("frameworks"),
			strField("description", true),
		},
	}
}

func (c *httpClient) EnsureIndex(ctx context.Context) error {
	// GET to detect an existing index; 404 means it must be created.
	getURL := fmt.Sprintf("%s/indexes/%s?api-version=%s", c.endpoint, url.PathEscape(c.index), apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
	if err != nil {
		return eris.Wrap(err, "search: create request")
	}
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "search: check index")
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode != http.StatusNotFound:
		return eris.Errorf("search: check index: unexpected status %d", resp.StatusCode)
	}

	schema, err := json.Marshal(c.indexSchema())
	if err != nil {
		return eris.Wrap(err, "search: marshal index schema")
	}

	putURL := fmt.Sprintf("%s/indexes/%s?api-version=%s", c.endpoint, url.PathEscape(c.index), apiVersion)
	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, putURL, bytes.NewReader(schema))
	if err != nil {
		return eris.Wrap(err, "search: create request")
	}
	putReq.Header.Set("Content-Type", "application/json")
	putReq.Header.Set("api-key", c.apiKey)

	putResp, err := c.http.Do(putReq)
	if err != nil {
		return eris.Wrap(err, "search: create index")
	}
	defer putResp.Body.Close()

	if putResp.StatusCode != http.StatusCreated && putResp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(putResp.Body)
		return eris.Errorf("search: create index: unexpected status %d: %s", putResp.StatusCode, string(respBody))
	}
	return nil
}

func (c *httpClient) post(ctx context.Context, path string, reqBody, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	u := fmt.Sprintf("%s%s?api-version=%s", c.endpoint, path, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return eris.Wrap(err, "decode response")
		}
	}
	return nil
}
