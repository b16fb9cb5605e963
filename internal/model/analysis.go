package model

import "time"

// TeamRecommendation is one model-proposed team assignment. After enrichment,
// TeamLead and TeamLeadEmail are verified directory values whenever a
// directory match exists.
type TeamRecommendation struct {
	TeamName             string   `json:"team_name"`
	Tower                string   `json:"tower,omitempty"`
	RelevanceScore       float64  `json:"relevance_score"`
	MatchedSkills        []string `json:"matched_skills,omitempty"`
	Justification        string   `json:"justification,omitempty"`
	EstimatedInvolvement string   `json:"estimated_involvement,omitempty"`
	TeamLead             string   `json:"team_lead,omitempty"`
	TeamLeadEmail        string   `json:"team_lead_email,omitempty"`
}

// Risk is a single identified delivery risk.
type Risk struct {
	Category    string `json:"category"`
	Level       string `json:"level"`
	Description string `json:"description"`
	Mitigation  string `json:"mitigation,omitempty"`
}

// OpportunityAnalysis is the structured result of the reasoning step.
// It is produced once, mutated exactly once by recommendation enrichment,
// then frozen and handed to renderers and persistence.
type OpportunityAnalysis struct {
	ExecutiveSummary    string               `json:"executive_summary"`
	RequiredTowers      []string             `json:"required_towers"`
	TeamRecommendations []TeamRecommendation `json:"team_recommendations"`
	Risks               []Risk               `json:"risks"`
	TimelineEstimate    string               `json:"timeline_estimate,omitempty"`
	EffortEstimate      string               `json:"effort_estimate,omitempty"`
	AnalysisConfidence  float64              `json:"analysis_confidence"`
	Recommendations     []string             `json:"recommendations,omitempty"`
	NextSteps           []string             `json:"next_steps,omitempty"`
}

// AnalysisRecord is the persisted form of a completed analysis run.
// Records are append-only: re-analyzing the same opportunity produces a new
// record distinguished by ProcessedAt, never an update in place.
type AnalysisRecord struct {
	ID              string    `json:"id"`
	OpportunityID   string    `json:"opportunity_id"`
	OpportunityName string    `json:"opportunity_name"`
	ProcessedAt     time.Time `json:"processed_at"`
	Status          string    `json:"status"`

	Analysis OpportunityAnalysis `json:"analysis"`

	// Audit fields.
	EventType         string  `json:"event_type,omitempty"`
	EstimatedValue    float64 `json:"estimated_value,omitempty"`
	Currency          string  `json:"currency,omitempty"`
	CustomerName      string  `json:"customer_name,omitempty"`
	DescriptionLength int     `json:"description_length"`
	PDFURL            string  `json:"pdf_url,omitempty"`
	TeamsConsidered   int     `json:"teams_considered"`
}
