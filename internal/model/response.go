package model

import (
	"encoding/json"
	"time"
)

// ErrorCode classifies a failed or partially failed request.
type ErrorCode string

const (
	ErrInvalidJSON          ErrorCode = "INVALID_JSON"
	ErrEmptyPayload         ErrorCode = "EMPTY_PAYLOAD"
	ErrMissingOpportunityID ErrorCode = "MISSING_OPPORTUNITY_ID"
	ErrMethodNotAllowed     ErrorCode = "METHOD_NOT_ALLOWED"
	ErrServiceNotConfigured ErrorCode = "SERVICE_NOT_CONFIGURED"
	ErrAIAnalysis           ErrorCode = "AI_ANALYSIS_ERROR"
	ErrProcessing           ErrorCode = "PROCESSING_ERROR"
	ErrInternal             ErrorCode = "INTERNAL_ERROR"
)

// ErrorInfo is the error object embedded in a Response.
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Outputs collects the artifacts of a successful pipeline run. Fields are
// omitted individually when their producing stage failed (graceful
// degradation: a missing PDF link does not discard the analysis).
type Outputs struct {
	AdaptiveCard json.RawMessage `json:"adaptive_card,omitempty"`
	PDFURL       string          `json:"pdf_url,omitempty"`
	RecordID     string          `json:"record_id,omitempty"`
}

// Metadata carries bookkeeping fields for every response.
type Metadata struct {
	ProcessedAt     time.Time `json:"processed_at"`
	EventType       string    `json:"event_type,omitempty"`
	TeamsConsidered int       `json:"teams_considered,omitempty"`
}

// Response is the JSON envelope returned for every handled request,
// including classified business errors. Callers never receive an empty body
// for a business-logic failure.
type Response struct {
	Success         bool                 `json:"success"`
	OpportunityID   string               `json:"opportunity_id,omitempty"`
	OpportunityName string               `json:"opportunity_name,omitempty"`
	Analysis        *OpportunityAnalysis `json:"analysis,omitempty"`
	Outputs         *Outputs             `json:"outputs,omitempty"`
	Error           *ErrorInfo           `json:"error,omitempty"`
	RetrySuggested  *bool                `json:"retry_suggested,omitempty"`
	Metadata        Metadata             `json:"metadata"`
}

// ErrorResponse builds a Response for a classified failure.
func ErrorResponse(code ErrorCode, msg, oppID, oppName string) *Response {
	return &Response{
		Success:         false,
		OpportunityID:   oppID,
		OpportunityName: oppName,
		Error:           &ErrorInfo{Code: code, Message: msg},
		Metadata:        Metadata{ProcessedAt: time.Now().UTC()},
	}
}

// WithRetrySuggested sets the retry hint and returns the response.
func (r *Response) WithRetrySuggested(retry bool) *Response {
	r.RetrySuggested = &retry
	return r
}
