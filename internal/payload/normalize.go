// Package payload normalizes inbound opportunity payloads. The workflow tool
// sends either a "structured" shape ({body: {...}, teams_id, channel_id}) or
// a legacy flat shape with all opportunity fields at the top level. Shape
// detection happens exactly once, here; everything downstream sees one
// canonical OpportunityRecord.
package payload

import (
	"encoding/json"
	"strings"

	"github.com/sells-group/opportunity-agent/internal/model"
)

// Error is a terminal, non-retryable client input error.
type Error struct {
	Code    model.ErrorCode
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// teams_id / channel_id arrive with inconsistent casing depending on which
// workflow template produced the request.
var (
	teamsIDKeys   = []string{"teams_id", "teamsId", "TeamsId", "teamsid"}
	channelIDKeys = []string{"channel_id", "channelId", "ChannelId", "channelid"}
)

// functionalReqKey is the CRM custom field holding the functional
// requirement description, preferred over the generic description.
const functionalReqKey = "cr807_descripciondelrequerimientofuncional"

// Normalize parses and validates a raw request body, producing the canonical
// opportunity record. It fails with EMPTY_PAYLOAD, INVALID_JSON or
// MISSING_OPPORTUNITY_ID; all three are refusals to process, not transient
// failures.
func Normalize(body []byte) (*model.OpportunityRecord, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &Error{Code: model.ErrEmptyPayload, Message: "request body is empty"}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &Error{Code: model.ErrInvalidJSON, Message: "request body is not valid JSON"}
	}
	if len(raw) == 0 {
		return nil, &Error{Code: model.ErrEmptyPayload, Message: "request body is empty"}
	}

	// Shape classification: structured payloads wrap the opportunity fields
	// in a "body" object; legacy payloads carry them at the top level.
	fields := raw
	if inner, ok := raw["body"].(map[string]any); ok {
		fields = inner
	}

	id := lookupStringFold(fields, "opportunityid")
	if id == "" {
		// Structured payloads occasionally carry the id next to the body.
		id = lookupStringFold(raw, "opportunityid")
	}
	if id == "" {
		return nil, &Error{Code: model.ErrMissingOpportunityID, Message: "payload must contain 'opportunityid'"}
	}

	rec := &model.OpportunityRecord{
		ID:                 id,
		Name:               lookupString(fields, "name"),
		Description:        lookupString(fields, "description"),
		FunctionalReq:      lookupString(fields, functionalReqKey),
		EstimatedValue:     lookupFloat(fields, "estimatedvalue"),
		BudgetAmount:       lookupFloat(fields, "budgetamount"),
		Currency:           lookupString(fields, "currency"),
		EstimatedCloseDate: lookupString(fields, "estimatedclosedate"),
		CustomerID:         lookupString(fields, "customerid"),
		CustomerName:       lookupString(fields, "customername"),
		OwnerName:          lookupString(fields, "ownername"),
		StateCode:          lookupInt(fields, "statecode"),
		SdkMessage:         lookupString(fields, "SdkMessage"),
		CreatedOn:          lookupString(fields, "createdon"),
	}
	rec.CleanedDescription = CleanDescription(rec.FunctionalReq, rec.Description)

	// Side-channel ids live at the top level in both shapes.
	rec.TeamsID = lookupVariants(raw, teamsIDKeys)
	rec.ChannelID = lookupVariants(raw, channelIDKeys)

	return rec, nil
}

func lookupString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// lookupStringFold matches the key case-insensitively.
func lookupStringFold(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func lookupVariants(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func lookupFloat(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

func lookupInt(m map[string]any, key string) *int {
	if v, ok := m[key].(float64); ok {
		i := int(v)
		return &i
	}
	return nil
}
