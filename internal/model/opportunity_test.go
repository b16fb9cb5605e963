package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestStateName(t *testing.T) {
	tests := []struct {
		name  string
		state *int
		want  string
	}{
		{"open", intPtr(0), "Open"},
		{"won", intPtr(1), "Won"},
		{"lost", intPtr(2), "Lost"},
		{"unrecognized code", intPtr(99), "Unknown"},
		{"absent", nil, "Unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := OpportunityRecord{StateCode: tc.state}
			assert.Equal(t, tc.want, o.StateName())
		})
	}
}

func TestEventType(t *testing.T) {
	o := OpportunityRecord{SdkMessage: "Create"}
	assert.Equal(t, "Create", o.EventType())

	o = OpportunityRecord{}
	assert.Equal(t, "Unknown", o.EventType())
}

func TestFormatForAnalysis_ContainsCoreFields(t *testing.T) {
	o := OpportunityRecord{
		ID:                 "2f1511d1-0b08-42bc-aeea-62f0f539194b",
		Name:               "AI Automation Platform",
		CustomerName:       "Cliente Ejemplo S.A.",
		EstimatedValue:     150000,
		Currency:           "USD",
		StateCode:          intPtr(0),
		CleanedDescription: "Build an ML pipeline.",
	}

	text := o.FormatForAnalysis()
	assert.Contains(t, text, "AI Automation Platform")
	assert.Contains(t, text, "Cliente Ejemplo S.A.")
	assert.Contains(t, text, "150,000.00 USD")
	assert.Contains(t, text, "State: Open")
	assert.Contains(t, text, "Build an ML pipeline.")
}

func TestFormatForAnalysis_MinimalRecord(t *testing.T) {
	o := OpportunityRecord{ID: "id-1", Name: "Minimal"}

	text := o.FormatForAnalysis()
	assert.Contains(t, text, "Minimal")
	assert.Contains(t, text, "State: Unknown")
	assert.NotContains(t, text, "Estimated value")
	assert.NotContains(t, text, "Requirement description")
}
