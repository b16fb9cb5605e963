package model

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// OpportunityState is the lifecycle state of an opportunity in the source CRM.
type OpportunityState int

const (
	StateOpen OpportunityState = 0
	StateWon  OpportunityState = 1
	StateLost OpportunityState = 2
)

// OpportunityRecord is the canonical, normalized form of an inbound
// opportunity payload. It is built once per request by the payload
// normalizer and never mutated afterwards.
type OpportunityRecord struct {
	ID                 string  `json:"opportunity_id"`
	Name               string  `json:"name"`
	Description        string  `json:"description,omitempty"`
	FunctionalReq      string  `json:"functional_requirement,omitempty"`
	CleanedDescription string  `json:"cleaned_description"`
	EstimatedValue     float64 `json:"estimated_value,omitempty"`
	BudgetAmount       float64 `json:"budget_amount,omitempty"`
	Currency           string  `json:"currency,omitempty"`
	EstimatedCloseDate string  `json:"estimated_close_date,omitempty"`
	CustomerID         string  `json:"customer_id,omitempty"`
	CustomerName       string  `json:"customer_name,omitempty"`
	OwnerName          string  `json:"owner_name,omitempty"`
	StateCode          *int    `json:"state_code,omitempty"`
	SdkMessage         string  `json:"sdk_message,omitempty"`
	CreatedOn          string  `json:"created_on,omitempty"`

	// Side-channel destination for notification delivery, orthogonal to the
	// opportunity itself.
	TeamsID   string `json:"teams_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

// StateName returns the human-readable lifecycle state.
func (o *OpportunityRecord) StateName() string {
	if o.StateCode == nil {
		return "Unknown"
	}
	switch OpportunityState(*o.StateCode) {
	case StateOpen:
		return "Open"
	case StateWon:
		return "Won"
	case StateLost:
		return "Lost"
	default:
		return "Unknown"
	}
}

// EventType returns the originating CRM event type, or "Unknown" when the
// payload carried no SdkMessage.
func (o *OpportunityRecord) EventType() string {
	if o.SdkMessage == "" {
		return "Unknown"
	}
	return o.SdkMessage
}

// moneyPrinter renders monetary amounts with thousands separators.
var moneyPrinter = message.NewPrinter(language.English)

// FormatForAnalysis renders the opportunity as a text block suitable for
// embedding in a reasoning prompt. Empty fields are omitted.
func (o *OpportunityRecord) FormatForAnalysis() string {
	var b strings.Builder
	b.WriteString("Opportunity: " + o.Name + "\n")
	b.WriteString("ID: " + o.ID + "\n")
	if o.CustomerName != "" {
		b.WriteString("Customer: " + o.CustomerName + "\n")
	}
	if o.EstimatedValue > 0 {
		cur := o.Currency
		if cur == "" {
			cur = "USD"
		}
		b.WriteString(moneyPrinter.Sprintf("Estimated value: %.2f %s\n", o.EstimatedValue, cur))
	}
	if o.BudgetAmount > 0 {
		b.WriteString(moneyPrinter.Sprintf("Budget: %.2f\n", o.BudgetAmount))
	}
	if o.EstimatedCloseDate != "" {
		b.WriteString("Estimated close date: " + o.EstimatedCloseDate + "\n")
	}
	b.WriteString("State: " + o.StateName() + "\n")
	if o.OwnerName != "" {
		b.WriteString("Owner: " + o.OwnerName + "\n")
	}
	if o.CleanedDescription != "" {
		b.WriteString("\nRequirement description:\n" + o.CleanedDescription + "\n")
	}
	return b.String()
}
