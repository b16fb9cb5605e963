package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/opportunity-agent/internal/model"
)

func TestNormalize_FlatPayload(t *testing.T) {
	body := []byte(`{
		"opportunityid": "2f1511d1-0b08-42bc-aeea-62f0f539194b",
		"name": "AI Automation Platform",
		"description": "The customer needs an AI system.",
		"cr807_descripciondelrequerimientofuncional": "Build an ML pipeline.",
		"estimatedvalue": 150000.0,
		"budgetamount": 120000.0,
		"statecode": 0,
		"SdkMessage": "Create",
		"customername": "Cliente Ejemplo S.A.",
		"ownername": "Juan Perez"
	}`)

	rec, err := Normalize(body)
	require.NoError(t, err)

	assert.Equal(t, "2f1511d1-0b08-42bc-aeea-62f0f539194b", rec.ID)
	assert.Equal(t, "AI Automation Platform", rec.Name)
	assert.Equal(t, 150000.0, rec.EstimatedValue)
	assert.Equal(t, 120000.0, rec.BudgetAmount)
	require.NotNil(t, rec.StateCode)
	assert.Equal(t, 0, *rec.StateCode)
	assert.Equal(t, "Create", rec.SdkMessage)
	// Functional field wins over the generic description.
	assert.Equal(t, "Build an ML pipeline.", rec.CleanedDescription)
}

func TestNormalize_StructuredPayload(t *testing.T) {
	body := []byte(`{
		"body": {
			"opportunityid": "opp-42",
			"name": "Structured",
			"description": "plain text"
		},
		"teams_id": "19:meeting_abc@thread.v2",
		"channel_id": "chan-7"
	}`)

	rec, err := Normalize(body)
	require.NoError(t, err)

	assert.Equal(t, "opp-42", rec.ID)
	assert.Equal(t, "Structured", rec.Name)
	assert.Equal(t, "plain text", rec.CleanedDescription)
	assert.Equal(t, "19:meeting_abc@thread.v2", rec.TeamsID)
	assert.Equal(t, "chan-7", rec.ChannelID)
}

func TestNormalize_SideChannelCaseVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"snake_case", `{"opportunityid":"o1","teams_id":"T","channel_id":"C"}`},
		{"camelCase", `{"opportunityid":"o1","teamsId":"T","channelId":"C"}`},
		{"PascalCase", `{"opportunityid":"o1","TeamsId":"T","ChannelId":"C"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Normalize([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, "T", rec.TeamsID)
			assert.Equal(t, "C", rec.ChannelID)
		})
	}
}

func TestNormalize_MissingOpportunityID(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"flat", `{"name":"no id"}`},
		{"structured", `{"body":{"name":"no id"},"teams_id":"T"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize([]byte(tc.body))
			require.Error(t, err)
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, model.ErrMissingOpportunityID, perr.Code)
		})
	}
}

func TestNormalize_EmptyPayload(t *testing.T) {
	for _, body := range []string{"", "   ", "{}"} {
		_, err := Normalize([]byte(body))
		require.Error(t, err)
		var perr *Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, model.ErrEmptyPayload, perr.Code)
	}
}

func TestNormalize_InvalidJSON(t *testing.T) {
	_, err := Normalize([]byte(`{"opportunityid": `))
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.ErrInvalidJSON, perr.Code)
}

func TestNormalize_NoDescriptionIsNotAnError(t *testing.T) {
	rec, err := Normalize([]byte(`{"opportunityid": "id-1", "name": "Foo"}`))
	require.NoError(t, err)
	assert.Equal(t, "", rec.CleanedDescription)
}

func TestCleanText_StripsMarkupAndEntities(t *testing.T) {
	got := CleanText("<p>Hi &amp; bye</p>")
	assert.Equal(t, "Hi & bye", got)

	got = CleanText("<ul><li>Requerimiento 1</li><li>Rq 2</li></ul>")
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, ">")
	assert.Contains(t, got, "Requerimiento 1")

	got = CleanText("a&nbsp;b")
	assert.NotContains(t, got, "&nbsp;")
	assert.NotContains(t, got, " ")
	assert.Equal(t, "a b", got)
}

func TestCleanDescription_FunctionalFieldWins(t *testing.T) {
	got := CleanDescription("<b>functional</b>", "generic")
	assert.Equal(t, "functional", got)
}

func TestCleanDescription_FallsBackToDescription(t *testing.T) {
	got := CleanDescription("", "generic text")
	assert.Equal(t, "generic text", got)

	got = CleanDescription("   ", "generic text")
	assert.Equal(t, "generic text", got)
}

func TestCleanDescription_BothEmpty(t *testing.T) {
	assert.Equal(t, "", CleanDescription("", ""))
}
