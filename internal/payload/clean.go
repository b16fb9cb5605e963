package payload

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy removes every tag, leaving text content only.
var stripPolicy = bluemonday.StrictPolicy()

// CleanText strips HTML markup and decodes entities from CRM rich-text
// fields. The result contains no angle brackets and no entity sequences.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	stripped := stripPolicy.Sanitize(s)
	decoded := html.UnescapeString(stripped)
	// &nbsp; decodes to U+00A0 which confuses downstream tokenization.
	decoded = strings.ReplaceAll(decoded, " ", " ")
	return strings.TrimSpace(decoded)
}

// CleanDescription picks the analysis text for an opportunity: the
// functional-requirement field wins over the generic description, and both
// absent yields "" rather than an error.
func CleanDescription(functionalReq, description string) string {
	if strings.TrimSpace(functionalReq) != "" {
		return CleanText(functionalReq)
	}
	return CleanText(description)
}
