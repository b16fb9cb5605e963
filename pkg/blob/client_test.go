package blob

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlobName_NamespacedPerOpportunity(t *testing.T) {
	at := time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC)
	name := blobName("OPP-001", at)
	assert.Equal(t, "opportunity-OPP-001/analysis_20260315_103045.pdf", name)
}

func TestBlobName_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	at := time.Date(2026, 3, 15, 10, 0, 0, 0, loc)
	name := blobName("x", at)
	assert.Contains(t, name, "analysis_20260315_050000.pdf")
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	// A well-formed base64 key so credential creation succeeds offline.
	c, err := NewClient("acct", "a2V5Cg==", "", "reports", 90)
	assert.NoError(t, err)
	ac := c.(*azureClient)
	assert.Equal(t, "https://acct.blob.core.windows.net", ac.serviceURL)
	assert.Equal(t, 90*24*time.Hour, ac.linkTTL)
}

func TestNewClient_CustomEndpoint(t *testing.T) {
	c, err := NewClient("acct", "a2V5Cg==", "http://127.0.0.1:10000/acct", "reports", 7)
	assert.NoError(t, err)
	ac := c.(*azureClient)
	assert.Equal(t, "http://127.0.0.1:10000/acct", ac.serviceURL)
}

func TestSignedURL_EmbedsContainerAndExpiry(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewClient("acct", "a2V5Cg==", "", "reports", 90, WithClock(func() time.Time { return fixed }))
	assert.NoError(t, err)

	u, err := c.(*azureClient).signedURL("opportunity-1/analysis_x.pdf")
	assert.NoError(t, err)
	assert.Contains(t, u, "/reports/opportunity-1/analysis_x.pdf?")
	// Expiry lands exactly 90 days out.
	assert.Contains(t, u, "se=2026-04-01")
	assert.Contains(t, u, "sig=")
}
