// Package blob uploads rendered reports to Azure Blob Storage and mints
// time-limited read links for them.
package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	azbloblib "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/rotisserie/eris"
)

// Client stores report artifacts and returns shareable links.
type Client interface {
	// UploadPDF stores a rendered report under the opportunity's prefix and
	// returns a read-only link valid for the configured retention window.
	UploadPDF(ctx context.Context, opportunityID string, data []byte) (string, error)
	// EnsureContainer creates the report container if it does not exist.
	EnsureContainer(ctx context.Context) error
}

type azureClient struct {
	svc        *azblob.Client
	cred       *azblob.SharedKeyCredential
	serviceURL string
	container  string
	linkTTL    time.Duration

	now func() time.Time
}

// Option configures the client.
type Option func(*azureClient)

// WithClock overrides the wall clock. Tests only.
func WithClock(now func() time.Time) Option {
	return func(c *azureClient) {
		c.now = now
	}
}

// NewClient builds a shared-key Azure Blob client. endpoint may be empty, in
// which case the public account endpoint is used; a non-empty value supports
// emulators and sovereign clouds.
func NewClient(accountName, accountKey, endpoint, container string, linkValidDays int, opts ...Option) (Client, error) {
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, eris.Wrap(err, "blob: credential")
	}

	serviceURL := endpoint
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}

	svc, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, eris.Wrap(err, "blob: service client")
	}

	c := &azureClient{
		svc:        svc,
		cred:       cred,
		serviceURL: serviceURL,
		container:  container,
		linkTTL:    time.Duration(linkValidDays) * 24 * time.Hour,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *azureClient) EnsureContainer(ctx context.Context) error {
	_, err := c.svc.CreateContainer(ctx, c.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return eris.Wrapf(err, "blob: create container %s", c.container)
	}
	return nil
}

func (c *azureClient) UploadPDF(ctx context.Context, opportunityID string, data []byte) (string, error) {
	name := blobName(opportunityID, c.now())

	_, err := c.svc.UploadBuffer(ctx, c.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &azbloblib.HTTPHeaders{
			BlobContentType: to.Ptr("application/pdf"),
		},
	})
	if err != nil {
		return "", eris.Wrapf(err, "blob: upload %s", name)
	}

	return c.signedURL(name)
}

// signedURL mints a read-only SAS link for the blob.
func (c *azureClient) signedURL(name string) (string, error) {
	start := c.now().Add(-5 * time.Minute)
	vals := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     start,
		ExpiryTime:    c.now().Add(c.linkTTL),
		Permissions:   to.Ptr(sas.BlobPermissions{Read: true}).String(),
		ContainerName: c.container,
		BlobName:      name,
	}

	q, err := vals.SignWithSharedKey(c.cred)
	if err != nil {
		return "", eris.Wrap(err, "blob: sign url")
	}

	return fmt.Sprintf("%s/%s/%s?%s", c.serviceURL, c.container, name, q.Encode()), nil
}

// blobName namespaces reports per opportunity so repeat analyses never
// overwrite earlier ones.
func blobName(opportunityID string, at time.Time) string {
	return fmt.Sprintf("opportunity-%s/analysis_%s.pdf", opportunityID, at.UTC().Format("20060102_150405"))
}
