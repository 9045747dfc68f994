package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzBlobAdapter implements the Adapter interface for Azure Blob Storage
type AzBlobAdapter struct {
	client    *azblob.Client
	container string
}

// AzBlobOptions holds Azure Blob adapter configuration
type AzBlobOptions struct {
	AccountName        string
	AccountKey         string
	Container          string
	ServiceURL         string
	UseManagedIdentity bool
}

// serviceURL returns the configured endpoint or the public one for the account
func (o AzBlobOptions) serviceURL() string {
	if o.ServiceURL != "" {
		return o.ServiceURL
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", o.AccountName)
}

// NewAzBlobAdapter creates a new Azure Blob adapter. A shared key is used
// when an account key is set, otherwise managed identity or the default
// Azure credential chain.
func NewAzBlobAdapter(opts AzBlobOptions) (*AzBlobAdapter, error) {
	if opts.Container == "" {
		return nil, errors.New("azblob container is required")
	}

	var client *azblob.Client
	switch {
	case opts.AccountKey != "" && !opts.UseManagedIdentity:
		cred, err := azblob.NewSharedKeyCredential(opts.AccountName, opts.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(opts.serviceURL(), cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}

	case opts.UseManagedIdentity:
		cred, err := azidentity.NewManagedIdentityCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create managed identity credential: %w", err)
		}
		client, err = azblob.NewClient(opts.serviceURL(), cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}

	default:
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}
		client, err = azblob.NewClient(opts.serviceURL(), cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}
	}

	return &AzBlobAdapter{
		client:    client,
		container: opts.Container,
	}, nil
}

// Put uploads data, creating the container on first use
func (a *AzBlobAdapter) Put(ctx context.Context, path string, data io.Reader) error {
	contentType := contentType(path)
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}

	_, err := a.client.UploadStream(ctx, a.container, path, data, opts)
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		if _, cerr := a.client.CreateContainer(ctx, a.container, nil); cerr != nil && !bloberror.HasCode(cerr, bloberror.ContainerAlreadyExists) {
			return fmt.Errorf("failed to create container: %w", cerr)
		}
		if seeker, ok := data.(io.Seeker); ok {
			if _, serr := seeker.Seek(0, io.SeekStart); serr != nil {
				return fmt.Errorf("failed to rewind data: %w", serr)
			}
		}
		_, err = a.client.UploadStream(ctx, a.container, path, data, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}

	return nil
}

// Get downloads the blob at the given path
func (a *AzBlobAdapter) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := a.client.DownloadStream(ctx, a.container, path, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}

	return resp.Body, nil
}

// Delete removes the blob; deleting a missing blob is not an error
func (a *AzBlobAdapter) Delete(ctx context.Context, path string) error {
	_, err := a.client.DeleteBlob(ctx, a.container, path, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	return nil
}

// Exists checks blob properties for the given path
func (a *AzBlobAdapter) Exists(ctx context.Context, path string) (bool, error) {
	blobClient := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(path)

	_, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check blob existence: %w", err)
	}

	return true, nil
}

// List returns blob names matching the given prefix
func (a *AzBlobAdapter) List(ctx context.Context, prefix string) ([]string, error) {
	pager := a.client.NewListBlobsFlatPager(a.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	var paths []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			if bloberror.HasCode(err, bloberror.ContainerNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}

		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				paths = append(paths, *item.Name)
			}
		}
	}

	return paths, nil
}

// Close is a no-op for the Azure adapter
func (a *AzBlobAdapter) Close() error {
	return nil
}
