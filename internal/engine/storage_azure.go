package engine

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"forum-tenant-sync/internal/errors"

	"github.com/Azure/azure-storage-blob-go/azblob"
)

const azurePrefix = "bundles/"

// AzureStorage stores bundle files in an Azure Blob Storage container
type AzureStorage struct {
	serviceURL azblob.ServiceURL
	container  string
	prefix     string
}

// NewAzureStorage creates an AzureStorage using shared key credentials
func NewAzureStorage(config AzureConfig) (*AzureStorage, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	credential, err := azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
	if err != nil {
		return nil, errors.NewStorageError("failed to create Azure credentials", err)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	serviceURL, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", config.AccountName))
	if err != nil {
		return nil, errors.NewStorageError("failed to parse Azure service URL", err)
	}

	return &AzureStorage{
		serviceURL: azblob.NewServiceURL(*serviceURL, pipeline),
		container:  config.ContainerName,
		prefix:     azurePrefix,
	}, nil
}

// Write uploads a bundle file and returns its azure:// location
func (as *AzureStorage) Write(ctx context.Context, filename string, data []byte) (string, error) {
	blobName := as.prefix + filename
	blobURL := as.serviceURL.NewContainerURL(as.container).NewBlockBlobURL(blobName)

	_, err := azblob.UploadBufferToBlockBlob(ctx, data, blobURL, azblob.UploadToBlockBlobOptions{
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{ContentType: "application/json"},
	})
	if err != nil {
		return "", errors.NewStorageError("failed to upload bundle to Azure", err)
	}
	return fmt.Sprintf("azure://%s/%s", as.container, blobName), nil
}

// Read downloads a bundle file by its azure:// location or blob name
func (as *AzureStorage) Read(ctx context.Context, location string) ([]byte, error) {
	blobName := strings.TrimPrefix(location, fmt.Sprintf("azure://%s/", as.container))
	blobURL := as.serviceURL.NewContainerURL(as.container).NewBlockBlobURL(blobName)

	response, err := blobURL.Download(ctx, 0, azblob.CountToEnd, azblob.BlobAccessConditions{}, false, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		return nil, errors.NewStorageError("failed to download bundle from Azure", err)
	}

	body := response.Body(azblob.RetryReaderOptions{MaxRetryRequests: 3})
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.NewStorageError("failed to read Azure blob body", err)
	}
	return data, nil
}

// List returns the locations of all bundle blobs under the prefix
func (as *AzureStorage) List(ctx context.Context) ([]string, error) {
	containerURL := as.serviceURL.NewContainerURL(as.container)

	var locations []string
	for marker := (azblob.Marker{}); marker.NotDone(); {
		listing, err := containerURL.ListBlobsFlatSegment(ctx, marker, azblob.ListBlobsSegmentOptions{
			Prefix: as.prefix,
		})
		if err != nil {
			return nil, errors.NewStorageError("failed to list bundles in Azure", err)
		}
		for _, blob := range listing.Segment.BlobItems {
			locations = append(locations, fmt.Sprintf("azure://%s/%s", as.container, blob.Name))
		}
		marker = listing.NextMarker
	}
	return locations, nil
}
