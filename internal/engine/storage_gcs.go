package engine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"forum-tenant-sync/internal/errors"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const gcsPrefix = "bundles/"

// GCSStorage stores bundle files in a Google Cloud Storage bucket
type GCSStorage struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStorage creates a GCSStorage. When no credentials path is
// configured the default application credentials are used.
func NewGCSStorage(ctx context.Context, config GCSConfig) (*GCSStorage, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var client *storage.Client
	var err error
	if config.CredentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(config.CredentialsPath))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, errors.NewStorageError("failed to create GCS client", err)
	}

	return &GCSStorage{
		client: client,
		bucket: config.Bucket,
		prefix: gcsPrefix,
	}, nil
}

// Write uploads a bundle file and returns its gs:// location
func (gs *GCSStorage) Write(ctx context.Context, filename string, data []byte) (string, error) {
	objectName := gs.prefix + filename

	writer := gs.client.Bucket(gs.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return "", errors.NewStorageError("failed to upload bundle to GCS", err)
	}
	if err := writer.Close(); err != nil {
		return "", errors.NewStorageError("failed to finalize GCS upload", err)
	}
	return fmt.Sprintf("gs://%s/%s", gs.bucket, objectName), nil
}

// Read downloads a bundle file by its gs:// location or object name
func (gs *GCSStorage) Read(ctx context.Context, location string) ([]byte, error) {
	objectName := strings.TrimPrefix(location, fmt.Sprintf("gs://%s/", gs.bucket))

	reader, err := gs.client.Bucket(gs.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, errors.NewNotFoundError("bundle not found in GCS: "+location, err)
		}
		return nil, errors.NewStorageError("failed to download bundle from GCS", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewStorageError("failed to read GCS object", err)
	}
	return data, nil
}

// List returns the locations of all bundle objects under the prefix
func (gs *GCSStorage) List(ctx context.Context) ([]string, error) {
	it := gs.client.Bucket(gs.bucket).Objects(ctx, &storage.Query{Prefix: gs.prefix})

	var locations []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.NewStorageError("failed to list bundles in GCS", err)
		}
		locations = append(locations, fmt.Sprintf("gs://%s/%s", gs.bucket, attrs.Name))
	}
	return locations, nil
}

// Close releases the underlying GCS client
func (gs *GCSStorage) Close() error {
	return gs.client.Close()
}
