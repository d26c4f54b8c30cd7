package engine

import (
	"context"
	"fmt"

	"forum-tenant-sync/internal/errors"
)

// StorageProviderType identifies a bundle storage backend
type StorageProviderType string

const (
	StorageProviderLocal StorageProviderType = "local"
	StorageProviderS3    StorageProviderType = "s3"
	StorageProviderGCS   StorageProviderType = "gcs"
	StorageProviderAzure StorageProviderType = "azure"
)

// BundleStorage abstracts where bundle files are written and read from.
// Write returns the location of the stored bundle, which is what Read
// and the operation reports refer to.
type BundleStorage interface {
	Write(ctx context.Context, filename string, data []byte) (string, error)
	Read(ctx context.Context, location string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

// LocalConfig configures filesystem bundle storage
type LocalConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// S3Config configures Amazon S3 bundle storage
type S3Config struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
}

// Validate checks S3 configuration completeness
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.NewValidationError("S3 bucket is required", nil)
	}
	if c.Region == "" {
		return errors.NewValidationError("S3 region is required", nil)
	}
	return nil
}

// GCSConfig configures Google Cloud Storage bundle storage
type GCSConfig struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	CredentialsPath string `mapstructure:"credentials_path" yaml:"credentials_path"`
}

// Validate checks GCS configuration completeness
func (c *GCSConfig) Validate() error {
	if c.Bucket == "" {
		return errors.NewValidationError("GCS bucket is required", nil)
	}
	return nil
}

// AzureConfig configures Azure Blob Storage bundle storage
type AzureConfig struct {
	AccountName   string `mapstructure:"account_name" yaml:"account_name"`
	AccountKey    string `mapstructure:"account_key" yaml:"account_key"`
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
}

// Validate checks Azure configuration completeness
func (c *AzureConfig) Validate() error {
	if c.AccountName == "" {
		return errors.NewValidationError("Azure account name is required", nil)
	}
	if c.AccountKey == "" {
		return errors.NewValidationError("Azure account key is required", nil)
	}
	if c.ContainerName == "" {
		return errors.NewValidationError("Azure container name is required", nil)
	}
	return nil
}

// StorageConfig selects and configures the bundle storage backend
type StorageConfig struct {
	Provider StorageProviderType `mapstructure:"provider" yaml:"provider"`
	Local    LocalConfig         `mapstructure:"local" yaml:"local"`
	S3       S3Config            `mapstructure:"s3" yaml:"s3"`
	GCS      GCSConfig           `mapstructure:"gcs" yaml:"gcs"`
	Azure    AzureConfig         `mapstructure:"azure" yaml:"azure"`
}

// NewBundleStorage creates the storage backend named by config.Provider
func NewBundleStorage(ctx context.Context, config StorageConfig) (BundleStorage, error) {
	switch config.Provider {
	case StorageProviderLocal, "":
		return NewLocalStorage(config.Local)
	case StorageProviderS3:
		return NewS3Storage(config.S3)
	case StorageProviderGCS:
		return NewGCSStorage(ctx, config.GCS)
	case StorageProviderAzure:
		return NewAzureStorage(config.Azure)
	default:
		return nil, errors.NewValidationError(
			fmt.Sprintf("unsupported storage provider %q (local, s3, gcs, azure)", config.Provider), nil)
	}
}
