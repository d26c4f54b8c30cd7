package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"forum-tenant-sync/internal/errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const s3Prefix = "bundles/"

// S3Storage stores bundle files in an Amazon S3 bucket
type S3Storage struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3Storage creates an S3Storage from the given configuration.
// When access keys are empty the default AWS credential chain is used.
func NewS3Storage(config S3Config) (*S3Storage, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	awsConfig := &aws.Config{Region: aws.String(config.Region)}
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.NewStorageError("failed to create AWS session", err)
	}

	return &S3Storage{
		client: s3.New(sess),
		bucket: config.Bucket,
		prefix: s3Prefix,
	}, nil
}

// Write uploads a bundle file and returns its s3:// location
func (s3s *S3Storage) Write(ctx context.Context, filename string, data []byte) (string, error) {
	key := s3s.prefix + filename
	_, err := s3s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s3s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", errors.NewStorageError("failed to upload bundle to S3", err)
	}
	return fmt.Sprintf("s3://%s/%s", s3s.bucket, key), nil
}

// Read downloads a bundle file by its s3:// location or object key
func (s3s *S3Storage) Read(ctx context.Context, location string) ([]byte, error) {
	key := strings.TrimPrefix(location, fmt.Sprintf("s3://%s/", s3s.bucket))

	output, err := s3s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s3s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.NewStorageError("failed to download bundle from S3", err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, errors.NewStorageError("failed to read S3 object body", err)
	}
	return data, nil
}

// List returns the locations of all bundle objects under the prefix
func (s3s *S3Storage) List(ctx context.Context) ([]string, error) {
	var locations []string
	err := s3s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s3s.bucket),
		Prefix: aws.String(s3s.prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, object := range page.Contents {
			locations = append(locations, fmt.Sprintf("s3://%s/%s", s3s.bucket, aws.StringValue(object.Key)))
		}
		return true
	})
	if err != nil {
		return nil, errors.NewStorageError("failed to list bundles in S3", err)
	}
	return locations, nil
}
