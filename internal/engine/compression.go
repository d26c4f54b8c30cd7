package engine

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"forum-tenant-sync/internal/errors"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType identifies the bundle compression algorithm
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
	CompressionLZ4  CompressionType = "lz4"
)

// ParseCompressionType validates a user-supplied compression name
func ParseCompressionType(name string) (CompressionType, error) {
	switch CompressionType(strings.ToLower(name)) {
	case CompressionNone, "":
		return CompressionNone, nil
	case CompressionGzip:
		return CompressionGzip, nil
	case CompressionZstd:
		return CompressionZstd, nil
	case CompressionLZ4:
		return CompressionLZ4, nil
	default:
		return CompressionNone, errors.NewAppError(errors.ErrorTypeValidation,
			fmt.Sprintf("unsupported compression type %q (none, gzip, zstd, lz4)", name), nil)
	}
}

// Suffix returns the filename suffix appended for this algorithm
func (ct CompressionType) Suffix() string {
	switch ct {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// DetectCompression infers the compression algorithm from a bundle path
func DetectCompression(path string) CompressionType {
	trimmed := strings.TrimSuffix(path, encryptedSuffix)
	switch {
	case strings.HasSuffix(trimmed, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(trimmed, ".zst"):
		return CompressionZstd
	case strings.HasSuffix(trimmed, ".lz4"):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Compress compresses bundle bytes with the given algorithm
func Compress(data []byte, algorithm CompressionType) ([]byte, error) {
	switch algorithm {
	case CompressionNone:
		return data, nil

	case CompressionGzip:
		var buf bytes.Buffer
		writer := gzip.NewWriter(&buf)
		if _, err := writer.Write(data); err != nil {
			writer.Close()
			return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to gzip bundle data", err)
		}
		if err := writer.Close(); err != nil {
			return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to close gzip writer", err)
		}
		return buf.Bytes(), nil

	case CompressionZstd:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to create zstd encoder", err)
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, nil), nil

	case CompressionLZ4:
		var buf bytes.Buffer
		writer := lz4.NewWriter(&buf)
		if _, err := writer.Write(data); err != nil {
			writer.Close()
			return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to lz4-compress bundle data", err)
		}
		if err := writer.Close(); err != nil {
			return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to close lz4 writer", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, errors.NewAppError(errors.ErrorTypeValidation,
			fmt.Sprintf("unsupported compression type %q", algorithm), nil)
	}
}

// Decompress reverses Compress for the given algorithm
func Decompress(data []byte, algorithm CompressionType) ([]byte, error) {
	switch algorithm {
	case CompressionNone:
		return data, nil

	case CompressionGzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to create gzip reader", err)
		}
		defer reader.Close()
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to decompress gzip bundle", err)
		}
		return decompressed, nil

	case CompressionZstd:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to create zstd decoder", err)
		}
		defer decoder.Close()
		decompressed, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to decompress zstd bundle", err)
		}
		return decompressed, nil

	case CompressionLZ4:
		reader := lz4.NewReader(bytes.NewReader(data))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to decompress lz4 bundle", err)
		}
		return decompressed, nil

	default:
		return nil, errors.NewAppError(errors.ErrorTypeValidation,
			fmt.Sprintf("unsupported compression type %q", algorithm), nil)
	}
}
