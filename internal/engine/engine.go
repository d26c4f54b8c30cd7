package engine

import (
	"context"
	"fmt"
	"time"

	"forum-tenant-sync/internal/logging"
	"forum-tenant-sync/internal/store"
)

// Options controls how bundle files are written and read
type Options struct {
	Compression CompressionType
	// Passphrase enables AES-GCM encryption of bundle files when set
	Passphrase string
}

// Engine runs the backup, restore, migrate and clean operations
// against a tenant store
type Engine struct {
	store   store.Store
	bundles BundleStorage
	logger  *logging.Logger
	options Options
}

// New creates an Engine over the given store and bundle storage
func New(st store.Store, bundles BundleStorage, logger *logging.Logger, options Options) *Engine {
	if options.Compression == "" {
		options.Compression = CompressionNone
	}
	return &Engine{
		store:   st,
		bundles: bundles,
		logger:  logger,
		options: options,
	}
}

// ListBundles returns the locations of all stored bundle files
func (e *Engine) ListBundles(ctx context.Context) ([]string, error) {
	return e.bundles.List(ctx)
}

// bundleFilename builds the storage filename for an outgoing bundle,
// appending compression and encryption suffixes as configured
func (e *Engine) bundleFilename(base string) string {
	name := base + e.options.Compression.Suffix()
	if e.options.Passphrase != "" {
		name += encryptedSuffix
	}
	return name
}

func backupFilename(domain string, at time.Time) string {
	return fmt.Sprintf("backup_%s_%d.json", domain, at.UnixMilli())
}

func quarantineFilename(at time.Time) string {
	return fmt.Sprintf("orphaned_data_%d.json", at.UnixMilli())
}

// encodeBundle applies the configured compression and encryption to
// serialized bundle bytes
func (e *Engine) encodeBundle(data []byte) ([]byte, error) {
	data, err := Compress(data, e.options.Compression)
	if err != nil {
		return nil, err
	}
	if e.options.Passphrase != "" {
		data, err = Encrypt(data, e.options.Passphrase)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// decodeBundle reverses encodeBundle based on the location's suffixes,
// so restore works regardless of the engine's own write settings
func (e *Engine) decodeBundle(location string, data []byte) ([]byte, error) {
	var err error
	if IsEncrypted(location) {
		data, err = Decrypt(data, e.options.Passphrase)
		if err != nil {
			return nil, err
		}
	}
	return Decompress(data, DetectCompression(location))
}
