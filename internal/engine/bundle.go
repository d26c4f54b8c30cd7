package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"forum-tenant-sync/internal/errors"
	"forum-tenant-sync/internal/store"
)

// BundleVersion is the current bundle format version
const BundleVersion = "1.0"

// Bundle kind tags carried in file metadata
const (
	BundleKindBackup   = "tenant_backup"
	BundleKindOrphaned = "orphaned_data"
)

// Bundle is an immutable, versioned, self-contained snapshot of one tenant's
// entity graph. It is fully denormalized: the restorer never re-queries the
// source store. Created once by the snapshot builder, read-only thereafter.
type Bundle struct {
	Tenant     store.Tenant     `json:"tenant"`
	Users      []store.User     `json:"users"`
	Content    []store.Content  `json:"content"`
	Replies    []store.Reply    `json:"replies"`
	Reactions  []store.Reaction `json:"reactions"`
	Categories []store.Category `json:"categories"`
	Badges     []store.Badge    `json:"badges"`
	Polls      []store.Poll     `json:"polls"`
	Metadata   BundleMetadata   `json:"metadata"`
	Checksum   string           `json:"checksum,omitempty"`
}

// BundleMetadata describes a bundle file
type BundleMetadata struct {
	Version      string    `json:"version"`
	Kind         string    `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
	TotalRecords int       `json:"totalRecords"`
}

// CountRecords returns the sum of all entity array lengths
func (b *Bundle) CountRecords() int {
	return len(b.Users) + len(b.Content) + len(b.Replies) +
		len(b.Reactions) + len(b.Categories) + len(b.Badges) + len(b.Polls)
}

// Validate checks the bundle's structural invariants
func (b *Bundle) Validate() error {
	if b.Tenant.ID == "" {
		return errors.NewAppError(errors.ErrorTypeValidation, "bundle tenant id is required", nil)
	}
	if b.Tenant.Domain == "" {
		return errors.NewAppError(errors.ErrorTypeValidation, "bundle tenant domain is required", nil)
	}
	if b.Metadata.Version == "" {
		return errors.NewAppError(errors.ErrorTypeValidation, "bundle version is required", nil)
	}
	if b.Metadata.TotalRecords != b.CountRecords() {
		return errors.NewAppError(errors.ErrorTypeValidation,
			fmt.Sprintf("bundle totalRecords %d does not match actual record count %d",
				b.Metadata.TotalRecords, b.CountRecords()), nil)
	}
	return nil
}

// ToJSON serializes the bundle
func (b *Bundle) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "failed to marshal bundle", err)
	}
	return data, nil
}

// FromJSON deserializes and validates a bundle
func (b *Bundle) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, b); err != nil {
		return errors.NewAppError(errors.ErrorTypeValidation, "failed to unmarshal bundle JSON", err)
	}
	return b.Validate()
}

// CalculateChecksum calculates and sets the SHA-256 checksum over the
// bundle's canonical JSON, excluding the checksum field itself
func (b *Bundle) CalculateChecksum() error {
	temp := *b
	temp.Checksum = ""

	data, err := json.Marshal(temp)
	if err != nil {
		return errors.NewAppError(errors.ErrorTypeValidation,
			"failed to marshal bundle for checksum calculation", err)
	}

	hash := sha256.Sum256(data)
	b.Checksum = hex.EncodeToString(hash[:])
	return nil
}

// VerifyChecksum verifies the bundle's checksum. A bundle without a checksum
// passes; older tooling wrote none.
func (b *Bundle) VerifyChecksum() bool {
	if b.Checksum == "" {
		return true
	}

	originalChecksum := b.Checksum
	if err := b.CalculateChecksum(); err != nil {
		return false
	}

	calculatedChecksum := b.Checksum
	b.Checksum = originalChecksum

	return originalChecksum == calculatedChecksum
}

// Quarantine is the serialized copy of all orphaned rows, written before any
// deletion so the clean operation is always reversible.
type Quarantine struct {
	Content    []store.Content    `json:"content"`
	Replies    []store.Reply      `json:"replies"`
	Reactions  []store.Reaction   `json:"reactions"`
	Categories []store.Category   `json:"categories"`
	Badges     []store.Badge      `json:"badges"`
	Metadata   QuarantineMetadata `json:"metadata"`
}

// QuarantineMetadata describes a quarantine file
type QuarantineMetadata struct {
	Kind         string    `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
	TotalOrphans int       `json:"totalOrphans"`
}

// CountOrphans returns the sum of all orphan array lengths
func (q *Quarantine) CountOrphans() int {
	return len(q.Content) + len(q.Replies) + len(q.Reactions) +
		len(q.Categories) + len(q.Badges)
}

// ToJSON serializes the quarantine file
func (q *Quarantine) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "failed to marshal quarantine file", err)
	}
	return data, nil
}
