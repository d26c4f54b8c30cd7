package engine

import (
	"forum-tenant-sync/internal/store"
)

// IdentityMap is the restore-scoped table mapping a bundle-local entity id to
// the id newly assigned (or matched) in the target tenant. It is built
// incrementally while parents are restored, consulted when their children
// are, and discarded when the restore call returns.
type IdentityMap struct {
	ids map[string]string
}

// NewIdentityMap creates an empty identity map
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{ids: make(map[string]string)}
}

// key namespaces bundle-local ids by kind; two kinds may reuse an id value
func key(kind store.EntityKind, bundleID string) string {
	return string(kind) + ":" + bundleID
}

// Set records the target id assigned to a bundle-local id
func (m *IdentityMap) Set(kind store.EntityKind, bundleID, targetID string) {
	m.ids[key(kind, bundleID)] = targetID
}

// Lookup resolves a bundle-local id to its target id. A miss means the
// parent entity failed to restore and the child must be skipped.
func (m *IdentityMap) Lookup(kind store.EntityKind, bundleID string) (string, bool) {
	targetID, ok := m.ids[key(kind, bundleID)]
	return targetID, ok
}

// Len returns the number of recorded mappings
func (m *IdentityMap) Len() int {
	return len(m.ids)
}
