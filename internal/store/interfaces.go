package store

import (
	"context"
)

// Store is the tenant store handle consumed by the engine. It is passed
// explicitly into every operation so tests can substitute a double.
type Store interface {
	// Tenants
	GetTenant(ctx context.Context, id string) (*Tenant, error)
	GetTenantByDomain(ctx context.Context, domain string) (*Tenant, error)
	CreateTenant(ctx context.Context, tenant *Tenant) error

	// Tenant-scoped listings, used by the snapshot builder. Polls come back
	// with options and votes nested so the bundle is fully denormalized.
	ListUsers(ctx context.Context, tenantID string) ([]User, error)
	ListCategories(ctx context.Context, tenantID string) ([]Category, error)
	ListContent(ctx context.Context, tenantID string) ([]Content, error)
	ListReplies(ctx context.Context, tenantID string) ([]Reply, error)
	ListReactions(ctx context.Context, tenantID string) ([]Reaction, error)
	ListBadges(ctx context.Context, tenantID string) ([]Badge, error)
	ListPolls(ctx context.Context, tenantID string) ([]Poll, error)

	// Natural-key lookups
	FindUserByEmail(ctx context.Context, tenantID, email string) (*User, error)
	FindCategoryByName(ctx context.Context, tenantID, name string) (*Category, error)

	// Natural-key upserts. The returned id is the row's id in the target
	// tenant: the existing row's id on a match, a fresh one on insert.
	UpsertUser(ctx context.Context, user *User) (string, CreateOutcome, error)
	UpsertCategory(ctx context.Context, category *Category) (string, CreateOutcome, error)
	UpsertBadge(ctx context.Context, badge *Badge) (string, CreateOutcome, error)

	// Append-only creates
	CreateContent(ctx context.Context, content *Content) (CreateOutcome, error)
	CreateReply(ctx context.Context, reply *Reply) (CreateOutcome, error)
	CreateReaction(ctx context.Context, reaction *Reaction) (CreateOutcome, error)
	CreatePoll(ctx context.Context, poll *Poll) (CreateOutcome, error)

	// Orphan reconciliation: anti-join scans and matching deletes across all
	// tenants for rows whose tenant reference no longer resolves.
	FindOrphanContent(ctx context.Context) ([]Content, error)
	FindOrphanReplies(ctx context.Context) ([]Reply, error)
	FindOrphanReactions(ctx context.Context) ([]Reaction, error)
	FindOrphanCategories(ctx context.Context) ([]Category, error)
	FindOrphanBadges(ctx context.Context) ([]Badge, error)
	DeleteOrphans(ctx context.Context, kind EntityKind) (int64, error)
}

// EntityKind names an entity table carrying a tenant id
type EntityKind string

const (
	KindUsers      EntityKind = "users"
	KindCategories EntityKind = "categories"
	KindContent    EntityKind = "content"
	KindReplies    EntityKind = "replies"
	KindReactions  EntityKind = "reactions"
	KindBadges     EntityKind = "badges"
	KindPolls      EntityKind = "polls"
)
