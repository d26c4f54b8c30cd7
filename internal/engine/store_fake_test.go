package engine

import (
	"context"
	"fmt"
	"sync"

	"forum-tenant-sync/internal/errors"
	"forum-tenant-sync/internal/store"

	"github.com/google/uuid"
)

// fakeStore is an in-memory store.Store used by the engine tests. It
// enforces the same natural-key semantics as the SQL implementation.
type fakeStore struct {
	mu sync.Mutex

	tenants    map[string]store.Tenant
	users      map[string]store.User
	categories map[string]store.Category
	content    map[string]store.Content
	replies    map[string]store.Reply
	reactions  map[string]store.Reaction
	badges     map[string]store.Badge
	polls      map[string]store.Poll

	// failures maps "op" names to errors for fault injection
	failures map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:    make(map[string]store.Tenant),
		users:      make(map[string]store.User),
		categories: make(map[string]store.Category),
		content:    make(map[string]store.Content),
		replies:    make(map[string]store.Reply),
		reactions:  make(map[string]store.Reaction),
		badges:     make(map[string]store.Badge),
		polls:      make(map[string]store.Poll),
		failures:   make(map[string]error),
	}
}

func (f *fakeStore) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

func (f *fakeStore) injected(op string) error {
	return f.failures[op]
}

func (f *fakeStore) GetTenant(_ context.Context, id string) (*store.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("GetTenant"); err != nil {
		return nil, err
	}
	tenant, ok := f.tenants[id]
	if !ok {
		return nil, errors.NewNotFoundError("tenant not found: "+id, nil)
	}
	return &tenant, nil
}

func (f *fakeStore) GetTenantByDomain(_ context.Context, domain string) (*store.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tenant := range f.tenants {
		if tenant.Domain == domain {
			t := tenant
			return &t, nil
		}
	}
	return nil, errors.NewNotFoundError("tenant not found: "+domain, nil)
}

func (f *fakeStore) CreateTenant(_ context.Context, tenant *store.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("CreateTenant"); err != nil {
		return err
	}
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	if _, exists := f.tenants[tenant.ID]; exists {
		return errors.NewConflictError("tenant already exists: "+tenant.ID, nil)
	}
	// domains carry a global unique index, mirror the SQL store's 1062
	for _, row := range f.tenants {
		if row.Domain == tenant.Domain {
			return errors.NewConflictError("tenant domain already exists: "+tenant.Domain, nil)
		}
	}
	f.tenants[tenant.ID] = *tenant
	return nil
}

func (f *fakeStore) ListUsers(_ context.Context, tenantID string) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("ListUsers"); err != nil {
		return nil, err
	}
	var out []store.User
	for _, row := range f.users {
		if row.TenantID == tenantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCategories(_ context.Context, tenantID string) ([]store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("ListCategories"); err != nil {
		return nil, err
	}
	var out []store.Category
	for _, row := range f.categories {
		if row.TenantID == tenantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) ListContent(_ context.Context, tenantID string) ([]store.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("ListContent"); err != nil {
		return nil, err
	}
	var out []store.Content
	for _, row := range f.content {
		if row.TenantID == tenantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) ListReplies(_ context.Context, tenantID string) ([]store.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Reply
	for _, row := range f.replies {
		if row.TenantID == tenantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) ListReactions(_ context.Context, tenantID string) ([]store.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Reaction
	for _, row := range f.reactions {
		if row.TenantID == tenantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) ListBadges(_ context.Context, tenantID string) ([]store.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Badge
	for _, row := range f.badges {
		if row.TenantID == tenantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPolls(_ context.Context, tenantID string) ([]store.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Poll
	for _, row := range f.polls {
		if row.TenantID == tenantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) FindUserByEmail(_ context.Context, tenantID, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.users {
		if row.TenantID == tenantID && row.Email == email {
			u := row
			return &u, nil
		}
	}
	return nil, errors.NewNotFoundError("user not found: "+email, nil)
}

func (f *fakeStore) FindCategoryByName(_ context.Context, tenantID, name string) (*store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.categories {
		if row.TenantID == tenantID && row.Name == name {
			c := row
			return &c, nil
		}
	}
	return nil, errors.NewNotFoundError("category not found: "+name, nil)
}

func (f *fakeStore) UpsertUser(_ context.Context, user *store.User) (string, store.CreateOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("UpsertUser"); err != nil {
		return "", store.OutcomeFailed, err
	}
	for id, row := range f.users {
		if row.TenantID == user.TenantID && row.Email == user.Email {
			row.DisplayName = user.DisplayName
			row.Role = user.Role
			f.users[id] = row
			return id, store.OutcomeDuplicate, nil
		}
	}
	id := uuid.New().String()
	row := *user
	row.ID = id
	f.users[id] = row
	return id, store.OutcomeCreated, nil
}

func (f *fakeStore) UpsertCategory(_ context.Context, category *store.Category) (string, store.CreateOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("UpsertCategory"); err != nil {
		return "", store.OutcomeFailed, err
	}
	for id, row := range f.categories {
		if row.TenantID == category.TenantID && row.Name == category.Name {
			row.Color = category.Color
			row.Description = category.Description
			f.categories[id] = row
			return id, store.OutcomeDuplicate, nil
		}
	}
	id := uuid.New().String()
	row := *category
	row.ID = id
	f.categories[id] = row
	return id, store.OutcomeCreated, nil
}

func (f *fakeStore) UpsertBadge(_ context.Context, badge *store.Badge) (string, store.CreateOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.badges {
		if row.TenantID == badge.TenantID && row.Name == badge.Name {
			return id, store.OutcomeDuplicate, nil
		}
	}
	id := uuid.New().String()
	row := *badge
	row.ID = id
	f.badges[id] = row
	return id, store.OutcomeCreated, nil
}

func (f *fakeStore) CreateContent(_ context.Context, content *store.Content) (store.CreateOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("CreateContent"); err != nil {
		return store.OutcomeFailed, err
	}
	if content.ID == "" {
		content.ID = uuid.New().String()
	}
	f.content[content.ID] = *content
	return store.OutcomeCreated, nil
}

func (f *fakeStore) CreateReply(_ context.Context, reply *store.Reply) (store.CreateOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	f.replies[reply.ID] = *reply
	return store.OutcomeCreated, nil
}

func (f *fakeStore) CreateReaction(_ context.Context, reaction *store.Reaction) (store.CreateOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.reactions {
		if row.TenantID == reaction.TenantID && row.ContentID == reaction.ContentID &&
			row.ReplyID == reaction.ReplyID && row.UserID == reaction.UserID {
			return store.OutcomeDuplicate, nil
		}
	}
	if reaction.ID == "" {
		reaction.ID = uuid.New().String()
	}
	f.reactions[reaction.ID] = *reaction
	return store.OutcomeCreated, nil
}

func (f *fakeStore) CreatePoll(_ context.Context, poll *store.Poll) (store.CreateOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if poll.ID == "" {
		poll.ID = uuid.New().String()
	}
	f.polls[poll.ID] = *poll
	return store.OutcomeCreated, nil
}

func (f *fakeStore) FindOrphanContent(_ context.Context) ([]store.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("FindOrphanContent"); err != nil {
		return nil, err
	}
	var out []store.Content
	for _, row := range f.content {
		if _, ok := f.tenants[row.TenantID]; !ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) FindOrphanReplies(_ context.Context) ([]store.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Reply
	for _, row := range f.replies {
		if _, ok := f.tenants[row.TenantID]; !ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) FindOrphanReactions(_ context.Context) ([]store.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Reaction
	for _, row := range f.reactions {
		if _, ok := f.tenants[row.TenantID]; !ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) FindOrphanCategories(_ context.Context) ([]store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Category
	for _, row := range f.categories {
		if _, ok := f.tenants[row.TenantID]; !ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) FindOrphanBadges(_ context.Context) ([]store.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Badge
	for _, row := range f.badges {
		if _, ok := f.tenants[row.TenantID]; !ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteOrphans(_ context.Context, kind store.EntityKind) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("DeleteOrphans:" + string(kind)); err != nil {
		return 0, err
	}

	orphaned := func(tenantID string) bool {
		_, ok := f.tenants[tenantID]
		return !ok
	}

	var deleted int64
	switch kind {
	case store.KindContent:
		for id, row := range f.content {
			if orphaned(row.TenantID) {
				delete(f.content, id)
				deleted++
			}
		}
	case store.KindReplies:
		for id, row := range f.replies {
			if orphaned(row.TenantID) {
				delete(f.replies, id)
				deleted++
			}
		}
	case store.KindReactions:
		for id, row := range f.reactions {
			if orphaned(row.TenantID) {
				delete(f.reactions, id)
				deleted++
			}
		}
	case store.KindCategories:
		for id, row := range f.categories {
			if orphaned(row.TenantID) {
				delete(f.categories, id)
				deleted++
			}
		}
	case store.KindBadges:
		for id, row := range f.badges {
			if orphaned(row.TenantID) {
				delete(f.badges, id)
				deleted++
			}
		}
	default:
		return 0, fmt.Errorf("unexpected kind %s", kind)
	}
	return deleted, nil
}
