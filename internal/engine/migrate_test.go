package engine

import (
	"context"
	"testing"
	"time"

	"forum-tenant-sync/internal/errors"
	"forum-tenant-sync/internal/store"
)

func TestParseMigrateKinds(t *testing.T) {
	tests := []struct {
		list    string
		want    []MigrateKind
		wantErr bool
	}{
		{"", AllMigrateKinds, false},
		{"  ", AllMigrateKinds, false},
		{"content", []MigrateKind{MigrateContent}, false},
		{"content,users", []MigrateKind{MigrateContent, MigrateUsers}, false},
		{"Users, Categories", []MigrateKind{MigrateUsers, MigrateCategories}, false},
		{"badges", nil, true},
		{"content,replies", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseMigrateKinds(tt.list)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMigrateKinds(%q) expected error", tt.list)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMigrateKinds(%q) error: %v", tt.list, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseMigrateKinds(%q) = %v, want %v", tt.list, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseMigrateKinds(%q)[%d] = %v, want %v", tt.list, i, got[i], tt.want[i])
			}
		}
	}
}

func TestMigrateRequiresBothTenants(t *testing.T) {
	fs := newFakeStore()
	seedTenant(t, fs, "tenant-1", "acme")
	e := testEngine(t, fs, Options{})

	report, err := e.Migrate(context.Background(), "tenant-1", "missing", nil)
	if err == nil || !errors.IsNotFound(err) {
		t.Fatalf("expected not_found for missing target, got %v", err)
	}
	if report.Success {
		t.Error("report should be failed")
	}

	report, err = e.Migrate(context.Background(), "missing", "tenant-1", nil)
	if err == nil || !errors.IsNotFound(err) {
		t.Fatalf("expected not_found for missing source, got %v", err)
	}
	if report.Success {
		t.Error("report should be failed")
	}
}

func TestMigrateAllKinds(t *testing.T) {
	fs := newFakeStore()
	seedTenant(t, fs, "tenant-1", "acme")
	ctx := context.Background()
	if err := fs.CreateTenant(ctx, &store.Tenant{
		ID: "tenant-2", Domain: "globex", Name: "globex forum", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create target: %v", err)
	}
	e := testEngine(t, fs, Options{})

	report, err := e.Migrate(ctx, "tenant-1", "tenant-2", nil)
	if err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if !report.Success {
		t.Fatalf("migrate failed: %v", report.Errors)
	}
	// 2 users + 1 category + 1 content
	if report.ItemsProcessed != 4 {
		t.Errorf("ItemsProcessed = %d, want 4", report.ItemsProcessed)
	}
	if report.ItemsRecovered != 4 {
		t.Errorf("ItemsRecovered = %d, want 4 (errors: %v)", report.ItemsRecovered, report.Errors)
	}

	users, _ := fs.ListUsers(ctx, "tenant-2")
	if len(users) != 2 {
		t.Errorf("target users = %d, want 2", len(users))
	}
	content, _ := fs.ListContent(ctx, "tenant-2")
	if len(content) != 1 {
		t.Fatalf("target content = %d, want 1", len(content))
	}
	// the author must be the target-tenant copy of alice
	author, err := fs.FindUserByEmail(ctx, "tenant-2", "alice@acme")
	if err != nil {
		t.Fatalf("migrated author missing: %v", err)
	}
	if content[0].AuthorID != author.ID {
		t.Errorf("content author %q not re-homed to %q", content[0].AuthorID, author.ID)
	}
	// category resolved by name in the target
	category, err := fs.FindCategoryByName(ctx, "tenant-2", "general")
	if err != nil {
		t.Fatalf("migrated category missing: %v", err)
	}
	if content[0].CategoryID != category.ID {
		t.Errorf("content category %q not resolved to %q", content[0].CategoryID, category.ID)
	}
}

func TestMigrateContentProvisionsMissingAuthors(t *testing.T) {
	fs := newFakeStore()
	seedTenant(t, fs, "tenant-1", "acme")
	ctx := context.Background()
	if err := fs.CreateTenant(ctx, &store.Tenant{
		ID: "tenant-2", Domain: "globex", Name: "globex forum", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create target: %v", err)
	}
	e := testEngine(t, fs, Options{})

	// content only: the author has no counterpart in the target yet
	report, err := e.Migrate(ctx, "tenant-1", "tenant-2", []MigrateKind{MigrateContent})
	if err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if !report.Success {
		t.Fatalf("migrate failed: %v", report.Errors)
	}

	provisioned, err := fs.FindUserByEmail(ctx, "tenant-2", "alice@acme")
	if err != nil {
		t.Fatalf("author was not provisioned: %v", err)
	}
	if provisioned.Role != store.RoleMember {
		t.Errorf("provisioned role = %q, want %q", provisioned.Role, store.RoleMember)
	}

	content, _ := fs.ListContent(ctx, "tenant-2")
	if len(content) != 1 {
		t.Fatalf("target content = %d, want 1", len(content))
	}
	if content[0].AuthorID != provisioned.ID {
		t.Error("content not attached to the provisioned author")
	}
	// no category migrated, so the post lands uncategorized
	if content[0].CategoryID != "" {
		t.Errorf("category id = %q, want empty", content[0].CategoryID)
	}

	// 1 content processed; content + provisioned author recovered
	if report.ItemsProcessed != 1 {
		t.Errorf("ItemsProcessed = %d, want 1", report.ItemsProcessed)
	}
	if report.ItemsRecovered != 2 {
		t.Errorf("ItemsRecovered = %d, want 2", report.ItemsRecovered)
	}
}

func TestMigrateUsersOnlyLeavesContentAlone(t *testing.T) {
	fs := newFakeStore()
	seedTenant(t, fs, "tenant-1", "acme")
	ctx := context.Background()
	if err := fs.CreateTenant(ctx, &store.Tenant{
		ID: "tenant-2", Domain: "globex", Name: "globex forum", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create target: %v", err)
	}
	e := testEngine(t, fs, Options{})

	report, err := e.Migrate(ctx, "tenant-1", "tenant-2", []MigrateKind{MigrateUsers})
	if err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if report.ItemsProcessed != 2 || report.ItemsRecovered != 2 {
		t.Errorf("counts = %d/%d, want 2/2", report.ItemsProcessed, report.ItemsRecovered)
	}

	content, _ := fs.ListContent(ctx, "tenant-2")
	if len(content) != 0 {
		t.Errorf("content migrated despite users-only selection: %d", len(content))
	}
}

func TestMigrateContinuesPastRowFailures(t *testing.T) {
	fs := newFakeStore()
	seedTenant(t, fs, "tenant-1", "acme")
	ctx := context.Background()
	if err := fs.CreateTenant(ctx, &store.Tenant{
		ID: "tenant-2", Domain: "globex", Name: "globex forum", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create target: %v", err)
	}
	fs.failOn("CreateContent", errors.NewAppError(errors.ErrorTypeSQL, "insert rejected", nil))
	e := testEngine(t, fs, Options{})

	report, err := e.Migrate(ctx, "tenant-1", "tenant-2", nil)
	if err != nil {
		t.Fatalf("row failures must not abort the run: %v", err)
	}
	if !report.Success {
		t.Fatal("report should still complete")
	}
	if len(report.Errors) != 1 {
		t.Errorf("errors = %d, want 1: %v", len(report.Errors), report.Errors)
	}
	// users and categories made it across
	users, _ := fs.ListUsers(ctx, "tenant-2")
	if len(users) != 2 {
		t.Errorf("target users = %d, want 2", len(users))
	}
}
