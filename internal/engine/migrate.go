package engine

import (
	"context"
	"fmt"
	"strings"

	"forum-tenant-sync/internal/errors"
	"forum-tenant-sync/internal/store"
)

// MigrateKind names a selectable migration slice
type MigrateKind string

const (
	MigrateContent    MigrateKind = "content"
	MigrateUsers      MigrateKind = "users"
	MigrateCategories MigrateKind = "categories"
)

// AllMigrateKinds is the default selection when the caller names none
var AllMigrateKinds = []MigrateKind{MigrateUsers, MigrateCategories, MigrateContent}

// ParseMigrateKinds parses a comma-separated kind list
func ParseMigrateKinds(list string) ([]MigrateKind, error) {
	if strings.TrimSpace(list) == "" {
		return AllMigrateKinds, nil
	}

	var kinds []MigrateKind
	for _, part := range strings.Split(list, ",") {
		switch MigrateKind(strings.TrimSpace(strings.ToLower(part))) {
		case MigrateContent:
			kinds = append(kinds, MigrateContent)
		case MigrateUsers:
			kinds = append(kinds, MigrateUsers)
		case MigrateCategories:
			kinds = append(kinds, MigrateCategories)
		default:
			return nil, errors.NewValidationError(
				fmt.Sprintf("unknown migration kind %q (content, users, categories)", strings.TrimSpace(part)), nil)
		}
	}
	return kinds, nil
}

func containsKind(kinds []MigrateKind, kind MigrateKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Migrate copies selected entity kinds from one live tenant to another.
// Users and categories merge by natural key. Content is re-homed by
// author email: a source author with no counterpart in the target gets
// a minimal member account provisioned on the fly, so no post loses
// its byline.
func (e *Engine) Migrate(ctx context.Context, sourceTenantID, targetTenantID string, kinds []MigrateKind) (_ *Report, err error) {
	done := e.logger.LogOperationStart(OperationMigrate, map[string]interface{}{
		"source_tenant_id": sourceTenantID,
		"target_tenant_id": targetTenantID,
	})
	defer func() { done(err) }()

	report := newReport(OperationMigrate, targetTenantID)
	if len(kinds) == 0 {
		kinds = AllMigrateKinds
	}

	source, err := e.store.GetTenant(ctx, sourceTenantID)
	if err != nil {
		if errors.IsNotFound(err) {
			err = errors.NewNotFoundError(fmt.Sprintf("source tenant %s not found", sourceTenantID), err)
		}
		return report.fail(err), err
	}
	target, err := e.store.GetTenant(ctx, targetTenantID)
	if err != nil {
		if errors.IsNotFound(err) {
			err = errors.NewNotFoundError(fmt.Sprintf("target tenant %s not found", targetTenantID), err)
		}
		return report.fail(err), err
	}

	e.logger.Infof("Migrating %s -> %s", source.Domain, target.Domain)

	if containsKind(kinds, MigrateUsers) {
		if err := e.migrateUsers(ctx, source.ID, target.ID, report); err != nil {
			return report.fail(err), err
		}
	}
	if containsKind(kinds, MigrateCategories) {
		if err := e.migrateCategories(ctx, source.ID, target.ID, report); err != nil {
			return report.fail(err), err
		}
	}
	if containsKind(kinds, MigrateContent) {
		if err := e.migrateContent(ctx, source.ID, target.ID, report); err != nil {
			return report.fail(err), err
		}
	}

	return report.complete(), nil
}

func (e *Engine) migrateUsers(ctx context.Context, sourceID, targetID string, report *Report) error {
	users, err := e.store.ListUsers(ctx, sourceID)
	if err != nil {
		return errors.WrapError(err, "failed to read source users")
	}

	failed := 0
	for _, user := range users {
		report.ItemsProcessed++
		row := user
		row.ID = ""
		row.TenantID = targetID
		if _, _, err := e.store.UpsertUser(ctx, &row); err != nil {
			failed++
			report.addError(fmt.Sprintf("user %s: %v", user.Email, err))
			continue
		}
		report.ItemsRecovered++
	}
	e.logger.LogEntityBatch(targetID, string(store.KindUsers), len(users), len(users)-failed, failed)
	return nil
}

func (e *Engine) migrateCategories(ctx context.Context, sourceID, targetID string, report *Report) error {
	categories, err := e.store.ListCategories(ctx, sourceID)
	if err != nil {
		return errors.WrapError(err, "failed to read source categories")
	}

	failed := 0
	for _, category := range categories {
		report.ItemsProcessed++
		row := category
		row.ID = ""
		row.TenantID = targetID
		if _, _, err := e.store.UpsertCategory(ctx, &row); err != nil {
			failed++
			report.addError(fmt.Sprintf("category %s: %v", category.Name, err))
			continue
		}
		report.ItemsRecovered++
	}
	e.logger.LogEntityBatch(targetID, string(store.KindCategories), len(categories), len(categories)-failed, failed)
	return nil
}

func (e *Engine) migrateContent(ctx context.Context, sourceID, targetID string, report *Report) error {
	content, err := e.store.ListContent(ctx, sourceID)
	if err != nil {
		return errors.WrapError(err, "failed to read source content")
	}

	// author ids only resolve inside the source tenant, so map them to
	// emails once and re-resolve each email in the target
	sourceUsers, err := e.store.ListUsers(ctx, sourceID)
	if err != nil {
		return errors.WrapError(err, "failed to read source users")
	}
	emailByID := make(map[string]string, len(sourceUsers))
	for _, user := range sourceUsers {
		emailByID[user.ID] = user.Email
	}

	sourceCategories, err := e.store.ListCategories(ctx, sourceID)
	if err != nil {
		return errors.WrapError(err, "failed to read source categories")
	}
	categoryNameByID := make(map[string]string, len(sourceCategories))
	for _, category := range sourceCategories {
		categoryNameByID[category.ID] = category.Name
	}

	failed := 0
	for _, item := range content {
		report.ItemsProcessed++

		authorID, provisioned, err := e.resolveTargetAuthor(ctx, targetID, emailByID[item.AuthorID])
		if err != nil {
			failed++
			report.addError(fmt.Sprintf("content %q: %v", item.Title, err))
			continue
		}
		if provisioned {
			report.ItemsRecovered++
		}

		row := item
		row.ID = ""
		row.TenantID = targetID
		row.AuthorID = authorID
		row.CategoryID = ""
		if name := categoryNameByID[item.CategoryID]; name != "" {
			if category, err := e.store.FindCategoryByName(ctx, targetID, name); err == nil {
				row.CategoryID = category.ID
			}
		}

		outcome, err := e.store.CreateContent(ctx, &row)
		if err != nil || outcome == store.OutcomeFailed {
			failed++
			report.addError(fmt.Sprintf("content %q: %v", item.Title, err))
			continue
		}
		report.ItemsRecovered++
	}
	e.logger.LogEntityBatch(targetID, string(store.KindContent), len(content), len(content)-failed, failed)
	return nil
}

// resolveTargetAuthor finds the target-tenant user for an email,
// provisioning a minimal member account when none exists. The second
// return reports whether a new account was created.
func (e *Engine) resolveTargetAuthor(ctx context.Context, targetID, email string) (string, bool, error) {
	if email == "" {
		return "", false, errors.NewEntityError("source author has no email", nil)
	}

	existing, err := e.store.FindUserByEmail(ctx, targetID, email)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.IsNotFound(err) {
		return "", false, err
	}

	user := &store.User{
		TenantID:    targetID,
		Email:       email,
		DisplayName: email,
		Role:        store.RoleMember,
	}
	userID, _, err := e.store.UpsertUser(ctx, user)
	if err != nil {
		return "", false, errors.WrapError(err, "failed to provision author "+email)
	}
	e.logger.Debugf("Provisioned author %s in tenant %s", email, targetID)
	return userID, true, nil
}
