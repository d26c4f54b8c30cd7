package engine

import (
	"context"
	"fmt"

	"forum-tenant-sync/internal/errors"
	"forum-tenant-sync/internal/store"
)

// LoadBundle reads a bundle file, reversing encryption and compression
// as indicated by the location's suffixes, and verifies its checksum.
func (e *Engine) LoadBundle(ctx context.Context, location string) (*Bundle, error) {
	data, err := e.bundles.Read(ctx, location)
	if err != nil {
		return nil, err
	}

	data, err = e.decodeBundle(location, data)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{}
	if err := bundle.FromJSON(data); err != nil {
		return nil, err
	}
	if !bundle.VerifyChecksum() {
		return nil, errors.NewValidationError("bundle checksum mismatch, file may be corrupted", nil)
	}
	return bundle, nil
}

// Restore replays a bundle into a target tenant. With an empty
// targetTenantID the bundle's own tenant id is used, and that tenant
// must not already exist. An explicit target is created from the
// bundle's tenant metadata when absent and reused when present.
//
// Entities are restored parents first: users and categories upsert by
// natural key and feed the identity map, then content, replies,
// reactions and polls are created with remapped references, then
// badges. A row whose parent failed to restore is skipped and logged,
// never written dangling.
func (e *Engine) Restore(ctx context.Context, bundlePath, targetTenantID string) (_ *Report, err error) {
	done := e.logger.LogOperationStart(OperationRestore, map[string]interface{}{
		"bundle":    bundlePath,
		"tenant_id": targetTenantID,
	})
	defer func() { done(err) }()

	report := newReport(OperationRestore, targetTenantID)

	bundle, err := e.LoadBundle(ctx, bundlePath)
	if err != nil {
		return report.fail(err), err
	}

	target, err := e.resolveTarget(ctx, bundle, targetTenantID)
	if err != nil {
		return report.fail(err), err
	}
	report.TenantID = target.ID

	e.logger.Infof("Restoring %d records into tenant %s (%s)",
		bundle.Metadata.TotalRecords, target.Domain, target.ID)

	report.ItemsProcessed = bundle.Metadata.TotalRecords
	ids := NewIdentityMap()

	e.restoreUsers(ctx, bundle, target.ID, ids, report)
	e.restoreCategories(ctx, bundle, target.ID, ids, report)
	e.restoreContent(ctx, bundle, target.ID, ids, report)
	e.restoreReplies(ctx, bundle, target.ID, ids, report)
	e.restoreReactions(ctx, bundle, target.ID, ids, report)
	e.restorePolls(ctx, bundle, target.ID, ids, report)
	e.restoreBadges(ctx, bundle, target.ID, report)

	return report.complete(), nil
}

// resolveTarget decides which tenant receives the restore. Restoring a
// bundle over its own still-existing tenant would duplicate every post,
// so that case aborts with a conflict.
func (e *Engine) resolveTarget(ctx context.Context, bundle *Bundle, targetTenantID string) (*store.Tenant, error) {
	if targetTenantID == "" {
		existing, err := e.store.GetTenant(ctx, bundle.Tenant.ID)
		if err == nil {
			return nil, errors.NewConflictError(fmt.Sprintf(
				"tenant %s already exists; supply an explicit target tenant id to restore elsewhere",
				existing.ID), nil)
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
		return e.createTargetTenant(ctx, bundle, bundle.Tenant.ID)
	}

	existing, err := e.store.GetTenant(ctx, targetTenantID)
	if err == nil {
		return existing, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}
	return e.createTargetTenant(ctx, bundle, targetTenantID)
}

func (e *Engine) createTargetTenant(ctx context.Context, bundle *Bundle, id string) (*store.Tenant, error) {
	tenant := bundle.Tenant
	tenant.ID = id

	domain, err := e.availableDomain(ctx, tenant.Domain, id)
	if err != nil {
		return nil, err
	}
	if domain != tenant.Domain {
		e.logger.Infof("Domain %s is taken, target tenant gets %s", tenant.Domain, domain)
		tenant.Domain = domain
	}

	if err := e.store.CreateTenant(ctx, &tenant); err != nil {
		return nil, errors.WrapError(err, "failed to create target tenant")
	}
	e.logger.Infof("Created target tenant %s (%s)", tenant.Domain, tenant.ID)
	return &tenant, nil
}

// availableDomain keeps the bundle's domain when no tenant holds it.
// Domains are globally unique, so restoring next to a still-live source
// tenant derives a fresh domain from the target id instead of running
// into the duplicate-key conflict.
func (e *Engine) availableDomain(ctx context.Context, domain, tenantID string) (string, error) {
	_, err := e.store.GetTenantByDomain(ctx, domain)
	if errors.IsNotFound(err) {
		return domain, nil
	}
	if err != nil {
		return "", errors.WrapError(err, "failed to check target domain")
	}

	suffix := tenantID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return domain + "-" + suffix, nil
}

func (e *Engine) restoreUsers(ctx context.Context, bundle *Bundle, tenantID string, ids *IdentityMap, report *Report) {
	failed := 0
	for _, user := range bundle.Users {
		row := user
		row.TenantID = tenantID
		targetID, _, err := e.store.UpsertUser(ctx, &row)
		if err != nil {
			failed++
			report.addError(fmt.Sprintf("user %s: %v", user.Email, err))
			continue
		}
		ids.Set(store.KindUsers, user.ID, targetID)
		report.ItemsRecovered++
	}
	e.logger.LogEntityBatch(tenantID, string(store.KindUsers), len(bundle.Users), len(bundle.Users)-failed, failed)
}

func (e *Engine) restoreCategories(ctx context.Context, bundle *Bundle, tenantID string, ids *IdentityMap, report *Report) {
	failed := 0
	for _, category := range bundle.Categories {
		row := category
		row.TenantID = tenantID
		targetID, _, err := e.store.UpsertCategory(ctx, &row)
		if err != nil {
			failed++
			report.addError(fmt.Sprintf("category %s: %v", category.Name, err))
			continue
		}
		ids.Set(store.KindCategories, category.ID, targetID)
		report.ItemsRecovered++
	}
	e.logger.LogEntityBatch(tenantID, string(store.KindCategories), len(bundle.Categories), len(bundle.Categories)-failed, failed)
}

func (e *Engine) restoreContent(ctx context.Context, bundle *Bundle, tenantID string, ids *IdentityMap, report *Report) {
	failed := 0
	for _, content := range bundle.Content {
		authorID, ok := ids.Lookup(store.KindUsers, content.AuthorID)
		if !ok {
			failed++
			report.addError(fmt.Sprintf("content %q: author %s was not restored", content.Title, content.AuthorID))
			continue
		}

		row := content
		row.ID = ""
		row.TenantID = tenantID
		row.AuthorID = authorID
		// a missing category is tolerable, the post survives uncategorized
		if content.CategoryID != "" {
			if categoryID, ok := ids.Lookup(store.KindCategories, content.CategoryID); ok {
				row.CategoryID = categoryID
			} else {
				row.CategoryID = ""
			}
		}

		outcome, err := e.store.CreateContent(ctx, &row)
		if err != nil || outcome == store.OutcomeFailed {
			failed++
			report.addError(fmt.Sprintf("content %q: %v", content.Title, err))
			continue
		}
		ids.Set(store.KindContent, content.ID, row.ID)
		report.ItemsRecovered++
	}
	e.logger.LogEntityBatch(tenantID, string(store.KindContent), len(bundle.Content), len(bundle.Content)-failed, failed)
}

func (e *Engine) restoreReplies(ctx context.Context, bundle *Bundle, tenantID string, ids *IdentityMap, report *Report) {
	failed := 0
	for _, reply := range bundle.Replies {
		contentID, ok := ids.Lookup(store.KindContent, reply.ContentID)
		if !ok {
			failed++
			report.addError(fmt.Sprintf("reply %s: content %s was not restored", reply.ID, reply.ContentID))
			continue
		}
		authorID, ok := ids.Lookup(store.KindUsers, reply.AuthorID)
		if !ok {
			failed++
			report.addError(fmt.Sprintf("reply %s: author %s was not restored", reply.ID, reply.AuthorID))
			continue
		}

		row := reply
		row.ID = ""
		row.TenantID = tenantID
		row.ContentID = contentID
		row.AuthorID = authorID

		outcome, err := e.store.CreateReply(ctx, &row)
		if err != nil || outcome == store.OutcomeFailed {
			failed++
			report.addError(fmt.Sprintf("reply %s: %v", reply.ID, err))
			continue
		}
		ids.Set(store.KindReplies, reply.ID, row.ID)
		report.ItemsRecovered++
	}
	e.logger.LogEntityBatch(tenantID, string(store.KindReplies), len(bundle.Replies), len(bundle.Replies)-failed, failed)
}

func (e *Engine) restoreReactions(ctx context.Context, bundle *Bundle, tenantID string, ids *IdentityMap, report *Report) {
	failed := 0
	for _, reaction := range bundle.Reactions {
		row := reaction
		row.ID = ""
		row.TenantID = tenantID

		userID, ok := ids.Lookup(store.KindUsers, reaction.UserID)
		if !ok {
			failed++
			report.addError(fmt.Sprintf("reaction %s: user %s was not restored", reaction.ID, reaction.UserID))
			continue
		}
		row.UserID = userID

		switch {
		case reaction.ContentID != "":
			contentID, ok := ids.Lookup(store.KindContent, reaction.ContentID)
			if !ok {
				failed++
				report.addError(fmt.Sprintf("reaction %s: content %s was not restored", reaction.ID, reaction.ContentID))
				continue
			}
			row.ContentID = contentID
		case reaction.ReplyID != "":
			replyID, ok := ids.Lookup(store.KindReplies, reaction.ReplyID)
			if !ok {
				failed++
				report.addError(fmt.Sprintf("reaction %s: reply %s was not restored", reaction.ID, reaction.ReplyID))
				continue
			}
			row.ReplyID = replyID
		default:
			failed++
			report.addError(fmt.Sprintf("reaction %s: no target reference", reaction.ID))
			continue
		}

		outcome, err := e.store.CreateReaction(ctx, &row)
		if err != nil {
			failed++
			report.addError(fmt.Sprintf("reaction %s: %v", reaction.ID, err))
			continue
		}
		// a duplicate reaction already exists in the target; benign, but
		// nothing was recovered
		if outcome == store.OutcomeCreated {
			report.ItemsRecovered++
		}
	}
	e.logger.LogEntityBatch(tenantID, string(store.KindReactions), len(bundle.Reactions), len(bundle.Reactions)-failed, failed)
}

func (e *Engine) restorePolls(ctx context.Context, bundle *Bundle, tenantID string, ids *IdentityMap, report *Report) {
	failed := 0
	for _, poll := range bundle.Polls {
		contentID, ok := ids.Lookup(store.KindContent, poll.ContentID)
		if !ok {
			failed++
			report.addError(fmt.Sprintf("poll %q: content %s was not restored", poll.Question, poll.ContentID))
			continue
		}
		authorID, ok := ids.Lookup(store.KindUsers, poll.AuthorID)
		if !ok {
			failed++
			report.addError(fmt.Sprintf("poll %q: author %s was not restored", poll.Question, poll.AuthorID))
			continue
		}

		row := poll
		row.ID = ""
		row.TenantID = tenantID
		row.ContentID = contentID
		row.AuthorID = authorID
		row.Options = remapPollOptions(poll.Options, ids)

		outcome, err := e.store.CreatePoll(ctx, &row)
		if err != nil || outcome == store.OutcomeFailed {
			failed++
			report.addError(fmt.Sprintf("poll %q: %v", poll.Question, err))
			continue
		}
		report.ItemsRecovered++
	}
	e.logger.LogEntityBatch(tenantID, string(store.KindPolls), len(bundle.Polls), len(bundle.Polls)-failed, failed)
}

// remapPollOptions rewrites vote user references and drops votes whose
// user did not make it into the target tenant
func remapPollOptions(options []store.PollOption, ids *IdentityMap) []store.PollOption {
	remapped := make([]store.PollOption, 0, len(options))
	for _, option := range options {
		out := option
		out.ID = ""
		out.Votes = nil
		for _, vote := range option.Votes {
			userID, ok := ids.Lookup(store.KindUsers, vote.UserID)
			if !ok {
				continue
			}
			v := vote
			v.ID = ""
			v.UserID = userID
			out.Votes = append(out.Votes, v)
		}
		remapped = append(remapped, out)
	}
	return remapped
}

func (e *Engine) restoreBadges(ctx context.Context, bundle *Bundle, tenantID string, report *Report) {
	failed := 0
	for _, badge := range bundle.Badges {
		row := badge
		row.TenantID = tenantID
		if _, _, err := e.store.UpsertBadge(ctx, &row); err != nil {
			failed++
			report.addError(fmt.Sprintf("badge %s: %v", badge.Name, err))
			continue
		}
		report.ItemsRecovered++
	}
	e.logger.LogEntityBatch(tenantID, string(store.KindBadges), len(bundle.Badges), len(bundle.Badges)-failed, failed)
}
