package store

import (
	"context"
	"database/sql"
	"fmt"

	"forum-tenant-sync/internal/errors"
)

// Anti-join queries locating rows whose tenant reference no longer resolves.
// The scans are read-only; deletion is a separate primitive so the caller can
// quarantine everything before the first mutation.

const orphanJoin = " e LEFT JOIN tenants t ON e.tenant_id = t.id WHERE t.id IS NULL"

// FindOrphanContent returns content rows with a dangling tenant reference
func (s *SQLStore) FindOrphanContent(ctx context.Context) ([]Content, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT e.id, e.tenant_id, e.author_id, e.category_id, e.title, e.body, e.created_at FROM content"+orphanJoin)
	if err != nil {
		return nil, errors.WrapError(err, "failed to scan for orphaned content")
	}
	defer rows.Close()

	var orphans []Content
	for rows.Next() {
		var c Content
		var categoryID, body sql.NullString
		if err := rows.Scan(&c.ID, &c.TenantID, &c.AuthorID, &categoryID, &c.Title, &body, &c.CreatedAt); err != nil {
			return nil, errors.WrapError(err, "failed to scan orphaned content row")
		}
		c.CategoryID = categoryID.String
		c.Body = body.String
		orphans = append(orphans, c)
	}

	return orphans, rows.Err()
}

// FindOrphanReplies returns replies with a dangling tenant reference
func (s *SQLStore) FindOrphanReplies(ctx context.Context) ([]Reply, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT e.id, e.tenant_id, e.content_id, e.author_id, e.body, e.created_at FROM replies"+orphanJoin)
	if err != nil {
		return nil, errors.WrapError(err, "failed to scan for orphaned replies")
	}
	defer rows.Close()

	var orphans []Reply
	for rows.Next() {
		var r Reply
		if err := rows.Scan(&r.ID, &r.TenantID, &r.ContentID, &r.AuthorID, &r.Body, &r.CreatedAt); err != nil {
			return nil, errors.WrapError(err, "failed to scan orphaned reply row")
		}
		orphans = append(orphans, r)
	}

	return orphans, rows.Err()
}

// FindOrphanReactions returns reactions with a dangling tenant reference
func (s *SQLStore) FindOrphanReactions(ctx context.Context) ([]Reaction, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT e.id, e.tenant_id, e.content_id, e.reply_id, e.user_id, e.kind FROM reactions"+orphanJoin)
	if err != nil {
		return nil, errors.WrapError(err, "failed to scan for orphaned reactions")
	}
	defer rows.Close()

	var orphans []Reaction
	for rows.Next() {
		var r Reaction
		var contentID, replyID sql.NullString
		if err := rows.Scan(&r.ID, &r.TenantID, &contentID, &replyID, &r.UserID, &r.Kind); err != nil {
			return nil, errors.WrapError(err, "failed to scan orphaned reaction row")
		}
		r.ContentID = contentID.String
		r.ReplyID = replyID.String
		orphans = append(orphans, r)
	}

	return orphans, rows.Err()
}

// FindOrphanCategories returns categories with a dangling tenant reference
func (s *SQLStore) FindOrphanCategories(ctx context.Context) ([]Category, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT e.id, e.tenant_id, e.name, e.color, e.description FROM categories"+orphanJoin)
	if err != nil {
		return nil, errors.WrapError(err, "failed to scan for orphaned categories")
	}
	defer rows.Close()

	var orphans []Category
	for rows.Next() {
		var c Category
		var color, description sql.NullString
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &color, &description); err != nil {
			return nil, errors.WrapError(err, "failed to scan orphaned category row")
		}
		c.Color = color.String
		c.Description = description.String
		orphans = append(orphans, c)
	}

	return orphans, rows.Err()
}

// FindOrphanBadges returns badges with a dangling tenant reference
func (s *SQLStore) FindOrphanBadges(ctx context.Context) ([]Badge, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT e.id, e.tenant_id, e.name, e.description, e.icon FROM badges"+orphanJoin)
	if err != nil {
		return nil, errors.WrapError(err, "failed to scan for orphaned badges")
	}
	defer rows.Close()

	var orphans []Badge
	for rows.Next() {
		var b Badge
		var description, icon sql.NullString
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &description, &icon); err != nil {
			return nil, errors.WrapError(err, "failed to scan orphaned badge row")
		}
		b.Description = description.String
		b.Icon = icon.String
		orphans = append(orphans, b)
	}

	return orphans, rows.Err()
}

// orphanDeleteTables maps a kind to its table name. Only kinds the reconciler
// deletes are listed; the map doubles as the allow-list guarding the SQL below.
var orphanDeleteTables = map[EntityKind]string{
	KindContent:    "content",
	KindReplies:    "replies",
	KindReactions:  "reactions",
	KindCategories: "categories",
	KindBadges:     "badges",
}

// DeleteOrphans removes every row of one kind whose tenant reference no
// longer resolves and reports how many rows went away.
func (s *SQLStore) DeleteOrphans(ctx context.Context, kind EntityKind) (int64, error) {
	table, ok := orphanDeleteTables[kind]
	if !ok {
		return 0, errors.NewAppError(errors.ErrorTypeValidation,
			fmt.Sprintf("unsupported orphan kind %q", kind), nil)
	}

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(queryCtx,
		"DELETE e FROM "+table+orphanJoin)
	if err != nil {
		return 0, errors.WrapError(err, fmt.Sprintf("failed to delete orphaned %s", kind))
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, errors.WrapError(err, "failed to count deleted rows")
	}

	return deleted, nil
}
