package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"forum-tenant-sync/internal/errors"

	"github.com/google/uuid"
)

// Listings

// ListUsers returns every user of a tenant
func (s *SQLStore) ListUsers(ctx context.Context, tenantID string) ([]User, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT id, tenant_id, email, display_name, role, created_at FROM users WHERE tenant_id = ?", tenantID)
	if err != nil {
		return nil, errors.WrapError(err, "failed to list users")
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var displayName sql.NullString
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &displayName, &u.Role, &u.CreatedAt); err != nil {
			return nil, errors.WrapError(err, "failed to scan user row")
		}
		u.DisplayName = displayName.String
		users = append(users, u)
	}

	return users, rows.Err()
}

// ListCategories returns every category of a tenant
func (s *SQLStore) ListCategories(ctx context.Context, tenantID string) ([]Category, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT id, tenant_id, name, color, description FROM categories WHERE tenant_id = ?", tenantID)
	if err != nil {
		return nil, errors.WrapError(err, "failed to list categories")
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		var color, description sql.NullString
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &color, &description); err != nil {
			return nil, errors.WrapError(err, "failed to scan category row")
		}
		c.Color = color.String
		c.Description = description.String
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// ListContent returns every content row of a tenant
func (s *SQLStore) ListContent(ctx context.Context, tenantID string) ([]Content, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT id, tenant_id, author_id, category_id, title, body, created_at FROM content WHERE tenant_id = ?", tenantID)
	if err != nil {
		return nil, errors.WrapError(err, "failed to list content")
	}
	defer rows.Close()

	var content []Content
	for rows.Next() {
		var c Content
		var categoryID, body sql.NullString
		if err := rows.Scan(&c.ID, &c.TenantID, &c.AuthorID, &categoryID, &c.Title, &body, &c.CreatedAt); err != nil {
			return nil, errors.WrapError(err, "failed to scan content row")
		}
		c.CategoryID = categoryID.String
		c.Body = body.String
		content = append(content, c)
	}

	return content, rows.Err()
}

// ListReplies returns every reply of a tenant
func (s *SQLStore) ListReplies(ctx context.Context, tenantID string) ([]Reply, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT id, tenant_id, content_id, author_id, body, created_at FROM replies WHERE tenant_id = ?", tenantID)
	if err != nil {
		return nil, errors.WrapError(err, "failed to list replies")
	}
	defer rows.Close()

	var replies []Reply
	for rows.Next() {
		var r Reply
		if err := rows.Scan(&r.ID, &r.TenantID, &r.ContentID, &r.AuthorID, &r.Body, &r.CreatedAt); err != nil {
			return nil, errors.WrapError(err, "failed to scan reply row")
		}
		replies = append(replies, r)
	}

	return replies, rows.Err()
}

// ListReactions returns every reaction of a tenant
func (s *SQLStore) ListReactions(ctx context.Context, tenantID string) ([]Reaction, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT id, tenant_id, content_id, reply_id, user_id, kind FROM reactions WHERE tenant_id = ?", tenantID)
	if err != nil {
		return nil, errors.WrapError(err, "failed to list reactions")
	}
	defer rows.Close()

	var reactions []Reaction
	for rows.Next() {
		var r Reaction
		var contentID, replyID sql.NullString
		if err := rows.Scan(&r.ID, &r.TenantID, &contentID, &replyID, &r.UserID, &r.Kind); err != nil {
			return nil, errors.WrapError(err, "failed to scan reaction row")
		}
		r.ContentID = contentID.String
		r.ReplyID = replyID.String
		reactions = append(reactions, r)
	}

	return reactions, rows.Err()
}

// ListBadges returns every badge of a tenant
func (s *SQLStore) ListBadges(ctx context.Context, tenantID string) ([]Badge, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT id, tenant_id, name, description, icon FROM badges WHERE tenant_id = ?", tenantID)
	if err != nil {
		return nil, errors.WrapError(err, "failed to list badges")
	}
	defer rows.Close()

	var badges []Badge
	for rows.Next() {
		var b Badge
		var description, icon sql.NullString
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &description, &icon); err != nil {
			return nil, errors.WrapError(err, "failed to scan badge row")
		}
		b.Description = description.String
		b.Icon = icon.String
		badges = append(badges, b)
	}

	return badges, rows.Err()
}

// ListPolls returns every poll of a tenant with options and votes nested, so
// a serialized poll never needs the source store again.
func (s *SQLStore) ListPolls(ctx context.Context, tenantID string) ([]Poll, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT id, tenant_id, content_id, author_id, question FROM polls WHERE tenant_id = ?", tenantID)
	if err != nil {
		return nil, errors.WrapError(err, "failed to list polls")
	}

	var polls []Poll
	for rows.Next() {
		var p Poll
		if err := rows.Scan(&p.ID, &p.TenantID, &p.ContentID, &p.AuthorID, &p.Question); err != nil {
			rows.Close()
			return nil, errors.WrapError(err, "failed to scan poll row")
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errors.WrapError(err, "failed to iterate poll rows")
	}
	rows.Close()

	for i := range polls {
		options, err := s.listPollOptions(ctx, polls[i].ID)
		if err != nil {
			return nil, err
		}
		polls[i].Options = options
	}

	return polls, nil
}

func (s *SQLStore) listPollOptions(ctx context.Context, pollID string) ([]PollOption, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT id, poll_id, label FROM poll_options WHERE poll_id = ?", pollID)
	if err != nil {
		return nil, errors.WrapError(err, "failed to list poll options")
	}

	var options []PollOption
	for rows.Next() {
		var o PollOption
		if err := rows.Scan(&o.ID, &o.PollID, &o.Label); err != nil {
			rows.Close()
			return nil, errors.WrapError(err, "failed to scan poll option row")
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errors.WrapError(err, "failed to iterate poll option rows")
	}
	rows.Close()

	for i := range options {
		votes, err := s.listPollVotes(ctx, options[i].ID)
		if err != nil {
			return nil, err
		}
		options[i].Votes = votes
	}

	return options, nil
}

func (s *SQLStore) listPollVotes(ctx context.Context, optionID string) ([]PollVote, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		"SELECT id, option_id, user_id FROM poll_votes WHERE option_id = ?", optionID)
	if err != nil {
		return nil, errors.WrapError(err, "failed to list poll votes")
	}
	defer rows.Close()

	var votes []PollVote
	for rows.Next() {
		var v PollVote
		if err := rows.Scan(&v.ID, &v.OptionID, &v.UserID); err != nil {
			return nil, errors.WrapError(err, "failed to scan poll vote row")
		}
		votes = append(votes, v)
	}

	return votes, rows.Err()
}

// Natural-key lookups

// FindUserByEmail resolves a user by the (tenant, email) natural key
func (s *SQLStore) FindUserByEmail(ctx context.Context, tenantID, email string) (*User, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var u User
	var displayName sql.NullString
	err := s.db.QueryRowContext(queryCtx,
		"SELECT id, tenant_id, email, display_name, role, created_at FROM users WHERE tenant_id = ? AND email = ?",
		tenantID, email).Scan(&u.ID, &u.TenantID, &u.Email, &displayName, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("user %s not found in tenant %s", email, tenantID), err)
	}
	if err != nil {
		return nil, errors.WrapError(err, "failed to find user by email")
	}

	u.DisplayName = displayName.String
	return &u, nil
}

// FindCategoryByName resolves a category by the (tenant, name) natural key
func (s *SQLStore) FindCategoryByName(ctx context.Context, tenantID, name string) (*Category, error) {
	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var c Category
	var color, description sql.NullString
	err := s.db.QueryRowContext(queryCtx,
		"SELECT id, tenant_id, name, color, description FROM categories WHERE tenant_id = ? AND name = ?",
		tenantID, name).Scan(&c.ID, &c.TenantID, &c.Name, &color, &description)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("category %s not found in tenant %s", name, tenantID), err)
	}
	if err != nil {
		return nil, errors.WrapError(err, "failed to find category by name")
	}

	c.Color = color.String
	c.Description = description.String
	return &c, nil
}

// Natural-key upserts

// UpsertUser matches or creates a user by (tenant, email). The bundle's
// original primary key is never reused; a matched row keeps its target id.
func (s *SQLStore) UpsertUser(ctx context.Context, user *User) (string, CreateOutcome, error) {
	if user == nil || user.TenantID == "" || user.Email == "" {
		return "", OutcomeFailed, errors.NewAppError(errors.ErrorTypeValidation,
			"user tenant id and email are required", nil)
	}

	existing, err := s.FindUserByEmail(ctx, user.TenantID, user.Email)
	if err == nil {
		queryCtx, cancel := s.withTimeout(ctx)
		defer cancel()

		if _, updateErr := s.db.ExecContext(queryCtx,
			"UPDATE users SET display_name = ?, role = ? WHERE id = ?",
			nullable(user.DisplayName), user.Role, existing.ID); updateErr != nil {
			return "", OutcomeFailed, errors.WrapError(updateErr, "failed to update user")
		}
		return existing.ID, OutcomeDuplicate, nil
	}
	if !errors.IsNotFound(err) {
		return "", OutcomeFailed, err
	}

	id := uuid.New().String()
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	role := user.Role
	if role == "" {
		role = RoleMember
	}

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.db.ExecContext(queryCtx,
		"INSERT INTO users (id, tenant_id, email, display_name, role, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, user.TenantID, user.Email, nullable(user.DisplayName), role, createdAt)
	if err != nil {
		if errors.IsDuplicate(err) {
			// Lost a race with a concurrent writer; the natural key now resolves.
			if existing, findErr := s.FindUserByEmail(ctx, user.TenantID, user.Email); findErr == nil {
				return existing.ID, OutcomeDuplicate, nil
			}
		}
		return "", OutcomeFailed, errors.WrapError(err, "failed to insert user")
	}

	return id, OutcomeCreated, nil
}

// UpsertCategory matches or creates a category by (tenant, name), merging
// color and description from the incoming record.
func (s *SQLStore) UpsertCategory(ctx context.Context, category *Category) (string, CreateOutcome, error) {
	if category == nil || category.TenantID == "" || category.Name == "" {
		return "", OutcomeFailed, errors.NewAppError(errors.ErrorTypeValidation,
			"category tenant id and name are required", nil)
	}

	existing, err := s.FindCategoryByName(ctx, category.TenantID, category.Name)
	if err == nil {
		queryCtx, cancel := s.withTimeout(ctx)
		defer cancel()

		if _, updateErr := s.db.ExecContext(queryCtx,
			"UPDATE categories SET color = ?, description = ? WHERE id = ?",
			nullable(category.Color), nullable(category.Description), existing.ID); updateErr != nil {
			return "", OutcomeFailed, errors.WrapError(updateErr, "failed to update category")
		}
		return existing.ID, OutcomeDuplicate, nil
	}
	if !errors.IsNotFound(err) {
		return "", OutcomeFailed, err
	}

	id := uuid.New().String()

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.db.ExecContext(queryCtx,
		"INSERT INTO categories (id, tenant_id, name, color, description) VALUES (?, ?, ?, ?, ?)",
		id, category.TenantID, category.Name, nullable(category.Color), nullable(category.Description))
	if err != nil {
		if errors.IsDuplicate(err) {
			if existing, findErr := s.FindCategoryByName(ctx, category.TenantID, category.Name); findErr == nil {
				return existing.ID, OutcomeDuplicate, nil
			}
		}
		return "", OutcomeFailed, errors.WrapError(err, "failed to insert category")
	}

	return id, OutcomeCreated, nil
}

// UpsertBadge matches or creates a badge by (tenant, name)
func (s *SQLStore) UpsertBadge(ctx context.Context, badge *Badge) (string, CreateOutcome, error) {
	if badge == nil || badge.TenantID == "" || badge.Name == "" {
		return "", OutcomeFailed, errors.NewAppError(errors.ErrorTypeValidation,
			"badge tenant id and name are required", nil)
	}

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var existingID string
	err := s.db.QueryRowContext(queryCtx,
		"SELECT id FROM badges WHERE tenant_id = ? AND name = ?",
		badge.TenantID, badge.Name).Scan(&existingID)
	if err == nil {
		if _, updateErr := s.db.ExecContext(queryCtx,
			"UPDATE badges SET description = ?, icon = ? WHERE id = ?",
			nullable(badge.Description), nullable(badge.Icon), existingID); updateErr != nil {
			return "", OutcomeFailed, errors.WrapError(updateErr, "failed to update badge")
		}
		return existingID, OutcomeDuplicate, nil
	}
	if err != sql.ErrNoRows {
		return "", OutcomeFailed, errors.WrapError(err, "failed to find badge by name")
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(queryCtx,
		"INSERT INTO badges (id, tenant_id, name, description, icon) VALUES (?, ?, ?, ?, ?)",
		id, badge.TenantID, badge.Name, nullable(badge.Description), nullable(badge.Icon))
	if err != nil {
		if errors.IsDuplicate(err) {
			return "", OutcomeDuplicate, nil
		}
		return "", OutcomeFailed, errors.WrapError(err, "failed to insert badge")
	}

	return id, OutcomeCreated, nil
}

// Append-only creates

// CreateContent always inserts a fresh content row with a new id
func (s *SQLStore) CreateContent(ctx context.Context, content *Content) (CreateOutcome, error) {
	if content == nil || content.TenantID == "" || content.AuthorID == "" {
		return OutcomeFailed, errors.NewAppError(errors.ErrorTypeValidation,
			"content tenant id and author id are required", nil)
	}

	if content.ID == "" {
		content.ID = uuid.New().String()
	}
	if content.CreatedAt.IsZero() {
		content.CreatedAt = time.Now().UTC()
	}

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(queryCtx,
		"INSERT INTO content (id, tenant_id, author_id, category_id, title, body, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		content.ID, content.TenantID, content.AuthorID, nullable(content.CategoryID),
		content.Title, nullable(content.Body), content.CreatedAt)
	if err != nil {
		if errors.IsDuplicate(err) {
			return OutcomeDuplicate, nil
		}
		return OutcomeFailed, errors.WrapError(err, "failed to insert content")
	}

	return OutcomeCreated, nil
}

// CreateReply always inserts a fresh reply row with a new id
func (s *SQLStore) CreateReply(ctx context.Context, reply *Reply) (CreateOutcome, error) {
	if reply == nil || reply.TenantID == "" || reply.ContentID == "" || reply.AuthorID == "" {
		return OutcomeFailed, errors.NewAppError(errors.ErrorTypeValidation,
			"reply tenant id, content id and author id are required", nil)
	}

	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(queryCtx,
		"INSERT INTO replies (id, tenant_id, content_id, author_id, body, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		reply.ID, reply.TenantID, reply.ContentID, reply.AuthorID, reply.Body, reply.CreatedAt)
	if err != nil {
		if errors.IsDuplicate(err) {
			return OutcomeDuplicate, nil
		}
		return OutcomeFailed, errors.WrapError(err, "failed to insert reply")
	}

	return OutcomeCreated, nil
}

// CreateReaction inserts a reaction. A unique-constraint hit (the user
// already reacted to this target) reports OutcomeDuplicate with a nil error.
func (s *SQLStore) CreateReaction(ctx context.Context, reaction *Reaction) (CreateOutcome, error) {
	if reaction == nil || reaction.TenantID == "" || reaction.UserID == "" {
		return OutcomeFailed, errors.NewAppError(errors.ErrorTypeValidation,
			"reaction tenant id and user id are required", nil)
	}
	if reaction.ContentID == "" && reaction.ReplyID == "" {
		return OutcomeFailed, errors.NewAppError(errors.ErrorTypeValidation,
			"reaction must target a content row or a reply", nil)
	}

	if reaction.ID == "" {
		reaction.ID = uuid.New().String()
	}

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(queryCtx,
		"INSERT INTO reactions (id, tenant_id, content_id, reply_id, user_id, kind) VALUES (?, ?, ?, ?, ?, ?)",
		reaction.ID, reaction.TenantID, nullable(reaction.ContentID), nullable(reaction.ReplyID),
		reaction.UserID, reaction.Kind)
	if err != nil {
		if errors.IsDuplicate(err) {
			return OutcomeDuplicate, nil
		}
		return OutcomeFailed, errors.WrapError(err, "failed to insert reaction")
	}

	return OutcomeCreated, nil
}

// CreatePoll inserts a poll with its options and votes. Option and vote ids
// are always regenerated so the bundle's id space never leaks into the target.
func (s *SQLStore) CreatePoll(ctx context.Context, poll *Poll) (CreateOutcome, error) {
	if poll == nil || poll.TenantID == "" || poll.ContentID == "" {
		return OutcomeFailed, errors.NewAppError(errors.ErrorTypeValidation,
			"poll tenant id and content id are required", nil)
	}

	if poll.ID == "" {
		poll.ID = uuid.New().String()
	}

	queryCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(queryCtx,
		"INSERT INTO polls (id, tenant_id, content_id, author_id, question) VALUES (?, ?, ?, ?, ?)",
		poll.ID, poll.TenantID, poll.ContentID, poll.AuthorID, poll.Question)
	if err != nil {
		if errors.IsDuplicate(err) {
			return OutcomeDuplicate, nil
		}
		return OutcomeFailed, errors.WrapError(err, "failed to insert poll")
	}

	for i := range poll.Options {
		option := &poll.Options[i]
		option.ID = uuid.New().String()
		option.PollID = poll.ID

		if _, err := s.db.ExecContext(queryCtx,
			"INSERT INTO poll_options (id, poll_id, label) VALUES (?, ?, ?)",
			option.ID, option.PollID, option.Label); err != nil {
			return OutcomeFailed, errors.WrapError(err, "failed to insert poll option")
		}

		for j := range option.Votes {
			vote := &option.Votes[j]
			vote.ID = uuid.New().String()
			vote.OptionID = option.ID

			if _, err := s.db.ExecContext(queryCtx,
				"INSERT INTO poll_votes (id, option_id, user_id) VALUES (?, ?, ?)",
				vote.ID, vote.OptionID, vote.UserID); err != nil {
				if errors.IsDuplicate(err) {
					continue
				}
				return OutcomeFailed, errors.WrapError(err, "failed to insert poll vote")
			}
		}
	}

	return OutcomeCreated, nil
}
