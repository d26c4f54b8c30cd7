package store

import (
	"time"
)

// Tenant is an isolated customer workspace owning a private partition of all
// data. Domain is the globally unique natural key.
type Tenant struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	Name      string    `json:"name"`
	Settings  string    `json:"settings,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// User belongs to exactly one tenant; (tenant_id, email) is the natural key
// used to match users across independent id spaces.
type User struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleMember is the lowest-privilege user role, assigned to auto-provisioned
// authors during migration.
const RoleMember = "member"

// Category groups content within a tenant; (tenant_id, name) is the natural key.
type Category struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// Content is a forum post. CategoryID may be empty when the category could
// not be resolved in the owning tenant.
type Content struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	AuthorID   string    `json:"author_id"`
	CategoryID string    `json:"category_id,omitempty"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Reply is a comment on a content row.
type Reply struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	ContentID string    `json:"content_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Reaction targets either a content row or a reply; exactly one of ContentID
// and ReplyID is set. (tenant_id, content_id, reply_id, user_id) is unique so
// a user reacts to a given target at most once.
type Reaction struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	ContentID string `json:"content_id,omitempty"`
	ReplyID   string `json:"reply_id,omitempty"`
	UserID    string `json:"user_id"`
	Kind      string `json:"kind"`
}

// Badge is a per-tenant award definition; (tenant_id, name) is the natural key.
type Badge struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Poll is attached to a content row. Options and their votes are nested so a
// serialized poll is self-contained.
type Poll struct {
	ID        string       `json:"id"`
	TenantID  string       `json:"tenant_id"`
	ContentID string       `json:"content_id"`
	AuthorID  string       `json:"author_id"`
	Question  string       `json:"question"`
	Options   []PollOption `json:"options,omitempty"`
}

// PollOption is one answer of a poll.
type PollOption struct {
	ID     string     `json:"id"`
	PollID string     `json:"poll_id"`
	Label  string     `json:"label"`
	Votes  []PollVote `json:"votes,omitempty"`
}

// PollVote records one user's vote for an option.
type PollVote struct {
	ID       string `json:"id"`
	OptionID string `json:"option_id"`
	UserID   string `json:"user_id"`
}

// CreateOutcome is the explicit result of a create or upsert primitive, so
// callers branch deliberately instead of inferring intent from a caught error.
type CreateOutcome int

const (
	// OutcomeFailed means the row was not written
	OutcomeFailed CreateOutcome = iota
	// OutcomeCreated means a new row was inserted
	OutcomeCreated
	// OutcomeDuplicate means a row with the same natural key already existed;
	// for upserts the existing row was matched (and possibly updated), for
	// plain creates the insert was rejected by a unique constraint
	OutcomeDuplicate
)

// String returns a human-readable outcome name
func (o CreateOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "failed"
	}
}
