package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"forum-tenant-sync/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

var duplicateKey = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "email", "display_name", "role", "created_at"})
}

func TestListUsersNullDisplayName(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE tenant_id = ?")).
		WithArgs("tenant-1").
		WillReturnRows(userRows().
			AddRow("u1", "tenant-1", "alice@acme", "Alice", "admin", time.Now()).
			AddRow("u2", "tenant-1", "bob@acme", nil, "member", time.Now()))

	users, err := s.ListUsers(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("ListUsers() error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	if users[1].DisplayName != "" {
		t.Errorf("NULL display_name should scan to empty, got %q", users[1].DisplayName)
	}
}

func TestUpsertUserMatchesExisting(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE tenant_id = ? AND email = ?")).
		WithArgs("tenant-1", "alice@acme").
		WillReturnRows(userRows().AddRow("existing-id", "tenant-1", "alice@acme", "Alice", "admin", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET display_name = ?, role = ? WHERE id = ?")).
		WithArgs(sqlmock.AnyArg(), "admin", "existing-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, outcome, err := s.UpsertUser(context.Background(), &User{
		ID: "bundle-id", TenantID: "tenant-1", Email: "alice@acme", DisplayName: "Alice", Role: "admin",
	})
	if err != nil {
		t.Fatalf("UpsertUser() error: %v", err)
	}
	if outcome != OutcomeDuplicate {
		t.Errorf("outcome = %s, want duplicate", outcome)
	}
	if id != "existing-id" {
		t.Errorf("id = %q, the matched row keeps its own id", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertUserInsertsFresh(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE tenant_id = ? AND email = ?")).
		WithArgs("tenant-1", "carol@acme").
		WillReturnRows(userRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, outcome, err := s.UpsertUser(context.Background(), &User{
		ID: "bundle-id", TenantID: "tenant-1", Email: "carol@acme",
	})
	if err != nil {
		t.Fatalf("UpsertUser() error: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("outcome = %s, want created", outcome)
	}
	if id == "" || id == "bundle-id" {
		t.Errorf("id = %q, a fresh id must be assigned", id)
	}
}

func TestUpsertUserInsertRaceFallsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE tenant_id = ? AND email = ?")).
		WillReturnRows(userRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(duplicateKey)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE tenant_id = ? AND email = ?")).
		WillReturnRows(userRows().AddRow("winner-id", "tenant-1", "carol@acme", nil, "member", time.Now()))

	id, outcome, err := s.UpsertUser(context.Background(), &User{
		TenantID: "tenant-1", Email: "carol@acme",
	})
	if err != nil {
		t.Fatalf("UpsertUser() error: %v", err)
	}
	if outcome != OutcomeDuplicate || id != "winner-id" {
		t.Errorf("got (%q, %s), want (winner-id, duplicate)", id, outcome)
	}
}

func TestUpsertCategoryInsertsFresh(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE tenant_id = ? AND name = ?")).
		WithArgs("tenant-1", "general").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "color", "description"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, outcome, err := s.UpsertCategory(context.Background(), &Category{
		TenantID: "tenant-1", Name: "general",
	})
	if err != nil {
		t.Fatalf("UpsertCategory() error: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("outcome = %s, want created", outcome)
	}
}

func TestUpsertBadgeMergesByName(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM badges WHERE tenant_id = ? AND name = ?")).
		WithArgs("tenant-1", "founder").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("badge-1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE badges SET description = ?, icon = ? WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, outcome, err := s.UpsertBadge(context.Background(), &Badge{
		TenantID: "tenant-1", Name: "founder", Icon: "star",
	})
	if err != nil {
		t.Fatalf("UpsertBadge() error: %v", err)
	}
	if outcome != OutcomeDuplicate || id != "badge-1" {
		t.Errorf("got (%q, %s), want (badge-1, duplicate)", id, outcome)
	}
}

func TestCreateContentAssignsFreshID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO content")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	content := &Content{TenantID: "tenant-1", AuthorID: "u1", Title: "hi"}
	outcome, err := s.CreateContent(context.Background(), content)
	if err != nil {
		t.Fatalf("CreateContent() error: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("outcome = %s, want created", outcome)
	}
	if content.ID == "" {
		t.Error("id must be assigned")
	}
}

func TestCreateContentRequiresAuthor(t *testing.T) {
	s, _ := newMockStore(t)
	if _, err := s.CreateContent(context.Background(), &Content{TenantID: "tenant-1"}); err == nil {
		t.Fatal("content without author accepted")
	}
}

func TestCreateReactionDuplicateIsBenign(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reactions")).
		WillReturnError(duplicateKey)

	outcome, err := s.CreateReaction(context.Background(), &Reaction{
		TenantID: "tenant-1", ContentID: "c1", UserID: "u1", Kind: "like",
	})
	if err != nil {
		t.Fatalf("a duplicate reaction must not error: %v", err)
	}
	if outcome != OutcomeDuplicate {
		t.Errorf("outcome = %s, want duplicate", outcome)
	}
}

func TestCreateReactionRequiresOneTarget(t *testing.T) {
	s, _ := newMockStore(t)
	_, err := s.CreateReaction(context.Background(), &Reaction{
		TenantID: "tenant-1", UserID: "u1", Kind: "like",
	})
	if err == nil {
		t.Fatal("reaction without a target accepted")
	}
	if errors.GetErrorType(err) != errors.ErrorTypeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreatePollRegeneratesNestedIDs(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO polls")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO poll_options")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO poll_votes")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	poll := &Poll{
		TenantID:  "tenant-1",
		ContentID: "c1",
		AuthorID:  "u1",
		Question:  "stay?",
		Options: []PollOption{
			{ID: "bundle-opt", Label: "yes", Votes: []PollVote{{ID: "bundle-vote", UserID: "u2"}}},
		},
	}
	outcome, err := s.CreatePoll(context.Background(), poll)
	if err != nil {
		t.Fatalf("CreatePoll() error: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("outcome = %s, want created", outcome)
	}
	if poll.Options[0].ID == "bundle-opt" {
		t.Error("option id must be regenerated")
	}
	if poll.Options[0].Votes[0].ID == "bundle-vote" {
		t.Error("vote id must be regenerated")
	}
	if poll.Options[0].PollID != poll.ID || poll.Options[0].Votes[0].OptionID != poll.Options[0].ID {
		t.Error("nested references not rewired")
	}
}

func TestListPollsNestsOptionsAndVotes(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM polls WHERE tenant_id = ?")).
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "content_id", "author_id", "question"}).
			AddRow("p1", "tenant-1", "c1", "u1", "stay?"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM poll_options WHERE poll_id = ?")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "poll_id", "label"}).
			AddRow("o1", "p1", "yes"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM poll_votes WHERE option_id = ?")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "option_id", "user_id"}).
			AddRow("v1", "o1", "u2"))

	polls, err := s.ListPolls(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("ListPolls() error: %v", err)
	}
	if len(polls) != 1 || len(polls[0].Options) != 1 || len(polls[0].Options[0].Votes) != 1 {
		t.Fatalf("poll graph not nested: %+v", polls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
