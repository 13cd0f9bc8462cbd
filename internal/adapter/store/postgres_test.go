package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-git-history-service/internal/domain"
	"github.com/arturoeanton/go-git-history-service/internal/port"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresStore{db: db}, mock
}

func TestListCommitsOrdersByDateThenRevision(t *testing.T) {
	s, mock := newMockStore(t)

	when := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "repository_id", "revision_id", "author_name", "author_email", "commit_date",
		"message", "message_title", "ticket_key", "ticket_url", "files_changed", "insertions",
		"deletions", "diff_summary", "archive_key", "archive_size", "created_at",
	}).
		AddRow("rec-2", "repo-1", "ffff", "Alice", "alice@example.com", when,
			"later fix", "later fix", "", "", 1, 2, 0, "MODIFIED: a.go", "", 0, when).
		AddRow("rec-1", "repo-1", "aaaa", "Alice", "alice@example.com", when,
			"earlier fix", "earlier fix", "", "", 1, 1, 1, "MODIFIED: b.go", "", 0, when)

	// Shared commit dates need the revision tiebreak, or limit/offset
	// pages can repeat and skip rows.
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY commit_date DESC, revision_id DESC LIMIT $2 OFFSET $3")).
		WithArgs("repo-1", 50, 0).
		WillReturnRows(rows)

	records, err := s.ListCommits(context.Background(), "repo-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ffff", records[0].RevisionID)
	assert.Equal(t, "aaaa", records[1].RevisionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJobNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_jobs WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, port.ErrJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCommitTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO commits")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO changed_files")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := &domain.CommitRecord{
		RepositoryID: "repo-1",
		RevisionID:   "abc123",
		AuthorName:   "Alice",
		AuthorEmail:  "alice@example.com",
		CommitDate:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Message:      "rework parser",
		MessageTitle: "rework parser",
		FilesChanged: 1,
		Insertions:   1,
		Deletions:    1,
		Files: []domain.ChangedFile{
			{Path: "main.go", ChangeType: domain.ChangeModified, Additions: 1, Deletions: 1},
		},
	}
	require.NoError(t, s.InsertCommit(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.NotEmpty(t, rec.Files[0].ID)
	assert.Equal(t, rec.ID, rec.Files[0].CommitID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
