package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arturoeanton/go-git-history-service/internal/domain"
	"github.com/arturoeanton/go-git-history-service/internal/port"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB
}

var _ port.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InitSchema creates the tables and indexes if they do not exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// --- Repositories ---

// EnsureRepository returns the repository row for url, inserting it on
// first sight. The no-op conflict update makes RETURNING yield the
// existing row.
func (s *PostgresStore) EnsureRepository(ctx context.Context, url, defaultBranch string) (*domain.Repository, error) {
	query := `INSERT INTO repositories (id, url, default_branch)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
	          RETURNING id, url, default_branch, local_path, last_synced_at, created_at`

	var r domain.Repository
	err := s.db.QueryRowContext(ctx, query, uuid.NewString(), url, defaultBranch).Scan(
		&r.ID, &r.URL, &r.DefaultBranch, &r.LocalPath, &r.LastSyncedAt, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: ensure repository: %v", port.ErrStore, err)
	}
	return &r, nil
}

// GetRepository returns a repository by its ID.
func (s *PostgresStore) GetRepository(ctx context.Context, id string) (*domain.Repository, error) {
	query := `SELECT id, url, default_branch, local_path, last_synced_at, created_at
	          FROM repositories WHERE id = $1`

	var r domain.Repository
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.URL, &r.DefaultBranch, &r.LocalPath, &r.LastSyncedAt, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrRepoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get repository: %v", port.ErrStore, err)
	}
	return &r, nil
}

// ListRepositories returns all tracked repositories, newest first.
func (s *PostgresStore) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	query := `SELECT id, url, default_branch, local_path, last_synced_at, created_at
	          FROM repositories ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list repositories: %v", port.ErrStore, err)
	}
	defer rows.Close()

	var repos []domain.Repository
	for rows.Next() {
		var r domain.Repository
		if err := rows.Scan(
			&r.ID, &r.URL, &r.DefaultBranch, &r.LocalPath, &r.LastSyncedAt, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan repository: %v", port.ErrStore, err)
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// TouchRepositorySync stamps last_synced_at and records the local path.
func (s *PostgresStore) TouchRepositorySync(ctx context.Context, id, localPath string) error {
	query := `UPDATE repositories SET last_synced_at = NOW(), local_path = $1 WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, localPath, id); err != nil {
		return fmt.Errorf("%w: touch repository sync: %v", port.ErrStore, err)
	}
	return nil
}

// --- Analysis Jobs ---

// EnsureJob returns the job row for job.ID, inserting it when absent.
// A re-posted job ID returns the existing row untouched.
func (s *PostgresStore) EnsureJob(ctx context.Context, job *domain.AnalysisJob) (*domain.AnalysisJob, error) {
	query := `INSERT INTO analysis_jobs
	          (id, repository_id, branch, status, start_date, end_date, author_filter, all_branches)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (id) DO UPDATE SET updated_at = analysis_jobs.updated_at
	          RETURNING id, repository_id, branch, status, total_commits, processed_commits,
	                    error_message, start_date, end_date, author_filter, all_branches,
	                    created_at, updated_at`

	var j domain.AnalysisJob
	err := s.db.QueryRowContext(ctx, query,
		job.ID, job.RepositoryID, job.Branch, domain.JobStatusQueued,
		job.StartDate, job.EndDate, job.AuthorFilter, job.AllBranches,
	).Scan(
		&j.ID, &j.RepositoryID, &j.Branch, &j.Status, &j.TotalCommits, &j.ProcessedCommits,
		&j.ErrorMessage, &j.StartDate, &j.EndDate, &j.AuthorFilter, &j.AllBranches,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: ensure job: %v", port.ErrStore, err)
	}
	return &j, nil
}

// GetJob returns a job by its ID.
func (s *PostgresStore) GetJob(ctx context.Context, id string) (*domain.AnalysisJob, error) {
	query := `SELECT id, repository_id, branch, status, total_commits, processed_commits,
	                 error_message, start_date, end_date, author_filter, all_branches,
	                 created_at, updated_at
	          FROM analysis_jobs WHERE id = $1`

	var j domain.AnalysisJob
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&j.ID, &j.RepositoryID, &j.Branch, &j.Status, &j.TotalCommits, &j.ProcessedCommits,
		&j.ErrorMessage, &j.StartDate, &j.EndDate, &j.AuthorFilter, &j.AllBranches,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get job: %v", port.ErrStore, err)
	}
	return &j, nil
}

// UpdateJobStatus transitions a job. The error message is kept only
// alongside a failed status and cleared on any other transition.
func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id, status, errorMessage string) error {
	if status != domain.JobStatusFailed {
		errorMessage = ""
	}
	query := `UPDATE analysis_jobs SET status = $1, error_message = $2, updated_at = NOW() WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, status, errorMessage, id); err != nil {
		return fmt.Errorf("%w: update job status: %v", port.ErrStore, err)
	}
	return nil
}

// SetJobTotal records the number of commits the job will process.
func (s *PostgresStore) SetJobTotal(ctx context.Context, id string, total int) error {
	query := `UPDATE analysis_jobs SET total_commits = $1, updated_at = NOW() WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, total, id); err != nil {
		return fmt.Errorf("%w: set job total: %v", port.ErrStore, err)
	}
	return nil
}

// SetJobProcessed records progress through the commit list.
func (s *PostgresStore) SetJobProcessed(ctx context.Context, id string, processed int) error {
	query := `UPDATE analysis_jobs SET processed_commits = $1, updated_at = NOW() WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, processed, id); err != nil {
		return fmt.Errorf("%w: set job processed: %v", port.ErrStore, err)
	}
	return nil
}

// --- Commits ---

// CommitExists reports whether the revision is already recorded for
// the repository.
func (s *PostgresStore) CommitExists(ctx context.Context, repositoryID, revisionID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM commits WHERE repository_id = $1 AND revision_id = $2)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, repositoryID, revisionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: commit exists: %v", port.ErrStore, err)
	}
	return exists, nil
}

// InsertCommit persists a commit record and its changed files in one
// transaction. IDs are assigned here when the caller left them empty.
func (s *PostgresStore) InsertCommit(ctx context.Context, rec *domain.CommitRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin insert commit: %v", port.ErrStore, err)
	}
	defer tx.Rollback()

	commitQuery := `INSERT INTO commits
	          (id, repository_id, revision_id, author_name, author_email, commit_date,
	           message, message_title, ticket_key, ticket_url, files_changed, insertions,
	           deletions, diff_summary, archive_key, archive_size)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = tx.ExecContext(ctx, commitQuery,
		rec.ID, rec.RepositoryID, rec.RevisionID, rec.AuthorName, rec.AuthorEmail, rec.CommitDate,
		rec.Message, rec.MessageTitle, rec.TicketKey, rec.TicketURL, rec.FilesChanged, rec.Insertions,
		rec.Deletions, rec.DiffSummary, rec.ArchiveKey, rec.ArchiveSize,
	)
	if err != nil {
		return fmt.Errorf("%w: insert commit: %v", port.ErrStore, err)
	}

	fileQuery := `INSERT INTO changed_files (id, commit_id, file_path, change_type, additions, deletions, patch)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i := range rec.Files {
		f := &rec.Files[i]
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		f.CommitID = rec.ID
		if _, err := tx.ExecContext(ctx, fileQuery,
			f.ID, f.CommitID, f.Path, f.ChangeType, f.Additions, f.Deletions, f.Patch,
		); err != nil {
			return fmt.Errorf("%w: insert changed file %s: %v", port.ErrStore, f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit insert: %v", port.ErrStore, err)
	}
	return nil
}

// ListCommits returns commit records for a repository, newest first.
// Changed files are not attached; GetCommit loads them.
func (s *PostgresStore) ListCommits(ctx context.Context, repositoryID string, limit, offset int) ([]domain.CommitRecord, error) {
	query := `SELECT id, repository_id, revision_id, author_name, author_email, commit_date,
	                 message, message_title, ticket_key, ticket_url, files_changed, insertions,
	                 deletions, diff_summary, archive_key, archive_size, created_at
	          FROM commits WHERE repository_id = $1
	          ORDER BY commit_date DESC, revision_id DESC LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, repositoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list commits: %v", port.ErrStore, err)
	}
	defer rows.Close()

	var records []domain.CommitRecord
	for rows.Next() {
		var r domain.CommitRecord
		if err := rows.Scan(
			&r.ID, &r.RepositoryID, &r.RevisionID, &r.AuthorName, &r.AuthorEmail, &r.CommitDate,
			&r.Message, &r.MessageTitle, &r.TicketKey, &r.TicketURL, &r.FilesChanged, &r.Insertions,
			&r.Deletions, &r.DiffSummary, &r.ArchiveKey, &r.ArchiveSize, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan commit: %v", port.ErrStore, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetCommit returns a commit record with its changed files attached.
func (s *PostgresStore) GetCommit(ctx context.Context, id string) (*domain.CommitRecord, error) {
	query := `SELECT id, repository_id, revision_id, author_name, author_email, commit_date,
	                 message, message_title, ticket_key, ticket_url, files_changed, insertions,
	                 deletions, diff_summary, archive_key, archive_size, created_at
	          FROM commits WHERE id = $1`

	var r domain.CommitRecord
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.RepositoryID, &r.RevisionID, &r.AuthorName, &r.AuthorEmail, &r.CommitDate,
		&r.Message, &r.MessageTitle, &r.TicketKey, &r.TicketURL, &r.FilesChanged, &r.Insertions,
		&r.Deletions, &r.DiffSummary, &r.ArchiveKey, &r.ArchiveSize, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrCommitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get commit: %v", port.ErrStore, err)
	}

	fileQuery := `SELECT id, commit_id, file_path, change_type, additions, deletions, patch
	          FROM changed_files WHERE commit_id = $1 ORDER BY file_path`

	rows, err := s.db.QueryContext(ctx, fileQuery, id)
	if err != nil {
		return nil, fmt.Errorf("%w: list changed files: %v", port.ErrStore, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f domain.ChangedFile
		if err := rows.Scan(&f.ID, &f.CommitID, &f.Path, &f.ChangeType, &f.Additions, &f.Deletions, &f.Patch); err != nil {
			return nil, fmt.Errorf("%w: scan changed file: %v", port.ErrStore, err)
		}
		r.Files = append(r.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list changed files: %v", port.ErrStore, err)
	}
	return &r, nil
}
