package port

import (
	"context"

	"github.com/arturoeanton/go-git-history-service/internal/domain"
)

// RecordStore is the relational persistence boundary for repositories,
// jobs, commits, and changed files.
type RecordStore interface {
	// EnsureRepository returns the repository row for url, creating it
	// with defaultBranch when absent.
	EnsureRepository(ctx context.Context, url, defaultBranch string) (*domain.Repository, error)

	GetRepository(ctx context.Context, id string) (*domain.Repository, error)
	ListRepositories(ctx context.Context) ([]domain.Repository, error)

	// TouchRepositorySync stamps the repository's last-synchronized
	// time with the current instant and records the working copy path.
	TouchRepositorySync(ctx context.Context, id, localPath string) error

	// EnsureJob returns the job row for job.ID, creating it when
	// absent. An existing row is returned unchanged so a re-posted job
	// keeps its history.
	EnsureJob(ctx context.Context, job *domain.AnalysisJob) (*domain.AnalysisJob, error)

	GetJob(ctx context.Context, id string) (*domain.AnalysisJob, error)

	// UpdateJobStatus transitions a job. errorMessage is stored only
	// with a failed status and cleared otherwise.
	UpdateJobStatus(ctx context.Context, id, status, errorMessage string) error

	SetJobTotal(ctx context.Context, id string, total int) error
	SetJobProcessed(ctx context.Context, id string, processed int) error

	// CommitExists reports whether revisionID is already recorded for
	// the repository. This is the pipeline's idempotency check.
	CommitExists(ctx context.Context, repositoryID, revisionID string) (bool, error)

	// InsertCommit persists a commit record and its changed files as
	// one unit of work.
	InsertCommit(ctx context.Context, rec *domain.CommitRecord) error

	ListCommits(ctx context.Context, repositoryID string, limit, offset int) ([]domain.CommitRecord, error)
	GetCommit(ctx context.Context, id string) (*domain.CommitRecord, error)
}
