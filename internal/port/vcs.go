package port

import (
	"context"
	"time"

	"github.com/arturoeanton/go-git-history-service/internal/domain"
)

// WalkOptions narrow a history traversal.
type WalkOptions struct {
	// Start and End bound the commit timestamp window, both inclusive.
	// Zero values leave the corresponding side unbounded.
	Start time.Time
	End   time.Time

	// AuthorFilter is a comma-separated token list. A commit matches
	// when any token equals the author email, is a substring of the
	// author email, or is a substring of the author name. Blank tokens
	// are ignored; an empty filter passes every commit.
	AuthorFilter string

	// AllBranches seeds the walk from every branch tip instead of the
	// single requested branch.
	AllBranches bool
}

// WorkingCopyManager materializes remote repositories into local
// working copies, cloning on first use and fetching afterwards.
type WorkingCopyManager interface {
	// Materialize ensures an up-to-date local working copy for url and
	// returns its handle. The local path is derived from url alone, so
	// all branches of one remote share a single copy. Callers must
	// serialize calls for the same url.
	Materialize(ctx context.Context, url, branch string, cred Credential, allBranches bool) (*domain.WorkingCopy, error)
}

// HistoryAnalyzer walks commit history and extracts per-commit diffs
// from a materialized working copy. Implementations perform tree-to-
// tree comparison only; the working directory is never consulted.
type HistoryAnalyzer interface {
	// Walk returns commits reachable from branch in commit-time
	// descending order, filtered by opts. When branch has neither a
	// remote-tracking nor a local ref, the walk falls back to HEAD.
	Walk(ctx context.Context, path, branch string, opts WalkOptions) ([]domain.CommitInfo, error)

	// Diff computes the changes a commit introduced over its first
	// parent. The root commit is diffed against the empty tree, so all
	// of its files report as added.
	Diff(ctx context.Context, path, revisionID string) (*domain.CommitDiff, error)

	// ResolveBlob reads one file's content as of a commit.
	ResolveBlob(ctx context.Context, path, revisionID, filePath string) ([]byte, error)
}
