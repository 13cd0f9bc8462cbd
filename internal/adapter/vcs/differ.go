package vcs

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/arturoeanton/go-git-history-service/internal/domain"
	"github.com/arturoeanton/go-git-history-service/internal/port"
)

// maxPatchChars bounds the per-file patch text kept on a record.
const maxPatchChars = 10000

// Diff computes the first-parent tree diff of one commit. Merge
// commits are compared against their first parent only; the root
// commit is compared against the empty tree.
func (e *GitEngine) Diff(ctx context.Context, path, revisionID string) (*domain.CommitDiff, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", port.ErrDiff, path, err)
	}

	commit, err := repo.CommitObject(plumbing.NewHash(revisionID))
	if err != nil {
		return nil, fmt.Errorf("%w: get commit %s: %v", port.ErrDiff, revisionID, err)
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("%w: get parent of %s: %v", port.ErrDiff, revisionID, err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("%w: get parent tree: %v", port.ErrDiff, err)
		}
	}

	commitTree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: get tree of %s: %v", port.ErrDiff, revisionID, err)
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, commitTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: diff trees: %v", port.ErrDiff, err)
	}

	diff := &domain.CommitDiff{}
	var summary []string
	for _, change := range changes {
		cf := domain.ChangedFile{
			Path:       changePath(change),
			ChangeType: classifyChange(change.From.Name, change.To.Name),
		}

		patch, err := change.PatchContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: patch %s: %v", port.ErrDiff, cf.Path, err)
		}
		if patch != nil {
			// A pure rename or mode change has no hunks and counts 0/0.
			for _, stat := range patch.Stats() {
				cf.Additions += stat.Addition
				cf.Deletions += stat.Deletion
			}
			cf.Patch = truncatePatch(patch.String())
		}

		diff.Insertions += cf.Additions
		diff.Deletions += cf.Deletions
		diff.FilesChanged++
		diff.Files = append(diff.Files, cf)
		summary = append(summary, fmt.Sprintf("%s: %s", strings.ToUpper(cf.ChangeType), cf.Path))
	}
	diff.Summary = strings.Join(summary, "\n")

	return diff, nil
}

// ResolveBlob reads one file's content as of a commit.
func (e *GitEngine) ResolveBlob(ctx context.Context, path, revisionID, filePath string) ([]byte, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", port.ErrDiff, path, err)
	}

	commit, err := repo.CommitObject(plumbing.NewHash(revisionID))
	if err != nil {
		return nil, fmt.Errorf("%w: get commit %s: %v", port.ErrDiff, revisionID, err)
	}

	file, err := commit.File(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: file %s at %s: %v", port.ErrDiff, filePath, revisionID, err)
	}

	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", port.ErrDiff, filePath, err)
	}

	return []byte(content), nil
}

func changePath(change *object.Change) string {
	if change.To.Name != "" {
		return change.To.Name
	}
	return change.From.Name
}

// classifyChange maps tree-diff from/to names onto the record change
// types. Anything the underlying diff reports beyond these cases
// collapses to modified; the set is deliberately coarse.
func classifyChange(from, to string) string {
	switch {
	case from == "":
		return domain.ChangeAdded
	case to == "":
		return domain.ChangeDeleted
	case from != to:
		return domain.ChangeRenamed
	default:
		return domain.ChangeModified
	}
}

func truncatePatch(s string) string {
	if len(s) <= maxPatchChars {
		return s
	}
	// Never cut inside a multi-byte rune; the store only accepts valid
	// UTF-8.
	cut := maxPatchChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}
