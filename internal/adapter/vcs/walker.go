package vcs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/arturoeanton/go-git-history-service/internal/domain"
	"github.com/arturoeanton/go-git-history-service/internal/port"
)

// Walk returns the filtered history of a working copy, newest first.
func (e *GitEngine) Walk(ctx context.Context, path, branch string, opts port.WalkOptions) ([]domain.CommitInfo, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", port.ErrWalk, path, err)
	}

	tokens := splitTokens(opts.AuthorFilter)

	if !opts.AllBranches {
		from, err := e.startHash(repo, branch)
		if err != nil {
			return nil, err
		}
		return e.walkFrom(ctx, repo, from, opts, tokens, nil)
	}

	// Seed from every local and remote-tracking branch tip. Logging
	// with All would also seed from tags and a detached HEAD, pulling
	// in commits no branch contains.
	tips, err := branchTips(repo)
	if err != nil {
		return nil, err
	}
	slog.Info("walking commits from all branches", "path", path, "tips", len(tips))

	seen := make(map[string]bool)
	var commits []domain.CommitInfo
	for _, tip := range tips {
		part, err := e.walkFrom(ctx, repo, tip, opts, tokens, seen)
		if err != nil {
			return nil, err
		}
		commits = append(commits, part...)
	}

	// Per-tip walks are each newest-first; restore the global order.
	sort.Slice(commits, func(i, j int) bool {
		if commits[i].Timestamp.Equal(commits[j].Timestamp) {
			return commits[i].Hash > commits[j].Hash
		}
		return commits[i].Timestamp.After(commits[j].Timestamp)
	})

	return commits, nil
}

// walkFrom traverses history from one tip in committer-time order,
// applying the window and author filters. Traversal is
// time-descending, so the first commit before the window start ends
// the walk. Commits already present in seen are skipped, so
// overlapping branch histories are reported once.
func (e *GitEngine) walkFrom(ctx context.Context, repo *git.Repository, from plumbing.Hash, opts port.WalkOptions, tokens []string, seen map[string]bool) ([]domain.CommitInfo, error) {
	iter, err := repo.Log(&git.LogOptions{From: from, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("%w: log %s: %v", port.ErrWalk, from, err)
	}
	defer iter.Close()

	var commits []domain.CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		hash := c.Hash.String()
		if seen != nil {
			if seen[hash] {
				return nil
			}
			seen[hash] = true
		}
		when := c.Committer.When.UTC()
		if !opts.End.IsZero() && when.After(opts.End) {
			return nil
		}
		if !opts.Start.IsZero() && when.Before(opts.Start) {
			return storer.ErrStop
		}
		if !matchesAuthor(c.Author.Name, c.Author.Email, tokens) {
			return nil
		}
		commits = append(commits, domain.CommitInfo{
			Hash:        hash,
			AuthorName:  c.Author.Name,
			AuthorEmail: c.Author.Email,
			Message:     c.Message,
			Timestamp:   when,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: iterate commits: %v", port.ErrWalk, err)
	}

	return commits, nil
}

// branchTips collects the distinct commits referenced by local and
// remote-tracking branches.
func branchTips(repo *git.Repository) ([]plumbing.Hash, error) {
	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("%w: list references: %v", port.ErrWalk, err)
	}
	defer refs.Close()

	var tips []plumbing.Hash
	dedup := make(map[plumbing.Hash]bool)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		if !name.IsBranch() && !name.IsRemote() {
			return nil
		}
		if dedup[ref.Hash()] {
			return nil
		}
		dedup[ref.Hash()] = true
		tips = append(tips, ref.Hash())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list references: %v", port.ErrWalk, err)
	}

	return tips, nil
}

// startHash picks the traversal tip for branch: the remote-tracking
// ref when present, then the local ref, and finally HEAD. The HEAD
// fallback changes which history gets analyzed, so it is logged.
func (e *GitEngine) startHash(repo *git.Repository, branch string) (plumbing.Hash, error) {
	if ref, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true); err == nil {
		return ref.Hash(), nil
	}
	if ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true); err == nil {
		return ref.Hash(), nil
	}

	slog.Warn("branch not found, falling back to HEAD", "branch", branch)
	head, err := repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: resolve HEAD: %v", port.ErrWalk, err)
	}
	return head.Hash(), nil
}

func splitTokens(filter string) []string {
	var tokens []string
	for _, tok := range strings.Split(filter, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func matchesAuthor(name, email string, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	for _, tok := range tokens {
		if email == tok || strings.Contains(email, tok) || strings.Contains(name, tok) {
			return true
		}
	}
	return false
}
