package vcs

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/arturoeanton/go-git-history-service/internal/domain"
	"github.com/arturoeanton/go-git-history-service/internal/port"
)

// GitEngine implements the working-copy and history ports with go-git.
type GitEngine struct {
	root string
}

var (
	_ port.WorkingCopyManager = (*GitEngine)(nil)
	_ port.HistoryAnalyzer    = (*GitEngine)(nil)
)

// NewGitEngine creates an engine whose working copies live under root.
func NewGitEngine(root string) *GitEngine {
	return &GitEngine{root: root}
}

// LocalPath returns the working-copy directory for url: a stable hash
// of the URL alone, so all branches of one remote share one copy.
func (e *GitEngine) LocalPath(url string) string {
	sum := md5.Sum([]byte(url))
	return filepath.Join(e.root, hex.EncodeToString(sum[:]))
}

// Materialize clones url on first use and fetches updates afterwards.
// An unreadable existing copy is surfaced, not re-cloned; remove the
// directory to force a fresh clone.
func (e *GitEngine) Materialize(ctx context.Context, url, branch string, cred port.Credential, allBranches bool) (*domain.WorkingCopy, error) {
	path := e.LocalPath(url)

	if _, err := os.Stat(path); err == nil {
		slog.Info("working copy exists, fetching updates", "url", url, "path", path)
		if err := e.fetch(ctx, path, branch, cred, allBranches); err != nil {
			return nil, err
		}
	} else {
		slog.Info("cloning repository", "url", url, "path", path)
		if err := e.clone(ctx, url, path, branch, cred); err != nil {
			return nil, err
		}
	}

	return &domain.WorkingCopy{URL: url, Branch: branch, Path: path}, nil
}

func (e *GitEngine) clone(ctx context.Context, url, path, branch string, cred port.Credential) error {
	if cred.Empty() {
		slog.Warn("no credential provided, cloning without authentication", "url", url)
	}

	_, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:           url,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		Auth:          basicAuth(cred),
	})
	if err != nil {
		return fmt.Errorf("%w: clone %s: %v", port.ErrSync, url, err)
	}
	return nil
}

// fetch updates an existing working copy. Single-branch mode fetches
// the one ref, fast-forwards the local branch to the fetched tip, and
// force-checks it out; all-branches mode only refreshes the
// remote-tracking refs and leaves the checkout alone.
func (e *GitEngine) fetch(ctx context.Context, path, branch string, cred port.Credential, allBranches bool) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", port.ErrSync, path, err)
	}

	spec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/remotes/origin/%s", branch, branch))
	if allBranches {
		spec = gitconfig.RefSpec("refs/heads/*:refs/remotes/origin/*")
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{spec},
		Auth:       basicAuth(cred),
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("%w: fetch %s: %v", port.ErrSync, path, err)
	}

	if allBranches {
		return nil
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return fmt.Errorf("%w: resolve origin/%s: %v", port.ErrSync, branch, err)
	}

	localName := plumbing.NewBranchReferenceName(branch)
	if err := repo.Storer.SetReference(plumbing.NewHashReference(localName, remoteRef.Hash())); err != nil {
		return fmt.Errorf("%w: update %s: %v", port.ErrSync, localName, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: get worktree: %v", port.ErrSync, err)
	}
	err = worktree.Checkout(&git.CheckoutOptions{Branch: localName, Force: true})
	if err != nil {
		return fmt.Errorf("%w: checkout %s: %v", port.ErrSync, branch, err)
	}
	return nil
}

func basicAuth(cred port.Credential) transport.AuthMethod {
	if cred.Empty() {
		return nil
	}
	return &githttp.BasicAuth{Username: cred.Username, Password: cred.Password}
}
