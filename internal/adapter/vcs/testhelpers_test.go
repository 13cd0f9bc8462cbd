package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a temporary repository with a worktree. The
// default branch is master.
func initTestRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

type commitSpec struct {
	message string
	files   map[string]string
	remove  []string
	author  string
	email   string
	when    time.Time
}

// applyCommit writes, stages, and commits the described change,
// returning the new revision id. Unset identity fields get defaults.
func applyCommit(t *testing.T, dir string, repo *git.Repository, spec commitSpec) string {
	t.Helper()
	w, err := repo.Worktree()
	require.NoError(t, err)

	for path, content := range spec.files {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		_, err = w.Add(path)
		require.NoError(t, err)
	}
	for _, path := range spec.remove {
		_, err = w.Remove(path)
		require.NoError(t, err)
	}

	name := spec.author
	if name == "" {
		name = "Test Author"
	}
	email := spec.email
	if email == "" {
		email = "test@example.com"
	}
	when := spec.when
	if when.IsZero() {
		when = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}

	hash, err := w.Commit(spec.message, &git.CommitOptions{
		Author: &object.Signature{Name: name, Email: email, When: when},
	})
	require.NoError(t, err)
	return hash.String()
}
