package vcs

import (
	"context"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-git-history-service/internal/port"
)

func TestWalkDateWindow(t *testing.T) {
	dir, repo := initTestRepo(t)
	applyCommit(t, dir, repo, commitSpec{
		message: "too old",
		files:   map[string]string{"a.txt": "a\n"},
		when:    time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	})
	inside := applyCommit(t, dir, repo, commitSpec{
		message: "in window",
		files:   map[string]string{"b.txt": "b\n"},
		when:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	})
	applyCommit(t, dir, repo, commitSpec{
		message: "too new",
		files:   map[string]string{"c.txt": "c\n"},
		when:    time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	})

	engine := NewGitEngine(t.TempDir())
	commits, err := engine.Walk(context.Background(), dir, "master", port.WalkOptions{
		Start: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, inside, commits[0].Hash)
	assert.Equal(t, "in window", commits[0].Message)
}

func TestWalkAuthorFilter(t *testing.T) {
	dir, repo := initTestRepo(t)
	alice := applyCommit(t, dir, repo, commitSpec{
		message: "alice work",
		files:   map[string]string{"a.txt": "a\n"},
		author:  "Alice",
		email:   "alice@example.com",
		when:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	bob := applyCommit(t, dir, repo, commitSpec{
		message: "bob work",
		files:   map[string]string{"b.txt": "b\n"},
		author:  "Bob Smith",
		email:   "robert.bob@example.com",
		when:    time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	applyCommit(t, dir, repo, commitSpec{
		message: "carol work",
		files:   map[string]string{"c.txt": "c\n"},
		author:  "Carol",
		email:   "carol@example.com",
		when:    time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC),
	})

	engine := NewGitEngine(t.TempDir())
	commits, err := engine.Walk(context.Background(), dir, "master", port.WalkOptions{
		AuthorFilter: " alice@example.com , bob ",
	})
	require.NoError(t, err)
	require.Len(t, commits, 2)

	hashes := []string{commits[0].Hash, commits[1].Hash}
	assert.Contains(t, hashes, alice)
	assert.Contains(t, hashes, bob)
}

func TestWalkOrdersNewestFirst(t *testing.T) {
	dir, repo := initTestRepo(t)
	for i, when := range []time.Time{
		time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC),
	} {
		applyCommit(t, dir, repo, commitSpec{
			message: "step",
			files:   map[string]string{"file.txt": time.Now().String() + string(rune('a'+i))},
			when:    when,
		})
	}

	engine := NewGitEngine(t.TempDir())
	commits, err := engine.Walk(context.Background(), dir, "master", port.WalkOptions{})
	require.NoError(t, err)
	require.Len(t, commits, 3)
	for i := 1; i < len(commits); i++ {
		assert.False(t, commits[i-1].Timestamp.Before(commits[i].Timestamp),
			"commit %d should not predate commit %d", i-1, i)
	}
}

func TestWalkUnknownBranchFallsBackToHead(t *testing.T) {
	dir, repo := initTestRepo(t)
	applyCommit(t, dir, repo, commitSpec{
		message: "first",
		files:   map[string]string{"a.txt": "a\n"},
		when:    time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	})
	applyCommit(t, dir, repo, commitSpec{
		message: "second",
		files:   map[string]string{"b.txt": "b\n"},
		when:    time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC),
	})

	engine := NewGitEngine(t.TempDir())
	commits, err := engine.Walk(context.Background(), dir, "does-not-exist", port.WalkOptions{})
	require.NoError(t, err)
	assert.Len(t, commits, 2)
}

func TestWalkAllBranches(t *testing.T) {
	dir, repo := initTestRepo(t)
	base := applyCommit(t, dir, repo, commitSpec{
		message: "base",
		files:   map[string]string{"a.txt": "a\n"},
		when:    time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC),
	})
	onMaster := applyCommit(t, dir, repo, commitSpec{
		message: "master tip",
		files:   map[string]string{"b.txt": "b\n"},
		when:    time.Date(2024, 7, 2, 8, 0, 0, 0, time.UTC),
	})

	w, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, w.Checkout(&git.CheckoutOptions{
		Hash:   plumbing.NewHash(base),
		Branch: plumbing.NewBranchReferenceName("feature"),
		Create: true,
	}))
	onFeature := applyCommit(t, dir, repo, commitSpec{
		message: "feature tip",
		files:   map[string]string{"c.txt": "c\n"},
		when:    time.Date(2024, 7, 3, 8, 0, 0, 0, time.UTC),
	})

	engine := NewGitEngine(t.TempDir())

	single, err := engine.Walk(context.Background(), dir, "master", port.WalkOptions{})
	require.NoError(t, err)
	require.Len(t, single, 2)
	assert.Equal(t, onMaster, single[0].Hash)

	all, err := engine.Walk(context.Background(), dir, "master", port.WalkOptions{AllBranches: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, onFeature, all[0].Hash)
	assert.Equal(t, onMaster, all[1].Hash)
	assert.Equal(t, base, all[2].Hash)
}

func TestWalkAllBranchesSkipsTagOnlyCommits(t *testing.T) {
	dir, repo := initTestRepo(t)
	base := applyCommit(t, dir, repo, commitSpec{
		message: "base",
		files:   map[string]string{"a.txt": "a\n"},
		when:    time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC),
	})

	w, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, w.Checkout(&git.CheckoutOptions{
		Hash:   plumbing.NewHash(base),
		Branch: plumbing.NewBranchReferenceName("scratch"),
		Create: true,
	}))
	tagged := applyCommit(t, dir, repo, commitSpec{
		message: "kept alive by a tag",
		files:   map[string]string{"b.txt": "b\n"},
		when:    time.Date(2024, 7, 2, 8, 0, 0, 0, time.UTC),
	})
	_, err = repo.CreateTag("snapshot", plumbing.NewHash(tagged), nil)
	require.NoError(t, err)

	// Drop the branch so the tag is the only ref holding the commit.
	require.NoError(t, w.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("master"),
	}))
	require.NoError(t, repo.Storer.RemoveReference(plumbing.NewBranchReferenceName("scratch")))

	engine := NewGitEngine(t.TempDir())
	all, err := engine.Walk(context.Background(), dir, "master", port.WalkOptions{AllBranches: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, base, all[0].Hash)
}
